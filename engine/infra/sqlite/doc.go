// Package sqlite provides the modernc.org/sqlite backed document repository.
//
// Schema changes are embedded goose migrations applied when a store opens.
// Queries are built with squirrel using question mark placeholders.
package sqlite
