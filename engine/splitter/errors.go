package splitter

import (
	"errors"
	"fmt"
)

// ErrConfiguration matches every ConfigurationError through errors.Is.
var ErrConfiguration = errors.New("splitter: invalid configuration")

// ConfigurationError reports an invalid chunking parameter.
type ConfigurationError struct {
	Field  string
	Reason string
}

func newConfigError(field, reason string) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: reason}
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrConfiguration.Error(), e.Field, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}
