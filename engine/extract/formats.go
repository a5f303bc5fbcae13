package extract

import (
	"maps"
	"path/filepath"
	"slices"
	"strings"
)

// Format is one of the closed set of extraction variants.
type Format string

const (
	FormatPDF         Format = "pdf"
	FormatWord        Format = "word"
	FormatSpreadsheet Format = "spreadsheet"
	FormatDelimited   Format = "delimited"
	FormatText        Format = "text"
)

const (
	MIMEPDF      = "application/pdf"
	MIMEDocx     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEDoc      = "application/msword"
	MIMEXlsx     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MIMEXls      = "application/vnd.ms-excel"
	MIMECSV      = "text/csv"
	MIMEHTML     = "text/html"
	MIMEPlain    = "text/plain"
	MIMEMarkdown = "text/markdown"
)

var extensionTypes = map[string]string{
	".pdf":  MIMEPDF,
	".txt":  MIMEPlain,
	".md":   MIMEMarkdown,
	".docx": MIMEDocx,
	".doc":  MIMEDoc,
	".xlsx": MIMEXlsx,
	".xls":  MIMEXls,
	".csv":  MIMECSV,
	".html": MIMEHTML,
	".htm":  MIMEHTML,
	".py":   "text/x-python",
	".js":   "text/javascript",
	".java": "text/x-java-source",
	".cpp":  "text/x-c++src",
	".c":    "text/x-csrc",
	".json": "application/json",
	".xml":  "application/xml",
	".rtf":  "application/rtf",
}

var typeFormats = map[string]Format{
	MIMEPDF:  FormatPDF,
	MIMEDocx: FormatWord,
	MIMEDoc:  FormatWord,
	MIMEXlsx: FormatSpreadsheet,
	MIMEXls:  FormatSpreadsheet,
	MIMECSV:  FormatDelimited,
}

// SupportedExtensions returns the recognized extensions in sorted order.
func SupportedExtensions() []string {
	return slices.Sorted(maps.Keys(extensionTypes))
}

// IsSupported reports whether ext (with or without the leading dot) is recognized.
func IsSupported(ext string) bool {
	_, ok := extensionTypes[normalizeExt(ext)]
	return ok
}

// ContentTypeForExtension returns the canonical MIME type of ext.
func ContentTypeForExtension(ext string) (string, bool) {
	ct, ok := extensionTypes[normalizeExt(ext)]
	return ct, ok
}

// FormatFor maps a MIME type or an extension to its extraction variant.
// Anything unrecognized is generic text.
func FormatFor(contentTypeOrExt string) Format {
	ct := canonicalType(contentTypeOrExt)
	if f, ok := typeFormats[ct]; ok {
		return f
	}
	return FormatText
}

// canonicalType turns an extension or a MIME type with parameters into a bare
// lowercase MIME type.
func canonicalType(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return ""
	}
	if !strings.Contains(v, "/") {
		if ct, ok := extensionTypes[normalizeExt(v)]; ok {
			return ct
		}
		return v
	}
	if i := strings.IndexByte(v, ';'); i >= 0 {
		v = strings.TrimSpace(v[:i])
	}
	return v
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Ext returns the lowercase extension of a filename.
func Ext(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}
