package helpers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// CliError represents a CLI-specific error with enhanced context
type CliError struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   string         `json:"details,omitempty"`
	Context   map[string]any `json:"context,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

func (e *CliError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewCliError creates a new CLI error with context
func NewCliError(code, message string, details ...string) *CliError {
	err := &CliError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Context:   make(map[string]any),
	}
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}

// WithContext adds context to the error
func (e *CliError) WithContext(key string, value any) *CliError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// IsTimeoutError checks if an error is a timeout error
func IsTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.DeadlineExceeded) ||
		strings.Contains(strings.ToLower(err.Error()), "timeout")
}

// IsNetworkError checks if an error is a network-related error
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	networkKeywords := []string{
		"connection refused", "connection reset", "no route to host",
		"network unreachable", "no such host",
	}
	for _, keyword := range networkKeywords {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}
	return false
}

// FormatError formats errors based on output mode
func FormatError(err error, mode Mode) string {
	if err == nil {
		return ""
	}
	if mode == ModeJSON {
		return formatErrorJSON(err)
	}
	return formatErrorText(err)
}

// formatErrorJSON formats errors for JSON output
func formatErrorJSON(err error) string {
	response := map[string]any{"error": err.Error(), "details": ""}
	var cliErr *CliError
	if errors.As(err, &cliErr) {
		response = map[string]any{
			"code":    cliErr.Code,
			"error":   cliErr.Message,
			"details": cliErr.Details,
		}
	}
	jsonBytes, mErr := json.MarshalIndent(response, "", "  ")
	if mErr != nil {
		return `{"error": "JSON marshaling failed", "details": ""}`
	}
	return string(jsonBytes)
}

func formatErrorText(err error) string {
	message, details := err.Error(), ""
	var cliErr *CliError
	if errors.As(err, &cliErr) {
		message, details = cliErr.Message, cliErr.Details
	}
	prefix := "✗"
	switch {
	case IsNetworkError(err):
		prefix = "✗ network:"
	case IsTimeoutError(err):
		prefix = "✗ timeout:"
	}
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	result := fmt.Sprintf("%s %s", prefix, style.Render(message))
	if details != "" {
		detailStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Italic(true)
		result += "\n" + detailStyle.Render("Details: "+details)
	}
	return result
}

// OutputError writes an error to w in the appropriate format
func OutputError(w io.Writer, err error, mode Mode) {
	if err == nil {
		return
	}
	fmt.Fprintln(w, FormatError(err, mode))
}
