package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/compozy/docchunk/cli/helpers"
	"github.com/compozy/docchunk/pkg/logger"
	"github.com/spf13/cobra"
)

// HandlerFunc defines the signature for command handlers.
type HandlerFunc func(ctx context.Context, cmd *cobra.Command, mode helpers.Mode, args []string) error

// ModeHandlers contains handlers for different execution modes. A missing
// Text handler falls back to JSON.
type ModeHandlers struct {
	JSON HandlerFunc
	Text HandlerFunc
}

// ExecuteCommand detects the output mode and runs the matching handler.
func ExecuteCommand(cmd *cobra.Command, handlers ModeHandlers, args []string) error {
	mode := helpers.DetectMode(cmd)
	logger.FromContext(cmd.Context()).Debug("detected execution mode", "mode", mode)
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	handler := handlers.JSON
	if mode == helpers.ModeText && handlers.Text != nil {
		handler = handlers.Text
	}
	if handler == nil {
		return HandleCommonErrors(cmd, fmt.Errorf("%s mode handler not implemented", mode), mode)
	}
	return HandleCommonErrors(cmd, handler(ctx, cmd, mode, args), mode)
}

// HandleCommonErrors writes err to the command's stderr in the output mode
// and returns it.
func HandleCommonErrors(cmd *cobra.Command, err error, mode helpers.Mode) error {
	if err == nil {
		return nil
	}
	if cliErr := categorizeError(err); cliErr != nil {
		err = cliErr
	}
	helpers.OutputError(cmd.ErrOrStderr(), err, mode)
	return err
}

// categorizeError converts errors to structured CLI errors
func categorizeError(err error) *helpers.CliError {
	var cliErr *helpers.CliError
	switch {
	case errors.As(err, &cliErr):
		return nil
	case errors.Is(err, context.Canceled):
		return helpers.NewCliError("OPERATION_CANCELED", "Operation was canceled by user")
	case errors.Is(err, context.DeadlineExceeded):
		return helpers.NewCliError("OPERATION_TIMEOUT", "Operation timed out")
	case helpers.IsNetworkError(err):
		return helpers.NewCliError("NETWORK_ERROR", "Network connection failed", err.Error())
	default:
		return nil
	}
}
