package helpers

import (
	"os"

	"github.com/compozy/docchunk/pkg/config"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// Mode is the output style of a command.
type Mode string

const (
	// ModeText renders styled, human-oriented output
	ModeText Mode = "text"
	// ModeJSON renders machine-readable JSON
	ModeJSON Mode = "json"
)

const formatAuto = "auto"

var ciEnvironmentVars = []string{
	"CI",
	"JENKINS_HOME",
	"GITHUB_ACTIONS",
	"GITLAB_CI",
	"CIRCLECI",
	"TRAVIS",
	"BUILDKITE",
	"DRONE",
	"TF_BUILD", // Azure DevOps
	"CODEBUILD_BUILD_ID",
	"TEAMCITY_VERSION",
	"CONTINUOUS_INTEGRATION",
}

// isRunningInCI checks if we're running in a CI/CD environment
func isRunningInCI() bool {
	for _, v := range ciEnvironmentVars {
		if os.Getenv(v) != "" {
			return true
		}
	}
	return false
}

func isInteractiveEnvironment() bool {
	if isRunningInCI() {
		return false
	}
	fd := os.Stdout.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return false
	}
	term := os.Getenv("TERM")
	return term != "dumb" && term != ""
}

// ModeFor resolves the configured format. auto picks text on an interactive
// terminal and JSON everywhere else.
func ModeFor(format string, interactive bool) Mode {
	switch format {
	case string(ModeJSON):
		return ModeJSON
	case string(ModeText):
		return ModeText
	}
	if interactive {
		return ModeText
	}
	return ModeJSON
}

// DetectMode detects the output mode from the configuration in the command
// context and the terminal.
func DetectMode(cmd *cobra.Command) Mode {
	format := formatAuto
	if cfg := config.FromContext(cmd.Context()); cfg != nil && cfg.CLI.Format != "" {
		format = cfg.CLI.Format
	}
	return ModeFor(format, isInteractiveEnvironment())
}

// ShouldUseColor determines if colored output should be used
func ShouldUseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isInteractiveEnvironment()
}
