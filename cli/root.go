package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/compozy/docchunk/cli/cmd/documents"
	"github.com/compozy/docchunk/cli/cmd/extract"
	"github.com/compozy/docchunk/cli/cmd/formats"
	"github.com/compozy/docchunk/cli/cmd/serve"
	"github.com/compozy/docchunk/cli/cmd/split"
	"github.com/compozy/docchunk/cli/helpers"
	"github.com/compozy/docchunk/pkg/config"
	"github.com/compozy/docchunk/pkg/logger"
	"github.com/compozy/docchunk/pkg/version"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	defaultConfigFile = "docchunk.yaml"
	defaultEnvFile    = ".env"
)

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "docchunk",
		Short:         "Extract text from documents and split it into chunks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return SetupGlobalConfig(cmd)
		},
	}
	pf := root.PersistentFlags()
	pf.String("config", defaultConfigFile, "Path to the YAML configuration file")
	pf.String("env-file", defaultEnvFile, "Path to a dotenv file loaded before configuration")
	pf.String("log-level", "", "Log level: debug, info, warn, error or disabled")
	pf.Bool("log-json", false, "Write logs as JSON")
	pf.Bool("log-source", false, "Include source locations in logs")
	pf.String("format", "", "Output format: auto, json or text")
	pf.String("server-url", "", "Server URL used by client commands")
	pf.Duration("timeout", 0, "Request timeout used by client commands")

	root.AddCommand(
		serve.NewServeCommand(),
		extract.NewExtractCommand(),
		split.NewSplitCommand(),
		formats.NewFormatsCommand(),
		documents.NewDocumentsCommand(),
		documents.NewStatsCommand(),
		documents.NewHealthCommand(),
		versionCmd(),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()
			if helpers.DetectMode(cmd) == helpers.ModeJSON {
				return helpers.WriteJSON(cmd.OutOrStdout(), info)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "docchunk version %s\n", info.Version)
			fmt.Fprintf(out, "commit: %s\n", info.CommitHash)
			_, err := fmt.Fprintf(out, "built: %s\n", info.BuildDate)
			return err
		},
	}
}

// SetupGlobalConfig loads configuration for cmd and attaches it, together
// with the configured logger, to the command context.
func SetupGlobalConfig(cmd *cobra.Command) error {
	if err := loadEnvFile(cmd); err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	cfg, err := config.NewService().Load(
		ctx,
		config.NewYAMLProvider(configFile),
		config.NewCLIProvider(changedFlags(cmd)),
	)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	log := logger.SetupLogger(cfg.Runtime.LogLevel, cfg.Runtime.LogJSON, cfg.Runtime.LogSource)
	ctx = logger.ContextWithLogger(ctx, log)
	ctx = config.ContextWithConfig(ctx, cfg)
	cmd.SetContext(ctx)
	log.Debug("Configuration loaded", "config_file", configFile)
	return nil
}

// changedFlags collects explicitly set flags that map to configuration keys.
func changedFlags(cmd *cobra.Command) map[string]any {
	flags := make(map[string]any)
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if _, ok := config.CLIFlagPath(f.Name); ok {
			flags[f.Name] = f.Value.String()
		}
	})
	return flags
}

// loadEnvFile loads the dotenv file when it exists. Variables already set in
// the environment keep their values.
func loadEnvFile(cmd *cobra.Command) error {
	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return fmt.Errorf("failed to get env-file flag: %w", err)
	}
	if envFile == "" {
		return nil
	}
	path, err := filepath.Abs(filepath.Clean(envFile))
	if err != nil {
		return fmt.Errorf("failed to resolve env file path: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat env file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("env file path '%s' is not a regular file", envFile)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}
