package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"

	"github.com/iksnae/ga4-analyst/internal"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	verbose bool
	version string = "dev"
	commit  string = "unknown"
	date    string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ga4-analyst",
	Short: "Chat with an AI analyst about your analytics data",
	Long: `A CLI tool to load a dataset and ask Google Gemini questions about it.

Data sources:
  • GA4 JSON exports, from a file or stdin
  • Public Google Sheets (CSV export)
  • Public Google Docs (plain text export)
  • A simulated Google Analytics connection

Replies may carry charts and tables, which are drawn in the terminal.
The conversation is saved locally after every change and restored on the
next run.

Quick Start:
  ga4-analyst load json report.json            # Load a GA4 export
  ga4-analyst ask "Which page has most views?"  # Ask one question
  ga4-analyst chat                             # Interactive session
  ga4-analyst export --format md               # Export the transcript

The Gemini API key is read from --api-key, GA4_ANALYST_API_KEY,
GEMINI_API_KEY or API_KEY. A .env file in the working directory is loaded
first.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// An interrupt cancels the running command's context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	flags.String("log-level", "warn", "Set log level (debug|info|warn|error)")
	flags.String("log-file", "", "Write logs to file instead of stderr")
	flags.String("data-dir", "", "Custom data directory (default: per-user application directory)")
	flags.String("store", internal.BackendSQLite, "Session store backend (sqlite|file)")
	flags.String("session", "default", "Session profile name")
	flags.String("api-key", "", "Gemini API key")
	flags.String("model", internal.DefaultModel, "Gemini model name")
	flags.Bool("plain", false, "Disable colors and markdown rendering")

	for _, name := range []string{"log-level", "log-file", "data-dir", "store", "session", "api-key", "model", "plain"} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			fmt.Fprintf(os.Stderr, "Error binding %s flag: %v\n", name, err)
			os.Exit(1)
		}
	}

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// initConfig loads .env, environment, and the optional config file, then
// configures logging
func initConfig() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		internal.LogWarn("Failed to load .env: %v", err)
	}

	viper.SetEnvPrefix("GA4_ANALYST")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	paths, err := internal.DetectDataPaths(viper.GetString("data-dir"))
	if err != nil {
		return err
	}
	if paths.ConfigExists() {
		viper.SetConfigFile(paths.ConfigFile)
		viper.SetConfigType("yaml")
		if err := viper.ReadInConfig(); err != nil {
			return &internal.ConfigError{Key: paths.ConfigFile, Err: err}
		}
	}

	level := viper.GetString("log-level")
	if verbose {
		level = "debug"
	}
	if err := internal.ConfigureLogging(level, viper.GetString("log-file")); err != nil {
		return &internal.ConfigError{Key: "log-level", Err: err}
	}
	if viper.ConfigFileUsed() != "" {
		internal.LogDebug("Using config file %s", viper.ConfigFileUsed())
	}
	return nil
}

// resolveAPIKey prefers the flag or GA4_ANALYST_API_KEY, then the
// conventional Gemini variables
func resolveAPIKey() string {
	if key := strings.TrimSpace(viper.GetString("api-key")); key != "" {
		return key
	}
	for _, name := range []string{"GEMINI_API_KEY", "API_KEY"} {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}
