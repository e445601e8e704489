package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/ga4-analyst/internal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	healthcheckVerbose bool
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check configuration and session store access",
	Long: `Check the health of ga4-analyst by verifying:
  • Data directory detection
  • Config file and Gemini API key
  • Session store access
  • Stored session readability

This command is useful for debugging setup issues.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHealthcheck(cmd.OutOrStdout())
	},
}

func runHealthcheck(w io.Writer) error {
	fmt.Fprintln(w, sectionStyle.Render("GA4 Analyst Health Check"))
	fmt.Fprintln(w)

	// Step 1: Detect data paths
	fmt.Fprintln(w, infoStyle.Render("Step 1: Detecting data directory..."))
	paths, err := internal.DetectDataPaths(viper.GetString("data-dir"))
	if err != nil {
		fmt.Fprintln(w, errorStyle.Render("❌ Failed to detect data directory:"), err)
		return fmt.Errorf("health check failed: %w", err)
	}
	fmt.Fprintln(w, successStyle.Render("✅ Data directory detected"))
	if healthcheckVerbose {
		fmt.Fprintf(w, "   Base path: %s\n", paths.BasePath)
		fmt.Fprintf(w, "   Store: %s\n", paths.StoreDir)
	}
	fmt.Fprintln(w)

	// Step 2: Configuration
	fmt.Fprintln(w, infoStyle.Render("Step 2: Checking configuration..."))
	if paths.ConfigExists() {
		fmt.Fprintln(w, successStyle.Render("✅ Config file found"))
	} else {
		fmt.Fprintln(w, warningStyle.Render("⚠️  No config file, using flags and environment"))
	}
	if healthcheckVerbose {
		fmt.Fprintf(w, "   Config: %s\n", paths.ConfigFile)
		fmt.Fprintf(w, "   Model: %s\n", viper.GetString("model"))
	}
	keyConfigured := resolveAPIKey() != ""
	if keyConfigured {
		fmt.Fprintln(w, successStyle.Render("✅ Gemini API key configured"))
	} else {
		fmt.Fprintln(w, warningStyle.Render("⚠️  Gemini API key not configured"))
		fmt.Fprintln(w, "   Set GEMINI_API_KEY or pass --api-key to enable chat")
	}
	fmt.Fprintln(w)

	// Step 3: Open the store
	fmt.Fprintln(w, infoStyle.Render("Step 3: Opening session store..."))
	if err := paths.EnsureStoreDir(); err != nil {
		fmt.Fprintln(w, errorStyle.Render("❌ Cannot create store directory:"), err)
		return fmt.Errorf("health check failed: %w", err)
	}
	kv, err := internal.OpenStore(viper.GetString("store"), paths.StoreDir, internal.DefaultQuotaBytes)
	if err != nil {
		fmt.Fprintln(w, errorStyle.Render("❌ Failed to open session store"))
		fmt.Fprintln(w, err)
		return fmt.Errorf("health check failed: %w", err)
	}
	defer func() { _ = kv.Close() }()
	fmt.Fprintln(w, successStyle.Render(fmt.Sprintf("✅ Session store opened (%s)", storeName())))
	fmt.Fprintln(w)

	// Step 4: Read stored sessions
	fmt.Fprintln(w, infoStyle.Render("Step 4: Reading stored sessions..."))
	rows, err := listSessions(kv)
	if err != nil {
		fmt.Fprintln(w, errorStyle.Render("❌ Failed to list sessions:"), err)
		return fmt.Errorf("health check failed: %w", err)
	}
	unreadable := 0
	for _, r := range rows {
		if r.source == "unreadable" {
			unreadable++
		}
		if healthcheckVerbose {
			fmt.Fprintf(w, "   %s: %s, %s messages\n", r.profile, r.source, r.messages)
		}
	}
	switch {
	case len(rows) == 0:
		fmt.Fprintln(w, warningStyle.Render("⚠️  No stored sessions yet"))
	case unreadable > 0:
		fmt.Fprintln(w, warningStyle.Render(fmt.Sprintf("⚠️  %d of %d session(s) cannot be read and will be reset on next use", unreadable, len(rows))))
	default:
		fmt.Fprintln(w, successStyle.Render(fmt.Sprintf("✅ Found %d session(s)", len(rows))))
	}
	fmt.Fprintln(w)

	// Summary
	fmt.Fprintln(w, sectionStyle.Render("Summary"))
	fmt.Fprintln(w)
	if keyConfigured {
		fmt.Fprintln(w, successStyle.Render("✅ Health check passed!"))
	} else {
		fmt.Fprintln(w, warningStyle.Render("⚠️  Store available but chat is disabled until an API key is set"))
	}
	return nil
}

func storeName() string {
	if name := viper.GetString("store"); name != "" {
		return name
	}
	return internal.BackendSQLite
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVarP(&healthcheckVerbose, "verbose", "v", false, "Show detailed diagnostic information")
}
