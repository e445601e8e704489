package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/ga4-analyst/internal"
	"github.com/spf13/cobra"
)

var (
	limit      int
	since      string
	showSystem bool
)

var (
	// Styles for show command
	sessionHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("212")).
				Padding(0, 1).
				MarginBottom(1)

	sessionMetaStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				MarginBottom(1)
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the conversation transcript",
	Long: `Display the saved conversation. Charts are drawn as bar or share blocks
and tables as aligned columns. SYSTEM notices are hidden unless --system
is set.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(appOptions{inspect: true})
		if err != nil {
			return err
		}
		defer a.Close()

		messages, err := filterMessages(a.ctrl.Messages(), since, limit, showSystem)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		displaySessionHeader(out, a)
		newRenderer(out, showSystem).RenderTranscript(messages)
		return nil
	},
}

func displaySessionHeader(w io.Writer, a *app) {
	plain := !internal.IsTerminal()
	header := fmt.Sprintf("Session %s", internal.ProfileFromKey(a.store.Key()))
	meta := fmt.Sprintf("Source: %s | State: %s", a.ctrl.Mode().Label(), a.ctrl.State())
	if sum := a.ctrl.Summary(a.ctrl.Mode()); sum != nil && a.ctrl.ChatEnabled() {
		meta += " | Data: " + describeSummary(sum)
	}
	if plain {
		fmt.Fprintf(w, "%s\n%s\n\n", header, meta)
		return
	}
	fmt.Fprintln(w, sessionHeaderStyle.Render(header))
	fmt.Fprintln(w, sessionMetaStyle.Render(meta))
}

// filterMessages applies --since, --system, and --limit. The limit keeps
// the most recent messages.
func filterMessages(messages []internal.Message, since string, limit int, withSystem bool) ([]internal.Message, error) {
	var sinceTime time.Time
	if since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return nil, fmt.Errorf("invalid --since timestamp format (expected RFC3339): %w", err)
		}
		sinceTime = t
	}

	filtered := make([]internal.Message, 0, len(messages))
	for _, m := range messages {
		if m.Sender == internal.SenderSystem && !withSystem {
			continue
		}
		if !sinceTime.IsZero() && m.Timestamp.Before(sinceTime) {
			continue
		}
		filtered = append(filtered, m)
	}
	if limit > 0 && limit < len(filtered) {
		filtered = filtered[len(filtered)-limit:]
	}
	return filtered, nil
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show only the last N messages")
	showCmd.Flags().StringVar(&since, "since", "", "Show messages since timestamp (RFC3339)")
	showCmd.Flags().BoolVar(&showSystem, "system", false, "Include SYSTEM notices")
}
