package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/ga4-analyst/internal"
	"github.com/spf13/cobra"
)

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)
)

// sessionCmd groups stored session maintenance
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage stored sessions",
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the stored session and start over",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error { return a.ctrl.ClearSession() })
	},
}

var sessionListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List stored session profiles",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(appOptions{inspect: true})
		if err != nil {
			return err
		}
		defer a.Close()

		rows, err := listSessions(a.kv)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(rows) == 0 {
			fmt.Fprintln(out, "No stored sessions")
			return nil
		}

		if internal.IsTerminal() {
			fmt.Fprintln(out, headerStyle.Render("Stored sessions"))
		}
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "PROFILE\tSOURCE\tMESSAGES\tSAVED")
		for _, r := range rows {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.profile, r.source, r.messages, r.saved)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		if internal.IsTerminal() {
			fmt.Fprintln(out, countStyle.Render(fmt.Sprintf("%d session(s)", len(rows))))
		}
		return nil
	},
}

type sessionRow struct {
	profile  string
	source   string
	messages string
	saved    string
}

// listSessions decodes every stored profile. Unreadable records are
// listed as such rather than removed.
func listSessions(kv internal.KVStore) ([]sessionRow, error) {
	keys, err := kv.Keys(internal.SessionKey)
	if err != nil {
		return nil, err
	}
	rows := make([]sessionRow, 0, len(keys))
	for _, key := range keys {
		row := sessionRow{profile: internal.ProfileFromKey(key), source: "-", messages: "-", saved: "-"}
		raw, ok, err := kv.Get(key)
		if err != nil || !ok {
			continue
		}
		snap, err := internal.DecodeSnapshot(raw)
		if err != nil {
			row.source = "unreadable"
			rows = append(rows, row)
			continue
		}
		row.source = snap.ConnectionMode.Label()
		counts := snap.CountBySender()
		row.messages = fmt.Sprintf("%d (%d user, %d bot)", len(snap.Messages), counts[internal.SenderUser], counts[internal.SenderBot])
		if !snap.SavedAt.IsZero() {
			row.saved = snap.SavedAt.Local().Format("2006-01-02 15:04")
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionClearCmd, sessionListCmd)
	// "list" at the top level is kept as a shortcut
	rootCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: sessionListCmd.Short,
		Args:  cobra.NoArgs,
		RunE:  sessionListCmd.RunE,
	})
}
