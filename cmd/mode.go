package cmd

import (
	"fmt"

	"github.com/iksnae/ga4-analyst/internal"
	"github.com/spf13/cobra"
)

// modeCmd represents the mode command
var modeCmd = &cobra.Command{
	Use:   "mode [json|sheet|doc|ga4]",
	Short: "Show or select the data source",
	Long: `Without an argument, print the active data source and conversation state.

With an argument, switch the data source. Switching to a different source
clears every loaded dataset.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(appOptions{out: cmd.OutOrStdout()})
		if err != nil {
			return err
		}
		defer a.Close()

		if len(args) == 1 {
			mode, err := internal.ParseConnectionMode(args[0])
			if err != nil {
				return err
			}
			if err := a.ctrl.SelectMode(mode); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		mode := a.ctrl.Mode()
		fmt.Fprintf(out, "Mode:  %s\n", mode.Label())
		fmt.Fprintf(out, "State: %s\n", a.ctrl.State())
		if sum := a.ctrl.Summary(mode); sum != nil && a.ctrl.ChatEnabled() {
			fmt.Fprintf(out, "Data:  %s\n", describeSummary(sum))
		}
		return nil
	},
}

func describeSummary(sum *internal.DataSummary) string {
	desc := sum.FileName
	if desc == "" {
		desc = "inline data"
	}
	switch {
	case sum.RowCount > 0:
		desc += fmt.Sprintf(" (%d rows)", sum.RowCount)
	case sum.CharCount > 0:
		desc += fmt.Sprintf(" (%d characters)", sum.CharCount)
	}
	return desc
}

func init() {
	rootCmd.AddCommand(modeCmd)
}
