package cmd

import (
	"context"

	"github.com/iksnae/ga4-analyst/internal"
	"github.com/spf13/cobra"
)

// suggestCmd represents the suggest command
var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Suggest questions about the loaded data",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(appOptions{out: cmd.OutOrStdout()})
		if err != nil {
			return err
		}
		defer a.Close()

		return internal.ShowProgress(cmd.Context(), "Fetching suggested questions", func(context.Context) error {
			if err := a.ctrl.RefreshSuggestions(); err != nil {
				return err
			}
			a.waitForSuggestions()
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(suggestCmd)
}
