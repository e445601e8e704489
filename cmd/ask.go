package cmd

import (
	"context"
	"strings"

	"github.com/iksnae/ga4-analyst/internal"
	"github.com/spf13/cobra"
)

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask one question about the loaded data",
	Long: `Send one question about the active dataset and print the reply.
Charts and tables in the reply are drawn below the text.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(appOptions{out: cmd.OutOrStdout()})
		if err != nil {
			return err
		}
		defer a.Close()

		question := strings.Join(args, " ")
		return internal.ShowProgress(cmd.Context(), "Analyzing", func(ctx context.Context) error {
			_, err := a.ctrl.Send(ctx, question, internal.SendOptions{})
			return err
		})
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}
