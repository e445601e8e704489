package cmd

import (
	"context"

	"github.com/iksnae/ga4-analyst/internal"
	"github.com/spf13/cobra"
)

// connectCmd represents the connect command
var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connect to Google Analytics (simulated)",
	Long: `Connect the simulated Google Analytics source. No network access is made;
the connection stands in for a real account.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(appOptions{out: cmd.OutOrStdout()})
		if err != nil {
			return err
		}
		defer a.Close()

		return internal.ShowProgress(cmd.Context(), "Connecting to Google Analytics", func(ctx context.Context) error {
			return a.ctrl.ConnectAnalytics(ctx)
		})
	},
}

var disconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Disconnect the simulated Google Analytics source",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error { return a.ctrl.DisconnectAnalytics() })
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the dataset of the active data source",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error { return a.ctrl.ClearData() })
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Return to data source selection",
	Long: `Drop the conversation and loaded data and return to data source
selection. Configuration and welcome notices are kept.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error { return a.ctrl.Reset() })
	},
}

// withApp runs one controller action with live output
func withApp(cmd *cobra.Command, fn func(a *app) error) error {
	a, err := openApp(appOptions{out: cmd.OutOrStdout()})
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func init() {
	rootCmd.AddCommand(connectCmd, disconnectCmd, clearCmd, resetCmd)
}
