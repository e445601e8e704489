package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/iksnae/ga4-analyst/internal"
	"github.com/spf13/cobra"
)

var loadNoSuggest bool

// loadCmd groups the dataset loaders
var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load a dataset",
	Long: `Load a dataset for the conversation. Loading selects the matching data
source and, unless --no-suggest is set, fetches suggested questions.`,
}

var loadJSONCmd = &cobra.Command{
	Use:   "json <file|->",
	Short: "Load GA4 JSON data from a file or stdin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, name, err := readJSONInput(cmd.InOrStdin(), args[0])
		if err != nil {
			return err
		}
		return runLoad(cmd, "Loading JSON data", func(_ context.Context, a *app) error {
			return a.ctrl.LoadJSON(raw, name)
		})
	},
}

var loadSheetCmd = &cobra.Command{
	Use:   "sheet <url>",
	Short: "Load a public Google Sheet",
	Long: `Load a Google Sheet shared as "Anyone with the link can view". The first
row is used as headers and at most 1000 data rows are kept.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLoad(cmd, "Fetching Google Sheet", func(ctx context.Context, a *app) error {
			return a.ctrl.LoadSheet(ctx, args[0])
		})
	},
}

var loadDocCmd = &cobra.Command{
	Use:   "doc <url>",
	Short: "Load a public Google Document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLoad(cmd, "Fetching Google Document", func(ctx context.Context, a *app) error {
			return a.ctrl.LoadDoc(ctx, args[0])
		})
	},
}

func runLoad(cmd *cobra.Command, message string, load func(context.Context, *app) error) error {
	a, err := openApp(appOptions{out: cmd.OutOrStdout()})
	if err != nil {
		return err
	}
	defer a.Close()

	if err := internal.ShowProgress(cmd.Context(), message, func(ctx context.Context) error {
		return load(ctx, a)
	}); err != nil {
		return err
	}
	if !loadNoSuggest {
		a.waitForSuggestions()
	}
	return nil
}

// readJSONInput reads a file, or stdin for "-"
func readJSONInput(stdin io.Reader, path string) ([]byte, string, error) {
	if path == "-" {
		raw, err := io.ReadAll(stdin)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return raw, "stdin", nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return raw, filepath.Base(path), nil
}

func init() {
	rootCmd.AddCommand(loadCmd)
	loadCmd.AddCommand(loadJSONCmd, loadSheetCmd, loadDocCmd)
	loadCmd.PersistentFlags().BoolVar(&loadNoSuggest, "no-suggest", false, "Do not wait for suggested questions")
}
