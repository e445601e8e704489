package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/iksnae/ga4-analyst/internal"
	"github.com/iksnae/ga4-analyst/internal/export"
	"github.com/spf13/cobra"
)

var (
	format     string
	outputFile string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the transcript to a file",
	Long: `Export the saved conversation in one of several formats (jsonl, md, yaml,
json). Dataset payloads are not included; summaries are.

Without --output the export is written to stdout.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		exporter, err := export.NewExporter(format)
		if err != nil {
			return err
		}

		a, err := openApp(appOptions{inspect: true})
		if err != nil {
			return err
		}
		defer a.Close()

		snap := a.ctrl.Snapshot()

		if outputFile == "" {
			if err := exporter.Export(snap, cmd.OutOrStdout()); err != nil {
				return &internal.ExportError{Format: format, Path: "stdout", Err: err}
			}
			return nil
		}

		path := outputFile
		if filepath.Ext(path) == "" {
			path += "." + exporter.Extension()
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return &internal.ExportError{Format: format, Path: path, Err: err}
		}
		f, err := os.Create(path)
		if err != nil {
			return &internal.ExportError{Format: format, Path: path, Err: err}
		}
		if err := exporter.Export(snap, f); err != nil {
			_ = f.Close()
			return &internal.ExportError{Format: format, Path: path, Err: err}
		}
		if err := f.Close(); err != nil {
			return &internal.ExportError{Format: format, Path: path, Err: err}
		}

		internal.PrintSuccess(fmt.Sprintf("Exported %d messages to %s", len(snap.Messages), path))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&format, "format", "f", "jsonl", "Export format (jsonl, md, yaml, json)")
	exportCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
}
