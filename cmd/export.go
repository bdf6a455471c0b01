package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/snaptrace/internal/export"
	"github.com/fakeyudi/snaptrace/internal/session"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export <session-id>",
	Short: "Export a session as a markdown or PDF document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(nil)
		if err != nil {
			return err
		}

		s, err := store.Load(args[0])
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				return fmt.Errorf("session not found: %s", args[0])
			}
			return err
		}

		format := exportFormat
		if format == "" {
			format = cfg.ExportFormat
		}
		renderer, err := export.ForFormat(format)
		if err != nil {
			return err
		}

		outDir := exportOut
		if outDir == "" {
			outDir, err = cfg.ExportsDir()
			if err != nil {
				return fmt.Errorf("resolving export directory: %w", err)
			}
		}

		path, err := renderer.Render(s, store, outDir)
		if err != nil {
			return fmt.Errorf("exporting session: %w", err)
		}

		cmd.Printf("Exported to %s\n", path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "output format: markdown or pdf (default from config)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output directory (default from config)")
	rootCmd.AddCommand(exportCmd)
}
