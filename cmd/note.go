package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/snaptrace/internal/session"
)

var noteCmd = &cobra.Command{
	Use:   "note <session-id> <evidence-id> <text>",
	Short: "Set or replace the note on a piece of evidence",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(nil)
		if err != nil {
			return err
		}

		if _, err := store.SetNote(args[0], args[1], args[2]); err != nil {
			if errors.Is(err, session.ErrNotFound) {
				return fmt.Errorf("session or evidence not found")
			}
			return err
		}

		cmd.Println("Note updated.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(noteCmd)
}
