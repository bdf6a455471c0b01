package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/snaptrace/internal/session"
)

var renameCmd = &cobra.Command{
	Use:   "rename <session-id> <new-name>",
	Short: "Rename a session",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(nil)
		if err != nil {
			return err
		}

		if _, err := store.Rename(args[0], args[1]); err != nil {
			switch {
			case errors.Is(err, session.ErrNotFound):
				return fmt.Errorf("session not found: %s", args[0])
			case errors.Is(err, session.ErrEmptyName):
				return fmt.Errorf("session name must not be blank")
			}
			return err
		}

		cmd.Printf("Session renamed to %q.\n", args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(renameCmd)
}
