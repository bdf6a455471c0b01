package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/snaptrace/internal/session"
)

var newCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Create a new evidence session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(nil)
		if err != nil {
			return err
		}

		s, err := store.Create(args[0])
		if err != nil {
			if errors.Is(err, session.ErrEmptyName) {
				return fmt.Errorf("session name must not be blank")
			}
			return err
		}

		cmd.Printf("Session %q created.\n", s.Name)
		cmd.Printf("ID: %s\n", s.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(newCmd)
}
