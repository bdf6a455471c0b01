package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/snaptrace/internal/session"
)

var showCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show one session and its evidence",
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

		cmd.Printf("Name:    %s\n", s.Name)
		cmd.Printf("ID:      %s\n", s.ID)
		cmd.Printf("Created: %s\n", s.CreatedAt.Time().Format("2006-01-02 15:04:05"))
		cmd.Printf("Evidence: %d\n", len(s.Evidence))
		for i, ev := range s.Evidence {
			cmd.Printf("  #%d  %s  %s  %s\n", i+1, ev.ID, ev.Timestamp.Time().Format("2006-01-02 15:04:05"), ev.Filename)
			if ev.Note != "" {
				cmd.Printf("      note: %s\n", ev.Note)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
