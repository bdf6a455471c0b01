package cmd

import (
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <session-id> [evidence-id]",
	Short: "Delete a session, or one piece of its evidence",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(nil)
		if err != nil {
			return err
		}

		if len(args) == 2 {
			removed, err := store.DeleteEvidence(args[0], args[1])
			if err != nil {
				return err
			}
			if !removed {
				cmd.Println("Evidence already gone; nothing to do.")
				return nil
			}
			cmd.Println("Evidence deleted.")
			return nil
		}

		removed, err := store.Delete(args[0])
		if err != nil {
			return err
		}
		if !removed {
			cmd.Println("Session already gone; nothing to do.")
			return nil
		}
		cmd.Println("Session deleted.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
