package cmd

import (
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(nil)
		if err != nil {
			return err
		}

		sessions, err := store.List()
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			cmd.Println("no sessions")
			return nil
		}

		for _, s := range sessions {
			cmd.Printf("%s  %-30s  %s  (%d evidence)\n",
				s.ID,
				s.Name,
				s.CreatedAt.Time().Format("2006-01-02 15:04"),
				len(s.Evidence),
			)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
