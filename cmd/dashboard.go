package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/snaptrace/internal/tui"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Browse sessions and evidence interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !term.IsTerminal(os.Stdin.Fd()) {
			return fmt.Errorf("dashboard requires an interactive terminal")
		}

		store, err := openStore(nil)
		if err != nil {
			return err
		}
		return tui.Run(store)
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
