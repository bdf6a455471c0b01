package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/snaptrace/internal/config"
	"github.com/fakeyudi/snaptrace/internal/session"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "snaptrace",
	Short: "Capture, annotate, and organize screenshot evidence into sessions",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadGlobal()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = config.Merge(loaded)
		return nil
	},
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openStore builds the session store at the configured root. CLI commands
// keep the store quiet below warnings; the watch daemon passes its own
// logger.
func openStore(logger *slog.Logger) (*session.Store, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelWarn,
		}))
	}
	dir, err := cfg.SessionsDir()
	if err != nil {
		return nil, fmt.Errorf("resolving data directory: %w", err)
	}
	return session.NewStore(dir, logger)
}

// resolveSession picks the target session: the explicit id when given,
// otherwise the newest session.
func resolveSession(store *session.Store, id string) (*session.Session, error) {
	if id != "" {
		s, err := store.Load(id)
		if errors.Is(err, session.ErrNotFound) {
			return nil, fmt.Errorf("session not found: %s", id)
		}
		return s, err
	}
	sessions, err := store.List()
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, fmt.Errorf("no sessions exist yet; create one with `snaptrace new <name>`")
	}
	return sessions[0], nil
}
