package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/snaptrace/internal/annotate"
	"github.com/fakeyudi/snaptrace/internal/capture"
	"github.com/fakeyudi/snaptrace/internal/hotkey"
	"github.com/fakeyudi/snaptrace/internal/session"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run in the background and capture on the global shortcut",
	Long: `Watch binds the configured capture shortcut through the desktop portal
and stays resident. Each activation grabs an interactive screenshot and
commits it to the newest session. Stop with Ctrl-C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
		store, err := openStore(logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		listener := &hotkey.PortalListener{Trigger: cfg.CaptureShortcut}
		triggers := make(chan struct{}, 1)
		errc := make(chan error, 1)
		go func() { errc <- listener.Listen(ctx, triggers) }()

		logger.Info("watching for capture shortcut", "trigger", cfg.CaptureShortcut)

		// busy guards against re-entry while a portal dialog is open.
		busy := make(chan struct{}, 1)
		for {
			select {
			case <-ctx.Done():
				return nil
			case err := <-errc:
				if err != nil && ctx.Err() == nil {
					return err
				}
				return nil
			case <-triggers:
				select {
				case busy <- struct{}{}:
				default:
					logger.Warn("capture already in progress, ignoring trigger")
					continue
				}
				go func() {
					defer func() { <-busy }()
					if err := captureOnce(ctx, logger, store); err != nil {
						logger.Error("capture failed", "error", err)
					}
				}()
			}
		}
	},
}

func captureOnce(ctx context.Context, logger *slog.Logger, store *session.Store) error {
	target, err := resolveSession(store, "")
	if err != nil {
		return err
	}

	capturer := &capture.PortalCapturer{Interactive: true}
	img, _, err := capturer.Capture(ctx)
	if err != nil {
		return err
	}

	state := annotate.New(img, cfg.MinDragSize)
	flat := annotate.Flatten(state, cfg.Style())
	ev, err := store.AddEvidence(target.ID, flat, "")
	if err != nil {
		return err
	}
	logger.Info("evidence captured", "session", target.Name, "evidence", ev.ID)
	return nil
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
