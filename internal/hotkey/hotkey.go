// Package hotkey delivers global capture triggers. The watch daemon binds a
// shortcut through the XDG GlobalShortcuts portal and receives activations
// as discrete signals; everything past the trigger lives in the pipeline.
package hotkey

import "context"

// Listener delivers trigger events until ctx is cancelled.
type Listener interface {
	// Listen blocks, sending one value on triggers per activation. It
	// returns when ctx is done or the underlying source fails.
	Listen(ctx context.Context, triggers chan<- struct{}) error
}
