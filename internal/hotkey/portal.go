package hotkey

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/google/uuid"
)

const (
	portalDest        = "org.freedesktop.portal.Desktop"
	portalPath        = "/org/freedesktop/portal/desktop"
	shortcutsIface    = "org.freedesktop.portal.GlobalShortcuts"
	activatedSignal   = shortcutsIface + ".Activated"
	responseSignal    = "org.freedesktop.portal.Request.Response"
	captureShortcutID = "capture-evidence"
)

// PortalListener binds one global shortcut through the XDG GlobalShortcuts
// portal and forwards its activations.
type PortalListener struct {
	// Trigger is the preferred trigger description handed to the portal,
	// e.g. "ALT+SHIFT+s". The compositor may override it.
	Trigger string
}

// Listen creates a portal session, binds the capture shortcut, and forwards
// every activation as one value on triggers. It returns when ctx is
// cancelled.
func (p *PortalListener) Listen(ctx context.Context, triggers chan<- struct{}) error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("dbus connect: %w", err)
	}
	defer conn.Close()

	obj := conn.Object(portalDest, portalPath)
	token := "snaptrace_" + uuid.New().String()[:8]

	sigc := make(chan *dbus.Signal, 8)
	conn.Signal(sigc)
	defer conn.RemoveSignal(sigc)

	for _, rule := range []string{
		"type='signal',interface='org.freedesktop.portal.Request',member='Response'",
		fmt.Sprintf("type='signal',interface='%s',member='Activated'", shortcutsIface),
	} {
		if err := conn.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, rule).Err; err != nil {
			return err
		}
		defer conn.BusObject().Call("org.freedesktop.DBus.RemoveMatch", 0, rule)
	}

	// CreateSession → Request handle → Response carrying the session handle.
	createOpts := map[string]dbus.Variant{
		"handle_token":         dbus.MakeVariant(token),
		"session_handle_token": dbus.MakeVariant(token),
	}
	var reqHandle dbus.ObjectPath
	call := obj.CallWithContext(ctx, shortcutsIface+".CreateSession", 0, createOpts)
	if call.Err != nil {
		return fmt.Errorf("global shortcuts portal unavailable: %w", call.Err)
	}
	if err := call.Store(&reqHandle); err != nil {
		return err
	}
	results, err := waitForResponse(ctx, sigc, reqHandle)
	if err != nil {
		return fmt.Errorf("creating shortcuts session: %w", err)
	}
	sessionVar, ok := results["session_handle"]
	if !ok {
		return fmt.Errorf("shortcuts session response missing handle")
	}
	sessionStr, ok := sessionVar.Value().(string)
	if !ok {
		return fmt.Errorf("unexpected shortcuts session handle type %T", sessionVar.Value())
	}
	sessionHandle := dbus.ObjectPath(sessionStr)

	// BindShortcuts with our single capture trigger.
	shortcuts := []struct {
		ID   string
		Data map[string]dbus.Variant
	}{{
		ID: captureShortcutID,
		Data: map[string]dbus.Variant{
			"description":       dbus.MakeVariant("Capture evidence screenshot"),
			"preferred_trigger": dbus.MakeVariant(p.Trigger),
		},
	}}
	bindOpts := map[string]dbus.Variant{
		"handle_token": dbus.MakeVariant(token + "_bind"),
	}
	call = obj.CallWithContext(ctx, shortcutsIface+".BindShortcuts", 0, sessionHandle, shortcuts, "", bindOpts)
	if call.Err != nil {
		return fmt.Errorf("binding shortcuts: %w", call.Err)
	}
	if err := call.Store(&reqHandle); err != nil {
		return err
	}
	if _, err := waitForResponse(ctx, sigc, reqHandle); err != nil {
		return fmt.Errorf("binding shortcuts: %w", err)
	}

	// Forward activations until cancelled.
	for {
		select {
		case <-ctx.Done():
			return nil
		case sig, ok := <-sigc:
			if !ok {
				return fmt.Errorf("dbus signal channel closed")
			}
			if sig.Name != activatedSignal || len(sig.Body) < 2 {
				continue
			}
			if handle, ok := sig.Body[0].(dbus.ObjectPath); !ok || handle != sessionHandle {
				continue
			}
			if id, ok := sig.Body[1].(string); !ok || id != captureShortcutID {
				continue
			}
			select {
			case triggers <- struct{}{}:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// waitForResponse drains sigc until the Response for handle arrives.
func waitForResponse(ctx context.Context, sigc <-chan *dbus.Signal, handle dbus.ObjectPath) (map[string]dbus.Variant, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case sig, ok := <-sigc:
			if !ok {
				return nil, fmt.Errorf("dbus signal channel closed")
			}
			if sig.Path != handle || sig.Name != responseSignal || len(sig.Body) < 2 {
				continue
			}
			code, _ := sig.Body[0].(uint32)
			if code != 0 {
				return nil, fmt.Errorf("portal request denied (code %d)", code)
			}
			results, _ := sig.Body[1].(map[string]dbus.Variant)
			return results, nil
		}
	}
}
