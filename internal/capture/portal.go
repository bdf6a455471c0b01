package capture

import (
	"context"
	"fmt"
	"image"
	"net/url"
	"os"
	"strings"

	"github.com/godbus/dbus/v5"

	"github.com/fakeyudi/snaptrace/internal/imagebuf"
)

const (
	portalDest       = "org.freedesktop.portal.Desktop"
	portalPath       = "/org/freedesktop/portal/desktop"
	screenshotMethod = "org.freedesktop.portal.Screenshot.Screenshot"
	responseSignal   = "org.freedesktop.portal.Request.Response"
)

// PortalCapturer grabs the screen through the XDG desktop portal. The portal
// writes a PNG to disk and answers with its URI over a Request/Response
// signal pair.
type PortalCapturer struct {
	// Interactive asks the portal to show its region/monitor picker.
	Interactive bool
}

// Capture calls the Screenshot portal and decodes the resulting file. The
// temporary file the portal produced is removed after decoding.
func (p *PortalCapturer) Capture(ctx context.Context) (*imagebuf.Buffer, image.Rectangle, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, image.Rectangle{}, fmt.Errorf("dbus connect: %w", err)
	}
	defer conn.Close()

	obj := conn.Object(portalDest, portalPath)
	opts := map[string]dbus.Variant{
		"interactive": dbus.MakeVariant(p.Interactive),
	}

	var handle dbus.ObjectPath
	call := obj.CallWithContext(ctx, screenshotMethod, 0, "", opts)
	if call.Err != nil {
		return nil, image.Rectangle{}, fmt.Errorf("screenshot portal call: %w", call.Err)
	}
	if err := call.Store(&handle); err != nil {
		return nil, image.Rectangle{}, err
	}

	uri, err := waitForResponseURI(ctx, conn, handle)
	if err != nil {
		return nil, image.Rectangle{}, err
	}

	path, err := fileURIToPath(uri)
	if err != nil {
		return nil, image.Rectangle{}, err
	}
	buf, err := imagebuf.LoadPNG(path)
	if err != nil {
		return nil, image.Rectangle{}, fmt.Errorf("reading portal screenshot: %w", err)
	}
	os.Remove(path)

	return buf, buf.Bounds(), nil
}

// waitForResponseURI blocks until the portal request at handle answers with
// a uri, the request is denied, or ctx is cancelled.
func waitForResponseURI(ctx context.Context, conn *dbus.Conn, handle dbus.ObjectPath) (string, error) {
	sigc := make(chan *dbus.Signal, 1)
	conn.Signal(sigc)
	defer conn.RemoveSignal(sigc)

	rule := fmt.Sprintf("type='signal',interface='org.freedesktop.portal.Request',member='Response',path='%s'", handle)
	if err := conn.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, rule).Err; err != nil {
		return "", err
	}
	defer conn.BusObject().Call("org.freedesktop.DBus.RemoveMatch", 0, rule)

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case sig, ok := <-sigc:
			if !ok {
				return "", fmt.Errorf("dbus signal channel closed")
			}
			if sig.Path != handle || sig.Name != responseSignal || len(sig.Body) < 2 {
				continue
			}
			code, _ := sig.Body[0].(uint32)
			if code != 0 {
				return "", fmt.Errorf("screenshot request denied (code %d)", code)
			}
			results, _ := sig.Body[1].(map[string]dbus.Variant)
			uriVar, ok := results["uri"]
			if !ok {
				return "", fmt.Errorf("screenshot response missing uri")
			}
			uri, _ := uriVar.Value().(string)
			return uri, nil
		}
	}
}

// fileURIToPath converts a file:// URI to a local path.
func fileURIToPath(uri string) (string, error) {
	if !strings.HasPrefix(uri, "file://") {
		return "", fmt.Errorf("unexpected screenshot uri %q", uri)
	}
	u, err := url.Parse(uri)
	if err != nil {
		return strings.TrimPrefix(uri, "file://"), nil
	}
	return u.Path, nil
}
