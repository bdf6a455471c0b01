// Package export renders persisted sessions into shareable documents. It
// consumes the store's read surface only: a session snapshot plus image
// bytes per evidence. It never writes session state.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/fakeyudi/snaptrace/internal/session"
)

// Reader is the slice of the store the exporter is allowed to touch.
type Reader interface {
	ReadImage(sessionID, evidenceID string) ([]byte, error)
}

// Renderer writes one session as a document under outDir and returns the
// document path.
type Renderer interface {
	Render(s *session.Session, src Reader, outDir string) (string, error)
}

// ForFormat maps a config/flag format name to a renderer.
func ForFormat(format string) (Renderer, error) {
	switch strings.ToLower(format) {
	case "markdown", "md":
		return &MarkdownRenderer{}, nil
	case "pdf":
		return &PDFRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown export format %q (want markdown or pdf)", format)
	}
}

// docBasename builds "<sanitized-session-name>_<unix-millis>" so repeated
// exports never clobber each other.
func docBasename(s *session.Session) string {
	return sanitizeFilename(s.Name) + "_" + fmt.Sprintf("%d", time.Now().UnixMilli())
}

// sanitizeFilename replaces anything outside [a-zA-Z0-9.-] with underscores.
func sanitizeFilename(name string) string {
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

// displayTime formats timestamps for document bodies.
func displayTime(t session.Timestamp) string {
	return t.Time().UTC().Format("2006-01-02 15:04:05")
}
