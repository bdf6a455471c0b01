package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fakeyudi/snaptrace/internal/session"
)

// MarkdownRenderer writes the session as a Markdown report with the evidence
// images copied into a sibling assets directory.
type MarkdownRenderer struct{}

// Render writes <name>_<millis>.md plus <name>_<millis>_files/ under outDir.
func (r *MarkdownRenderer) Render(s *session.Session, src Reader, outDir string) (string, error) {
	base := docBasename(s)
	assetDir := filepath.Join(outDir, base+"_files")
	if err := os.MkdirAll(assetDir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", s.Name)
	fmt.Fprintf(&sb, "- Session ID: %s\n", s.ID)
	fmt.Fprintf(&sb, "- Created: %s\n", displayTime(s.CreatedAt))
	fmt.Fprintf(&sb, "- Total screenshots: %d\n\n", len(s.Evidence))
	sb.WriteString("---\n\n")

	for i, ev := range s.Evidence {
		fmt.Fprintf(&sb, "## Screenshot #%d\n\n", i+1)
		fmt.Fprintf(&sb, "_Captured: %s_\n\n", displayTime(ev.Timestamp))
		if ev.Note != "" {
			fmt.Fprintf(&sb, "Note: %s\n\n", ev.Note)
		}

		data, err := src.ReadImage(s.ID, ev.ID)
		if err != nil {
			// Keep exporting; a hole in the report beats no report.
			fmt.Fprintf(&sb, "_[Image not found: %s]_\n\n", ev.Filename)
			continue
		}
		assetPath := filepath.Join(assetDir, ev.Filename)
		if err := os.WriteFile(assetPath, data, 0o644); err != nil {
			return "", fmt.Errorf("copying evidence image: %w", err)
		}
		fmt.Fprintf(&sb, "![Screenshot %d](%s/%s)\n\n", i+1, base+"_files", ev.Filename)
	}

	docPath := filepath.Join(outDir, base+".md")
	if err := os.WriteFile(docPath, []byte(sb.String()), 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return docPath, nil
}
