package export

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/fakeyudi/snaptrace/internal/imagebuf"
	"github.com/fakeyudi/snaptrace/internal/session"
)

// captionHeight is the white band rendered under each evidence image for the
// note and capture time.
const captionHeight = 48

// PDFRenderer writes the session as a PDF, one page per evidence. Each page
// is composed as an image with a caption band, then the pages are assembled
// with pdfcpu.
type PDFRenderer struct{}

// Render writes <name>_<millis>.pdf under outDir.
func (r *PDFRenderer) Render(s *session.Session, src Reader, outDir string) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}
	if len(s.Evidence) == 0 {
		return "", fmt.Errorf("session %q has no evidence to export", s.Name)
	}

	pageDir, err := os.MkdirTemp("", "snaptrace-export-*")
	if err != nil {
		return "", fmt.Errorf("creating page directory: %w", err)
	}
	defer os.RemoveAll(pageDir)

	var pageFiles []string
	for i, ev := range s.Evidence {
		data, err := src.ReadImage(s.ID, ev.ID)
		if err != nil {
			// Skip holes the same way the Markdown report does.
			continue
		}
		page, err := composePage(data, &ev)
		if err != nil {
			return "", fmt.Errorf("composing page %d: %w", i+1, err)
		}
		pagePath := filepath.Join(pageDir, fmt.Sprintf("page-%04d.png", i+1))
		f, err := os.Create(pagePath)
		if err != nil {
			return "", fmt.Errorf("writing page %d: %w", i+1, err)
		}
		if err := page.EncodePNG(f); err != nil {
			f.Close()
			return "", fmt.Errorf("writing page %d: %w", i+1, err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("writing page %d: %w", i+1, err)
		}
		pageFiles = append(pageFiles, pagePath)
	}
	if len(pageFiles) == 0 {
		return "", fmt.Errorf("session %q has no readable evidence images", s.Name)
	}

	docPath := filepath.Join(outDir, docBasename(s)+".pdf")
	imp, err := api.Import("form:A4, pos:c, scalefactor:0.9 rel", types.POINTS)
	if err != nil {
		return "", fmt.Errorf("building import config: %w", err)
	}
	if err := api.ImportImagesFile(pageFiles, docPath, imp, nil); err != nil {
		return "", fmt.Errorf("assembling pdf: %w", err)
	}
	return docPath, nil
}

// composePage stacks the evidence image above a caption band carrying the
// capture time and note.
func composePage(pngData []byte, ev *session.Evidence) (*imagebuf.Buffer, error) {
	img, err := imagebuf.DecodePNG(bytes.NewReader(pngData))
	if err != nil {
		return nil, err
	}

	page := imagebuf.New(img.Width(), img.Height()+captionHeight)
	page.Fill(color.White)
	draw.Draw(page.RGBA(), image.Rect(0, 0, img.Width(), img.Height()), img.RGBA(), image.Point{}, draw.Src)

	caption := "Captured: " + displayTime(ev.Timestamp)
	drawCaption(page, img.Height()+18, caption)
	if ev.Note != "" {
		drawCaption(page, img.Height()+36, "Note: "+ev.Note)
	}
	return page, nil
}

// drawCaption renders one line of caption text with its baseline at y.
func drawCaption(page *imagebuf.Buffer, y int, text string) {
	d := &font.Drawer{
		Dst:  page.RGBA(),
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(12, y),
	}
	d.DrawString(text)
}
