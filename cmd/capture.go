package cmd

import (
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/snaptrace/internal/annotate"
	"github.com/fakeyudi/snaptrace/internal/capture"
)

var (
	captureSession     string
	captureNote        string
	captureInput       string
	captureInteractive bool
	captureRects       []string
	captureLabels      []string
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Capture the screen and commit it as evidence",
	Long: `Capture grabs a screenshot (or reads one with --input), applies any
--rect and --label annotations through the overlay state machine, flattens
the result, and persists it as evidence in the target session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(nil)
		if err != nil {
			return err
		}
		target, err := resolveSession(store, captureSession)
		if err != nil {
			return err
		}

		var capturer capture.Capturer
		if captureInput != "" {
			capturer = &capture.FileCapturer{Path: captureInput}
		} else {
			capturer = &capture.PortalCapturer{Interactive: captureInteractive}
		}

		img, _, err := capturer.Capture(cmd.Context())
		if err != nil {
			return fmt.Errorf("capturing screen: %w", err)
		}

		state := annotate.New(img, cfg.MinDragSize)
		if err := applyAnnotations(state, captureRects, captureLabels); err != nil {
			return err
		}

		flat := annotate.Flatten(state, cfg.Style())
		ev, err := store.AddEvidence(target.ID, flat, captureNote)
		if err != nil {
			return err
		}

		cmd.Printf("Evidence %s saved to session %q (%s).\n", ev.ID, target.Name, ev.Filename)
		return nil
	},
}

// applyAnnotations drives the drawing state machine with the pointer and
// text signals the flags describe.
func applyAnnotations(state *annotate.State, rects, labels []string) error {
	state.SelectTool(annotate.ToolRectangle)
	for _, spec := range rects {
		origin, size, err := parseRect(spec)
		if err != nil {
			return err
		}
		state.PointerDown(origin)
		state.PointerUp(origin.Add(size))
	}

	if len(labels) > 0 {
		state.SelectTool(annotate.ToolText)
		for _, spec := range labels {
			at, text, err := parseLabel(spec)
			if err != nil {
				return err
			}
			state.PointerDown(at)
			state.Input(text)
			state.CommitText()
		}
	}
	return nil
}

// parseRect parses "x,y,width,height".
func parseRect(spec string) (origin, size image.Point, err error) {
	parts := strings.Split(spec, ",")
	if len(parts) != 4 {
		return image.Point{}, image.Point{}, fmt.Errorf("invalid --rect %q (want x,y,width,height)", spec)
	}
	vals := make([]int, 4)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return image.Point{}, image.Point{}, fmt.Errorf("invalid --rect %q: %w", spec, err)
		}
		vals[i] = v
	}
	return image.Pt(vals[0], vals[1]), image.Pt(vals[2], vals[3]), nil
}

// parseLabel parses "x,y:text".
func parseLabel(spec string) (at image.Point, text string, err error) {
	coords, text, ok := strings.Cut(spec, ":")
	if !ok {
		return image.Point{}, "", fmt.Errorf("invalid --label %q (want x,y:text)", spec)
	}
	xs, ys, ok := strings.Cut(coords, ",")
	if !ok {
		return image.Point{}, "", fmt.Errorf("invalid --label %q (want x,y:text)", spec)
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return image.Point{}, "", fmt.Errorf("invalid --label %q: %w", spec, err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return image.Point{}, "", fmt.Errorf("invalid --label %q: %w", spec, err)
	}
	return image.Pt(x, y), text, nil
}

func init() {
	captureCmd.Flags().StringVarP(&captureSession, "session", "s", "", "target session id (default: newest session)")
	captureCmd.Flags().StringVarP(&captureNote, "note", "n", "", "note to attach to the evidence")
	captureCmd.Flags().StringVarP(&captureInput, "input", "i", "", "annotate an existing PNG instead of grabbing the screen")
	captureCmd.Flags().BoolVar(&captureInteractive, "interactive", false, "let the portal show its region picker")
	captureCmd.Flags().StringArrayVar(&captureRects, "rect", nil, "rectangle annotation as x,y,width,height (repeatable)")
	captureCmd.Flags().StringArrayVar(&captureLabels, "label", nil, "text annotation as x,y:text (repeatable)")
	rootCmd.AddCommand(captureCmd)
}
