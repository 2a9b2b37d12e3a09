// Package compositor selects which window surface is presented after
// each mutation and hands the encoded result to a display sink.
package compositor

import (
	"bytes"
	"fmt"
	"image/png"
	"sync/atomic"

	"github.com/glasspane/glasspane/internal/logger"
	"github.com/glasspane/glasspane/internal/surface"
)

// Placeholder texts presented when no framebuffer qualifies.
const (
	PlaceholderNoWindows = "No windows to display."
	PlaceholderNotDrawn  = "Windows created, but no drawing operations yet."
)

// Frame is one presentation: either an encoded PNG of a window's
// framebuffer, or a placeholder text when nothing qualifies for
// display. Exactly one of PNG and Placeholder is set.
type Frame struct {
	PNG      []byte
	WindowID uint32
	Title    string
	Width    int
	Height   int

	Placeholder string
}

// IsPlaceholder reports whether the frame carries no image.
func (f Frame) IsPlaceholder() bool { return f.PNG == nil }

// DisplaySink receives each presented frame. Implementations must not
// retain the PNG slice past the call.
type DisplaySink interface {
	Present(frame Frame) error
}

// Compositor implements the single-surface presentation policy: the
// first live window in insertion order that has been drawn to is
// encoded and presented, replacing whatever was shown before. True
// multi-window compositing is out of scope.
type Compositor struct {
	registry *surface.Registry
	sink     DisplaySink

	presented atomic.Uint64
}

// New creates a compositor presenting to the given sink.
func New(registry *surface.Registry, sink DisplaySink) *Compositor {
	return &Compositor{registry: registry, sink: sink}
}

// Refresh re-evaluates the selection policy and presents the result.
// Called after every mutating operation and once at startup.
func (c *Compositor) Refresh() error {
	frame, err := c.compose()
	if err != nil {
		return err
	}
	if err := c.sink.Present(frame); err != nil {
		return fmt.Errorf("display sink failed: %w", err)
	}
	c.presented.Add(1)
	if frame.IsPlaceholder() {
		logger.Debug("Presented placeholder", "text", frame.Placeholder)
	} else {
		logger.Debug("Presented frame",
			"window", frame.WindowID, "title", frame.Title,
			"size", fmt.Sprintf("%dx%d", frame.Width, frame.Height),
			"bytes", len(frame.PNG))
	}
	return nil
}

// FramesPresented returns how many frames (including placeholders)
// have been handed to the sink.
func (c *Compositor) FramesPresented() uint64 {
	return c.presented.Load()
}

func (c *Compositor) compose() (Frame, error) {
	if c.registry.Len() == 0 {
		return Frame{Placeholder: PlaceholderNoWindows}, nil
	}

	w, ok := c.registry.FirstDrawn()
	if !ok {
		return Frame{Placeholder: PlaceholderNotDrawn}, nil
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, w.Framebuffer().Image()); err != nil {
		return Frame{}, fmt.Errorf("failed to encode window %d: %w", w.ID, err)
	}
	return Frame{
		PNG:      buf.Bytes(),
		WindowID: w.ID,
		Title:    w.Title,
		Width:    w.Width,
		Height:   w.Height,
	}, nil
}
