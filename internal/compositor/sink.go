package compositor

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glasspane/glasspane/internal/logger"
)

// LogSink logs each presentation. It is the default sink when no
// output directory is configured.
type LogSink struct{}

// Present implements DisplaySink.
func (LogSink) Present(frame Frame) error {
	if frame.IsPlaceholder() {
		logger.Info(frame.Placeholder)
		return nil
	}
	logger.Infof("Displaying window %d '%s' (%dx%d, %d bytes PNG)",
		frame.WindowID, frame.Title, frame.Width, frame.Height, len(frame.PNG))
	return nil
}

// FileSink writes the latest frame into a directory: frame.png holds
// the current image and frame.txt the current status line. A notebook
// or any file watcher polls the directory to mirror the display.
// Writes go through a temp file and rename so a reader never sees a
// torn PNG.
type FileSink struct {
	dir string
}

// NewFileSink creates the output directory if needed.
func NewFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &FileSink{dir: dir}, nil
}

// ImagePath returns the path of the presented image.
func (s *FileSink) ImagePath() string { return filepath.Join(s.dir, "frame.png") }

// StatusPath returns the path of the status sidecar.
func (s *FileSink) StatusPath() string { return filepath.Join(s.dir, "frame.txt") }

// Present implements DisplaySink.
func (s *FileSink) Present(frame Frame) error {
	if frame.IsPlaceholder() {
		// Stale images must not outlive the window they came from.
		if err := os.Remove(s.ImagePath()); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove stale frame: %w", err)
		}
		return s.writeAtomic(s.StatusPath(), []byte(frame.Placeholder+"\n"))
	}

	status := fmt.Sprintf("window %d %q %dx%d\n", frame.WindowID, frame.Title, frame.Width, frame.Height)
	if err := s.writeAtomic(s.ImagePath(), frame.PNG); err != nil {
		return err
	}
	return s.writeAtomic(s.StatusPath(), []byte(status))
}

func (s *FileSink) writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, ".frame-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// TeeSink presents each frame to every sink in order, returning the
// first error after all sinks were attempted.
type TeeSink struct {
	sinks []DisplaySink
}

// NewTeeSink builds a fan-out sink.
func NewTeeSink(sinks ...DisplaySink) *TeeSink {
	return &TeeSink{sinks: sinks}
}

// Present implements DisplaySink.
func (t *TeeSink) Present(frame Frame) error {
	var firstErr error
	for _, s := range t.sinks {
		if err := s.Present(frame); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// SinkFunc adapts a function to the DisplaySink interface.
type SinkFunc func(frame Frame) error

// Present implements DisplaySink.
func (f SinkFunc) Present(frame Frame) error { return f(frame) }
