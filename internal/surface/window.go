// Package surface implements the core window system state: windows,
// their framebuffers, and the registry that owns them.
package surface

// Window is one window surface: identity, immutable metadata, and the
// framebuffer backing its contents. Windows are created and removed
// only through a Registry.
type Window struct {
	ID     uint32
	Title  string
	Width  int
	Height int

	fb *PixelBuffer
}

func newWindow(id uint32, title string, width, height int) *Window {
	return &Window{
		ID:     id,
		Title:  title,
		Width:  width,
		Height: height,
		fb:     NewPixelBuffer(width, height),
	}
}

// Framebuffer returns the window's pixel buffer.
func (w *Window) Framebuffer() *PixelBuffer { return w.fb }

// Info returns the window's descriptor as reported by GetWindows.
// Positions are not tracked, so x and y are always 0.
func (w *Window) Info() WindowInfo {
	return WindowInfo{
		ID:     w.ID,
		Title:  w.Title,
		Width:  w.Width,
		Height: w.Height,
	}
}

// WindowInfo describes a live window on the wire.
type WindowInfo struct {
	ID     uint32 `json:"id"`
	Title  string `json:"title"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}
