package server

import (
	"errors"

	"github.com/glasspane/glasspane/internal/compositor"
	"github.com/glasspane/glasspane/internal/logger"
	"github.com/glasspane/glasspane/internal/protocol"
	"github.com/glasspane/glasspane/internal/surface"
)

// Dispatcher routes decoded requests to their handlers. It holds no
// per-request state; everything it touches lives in the shared
// registry. Every request, including a malformed one, yields exactly
// one response envelope, and no failure is fatal to the connection.
type Dispatcher struct {
	registry   *surface.Registry
	compositor *compositor.Compositor

	// OnMouseEvent and OnKeyEvent, when set, receive acknowledged
	// input events for routing to interested parties. The default is
	// to log and ack.
	OnMouseEvent func(ev protocol.MouseEvent)
	OnKeyEvent   func(ev protocol.KeyEvent)

	// OnRequest, when set, observes every handled request (for the
	// status UI). errMsg is empty on success.
	OnRequest func(reqType string, errMsg string)
}

// NewDispatcher creates a dispatcher over the given registry and
// compositor.
func NewDispatcher(registry *surface.Registry, comp *compositor.Compositor) *Dispatcher {
	return &Dispatcher{registry: registry, compositor: comp}
}

// HandleLine decodes one request envelope and returns the encoded
// response envelope. Unparsable JSON is answered without reaching a
// handler.
func (d *Dispatcher) HandleLine(line []byte) []byte {
	req, err := protocol.Decode(line)
	if err != nil {
		var unknown *protocol.UnknownTypeError
		switch {
		case errors.Is(err, protocol.ErrInvalidJSON):
			logger.Debug("Received non-JSON message")
		case errors.As(err, &unknown):
			logger.Warnf("Unknown request type: %s", unknown.Type)
		default:
			logger.Warnf("Failed to decode request: %v", err)
		}
		d.observe("", err.Error())
		return mustMarshal(protocol.NewError(err.Error()))
	}

	resp := d.Handle(req)
	if resp.Type == protocol.TypeError {
		d.observe(req.RequestType(), resp.Payload.(protocol.ErrorPayload).Message)
	} else {
		d.observe(req.RequestType(), "")
	}
	return mustMarshal(resp)
}

// Handle runs the handler for a typed request and returns its
// response envelope.
func (d *Dispatcher) Handle(req protocol.Request) protocol.Response {
	switch r := req.(type) {
	case protocol.CreateWindow:
		return d.handleCreateWindow(r)
	case protocol.DrawToSurface:
		return d.handleDrawToSurface(r)
	case protocol.CloseWindow:
		return d.handleCloseWindow(r)
	case protocol.GetWindows:
		return protocol.NewWindows(d.registry.List())
	case protocol.MouseEvent:
		return d.handleMouseEvent(r)
	case protocol.KeyEvent:
		return d.handleKeyEvent(r)
	default:
		// Decode only produces the types above.
		return protocol.NewErrorf("Unknown request type: %s", req.RequestType())
	}
}

func (d *Dispatcher) handleCreateWindow(req protocol.CreateWindow) protocol.Response {
	w, err := d.registry.Create(req.Title, req.Width, req.Height)
	if err != nil {
		return protocol.NewError(err.Error())
	}
	logger.Infof("Created window %d - '%s' (%dx%d)", w.ID, w.Title, w.Width, w.Height)
	return protocol.NewSuccess(w.ID)
}

func (d *Dispatcher) handleDrawToSurface(req protocol.DrawToSurface) protocol.Response {
	w, err := d.registry.Get(req.WindowID)
	if err != nil {
		return protocol.NewError(err.Error())
	}
	pix, err := req.DecodePixels()
	if err != nil {
		return protocol.NewError(err.Error())
	}
	if err := w.Framebuffer().Blit(req.X, req.Y, req.Width, req.Height, pix); err != nil {
		return protocol.NewError(err.Error())
	}
	logger.Debugf("Drew %dx%d at (%d,%d) to window %d", req.Width, req.Height, req.X, req.Y, w.ID)
	d.refresh()
	return protocol.NewSuccess(w.ID)
}

func (d *Dispatcher) handleCloseWindow(req protocol.CloseWindow) protocol.Response {
	if err := d.registry.Remove(req.WindowID); err != nil {
		return protocol.NewError(err.Error())
	}
	logger.Infof("Closed window %d", req.WindowID)
	d.refresh()
	return protocol.NewSuccess(req.WindowID)
}

func (d *Dispatcher) handleMouseEvent(req protocol.MouseEvent) protocol.Response {
	if _, err := d.registry.Get(req.WindowID); err != nil {
		return protocol.NewError(err.Error())
	}
	logger.Debugf("Mouse event %s on window %d at (%d,%d) button %d",
		req.EventType, req.WindowID, req.X, req.Y, req.Button)
	if d.OnMouseEvent != nil {
		d.OnMouseEvent(req)
	}
	return protocol.NewSuccess(req.WindowID)
}

func (d *Dispatcher) handleKeyEvent(req protocol.KeyEvent) protocol.Response {
	if _, err := d.registry.Get(req.WindowID); err != nil {
		return protocol.NewError(err.Error())
	}
	logger.Debugf("Key event %s on window %d keycode %d",
		req.EventType, req.WindowID, req.Keycode)
	if d.OnKeyEvent != nil {
		d.OnKeyEvent(req)
	}
	return protocol.NewSuccess(req.WindowID)
}

// refresh re-runs the compositor after a mutation. Sink failures are
// logged, not surfaced to the client: the mutation itself succeeded.
func (d *Dispatcher) refresh() {
	if err := d.compositor.Refresh(); err != nil {
		logger.Errorf("Compositor refresh failed: %v", err)
	}
}

func (d *Dispatcher) observe(reqType, errMsg string) {
	if d.OnRequest != nil {
		d.OnRequest(reqType, errMsg)
	}
}

func mustMarshal(resp protocol.Response) []byte {
	data, err := resp.Marshal()
	if err != nil {
		logger.Errorf("Failed to marshal response: %v", err)
		return []byte(`{"type":"Error","payload":{"message":"internal error"}}`)
	}
	return data
}
