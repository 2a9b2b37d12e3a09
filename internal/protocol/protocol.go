// Package protocol defines the JSON wire envelopes exchanged between
// a kernel-side client and the window server, and the typed request
// variants decoded from them.
//
// Every message is a single UTF-8 JSON object:
//
//	Request:  {"type": <string>, "payload": <object>}
//	Response: {"type": "Success"|"Error"|"Windows", "payload": <object>}
//
// Requests are decoded once at the boundary into one of the typed
// payload structs below; anything not matching a known tag is
// rejected.
package protocol

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/glasspane/glasspane/internal/surface"
)

// Request type tags.
const (
	TypeCreateWindow  = "CreateWindow"
	TypeDrawToSurface = "DrawToSurface"
	TypeCloseWindow   = "CloseWindow"
	TypeGetWindows    = "GetWindows"
	TypeMouseEvent    = "MouseEvent"
	TypeKeyEvent      = "KeyEvent"
)

// Response type tags.
const (
	TypeSuccess = "Success"
	TypeError   = "Error"
	TypeWindows = "Windows"
)

// ErrInvalidJSON is returned by Decode when the envelope itself is not
// parsable JSON. Its message is sent to the client verbatim.
var ErrInvalidJSON = errors.New("Invalid JSON")

// UnknownTypeError is returned by Decode for a well-formed envelope
// whose type tag is not recognized.
type UnknownTypeError struct {
	Type string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("Unknown request type: %s", e.Type)
}

// Request is the tagged variant decoded from a request envelope.
type Request interface {
	RequestType() string
}

// CreateWindow requests a new window surface.
type CreateWindow struct {
	Title  string `json:"title"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func (CreateWindow) RequestType() string { return TypeCreateWindow }

// DrawToSurface requests a pixel blit into an existing window.
// Pixels is standard base64 and must decode to Width*Height*4 RGBA
// bytes, row-major, top-left origin.
type DrawToSurface struct {
	WindowID uint32 `json:"window_id"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Pixels   string `json:"pixels"`
}

func (DrawToSurface) RequestType() string { return TypeDrawToSurface }

// DecodePixels decodes the base64 pixel payload.
func (d DrawToSurface) DecodePixels() ([]byte, error) {
	pix, err := base64.StdEncoding.DecodeString(d.Pixels)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 pixel data: %w", err)
	}
	return pix, nil
}

// CloseWindow requests destruction of a window.
type CloseWindow struct {
	WindowID uint32 `json:"window_id"`
}

func (CloseWindow) RequestType() string { return TypeCloseWindow }

// GetWindows requests descriptors for all live windows.
type GetWindows struct{}

func (GetWindows) RequestType() string { return TypeGetWindows }

// MouseEvent reports a pointer event targeted at a window.
type MouseEvent struct {
	WindowID  uint32 `json:"window_id"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Button    int    `json:"button"`
	EventType string `json:"event_type"` // MouseDown, MouseUp, MouseMove, Scroll
}

func (MouseEvent) RequestType() string { return TypeMouseEvent }

// KeyEvent reports a keyboard event targeted at a window.
type KeyEvent struct {
	WindowID  uint32 `json:"window_id"`
	Keycode   int    `json:"keycode"`
	EventType string `json:"event_type"` // KeyDown, KeyUp
}

func (KeyEvent) RequestType() string { return TypeKeyEvent }

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Decode parses a request envelope and its payload into a typed
// request. Unparsable JSON yields ErrInvalidJSON; an unrecognized type
// tag yields *UnknownTypeError; a payload that does not match its
// type's shape yields a descriptive decode error.
func Decode(data []byte) (Request, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, ErrInvalidJSON
	}

	switch env.Type {
	case TypeCreateWindow:
		var req CreateWindow
		return req, decodePayload(env, &req)
	case TypeDrawToSurface:
		var req DrawToSurface
		return req, decodePayload(env, &req)
	case TypeCloseWindow:
		var req CloseWindow
		return req, decodePayload(env, &req)
	case TypeGetWindows:
		// Payload is absent or ignored.
		return GetWindows{}, nil
	case TypeMouseEvent:
		var req MouseEvent
		return req, decodePayload(env, &req)
	case TypeKeyEvent:
		var req KeyEvent
		return req, decodePayload(env, &req)
	default:
		return nil, &UnknownTypeError{Type: env.Type}
	}
}

func decodePayload(env envelope, dst Request) error {
	if len(env.Payload) == 0 {
		return fmt.Errorf("missing payload for %s request", env.Type)
	}
	if err := json.Unmarshal(env.Payload, dst); err != nil {
		return fmt.Errorf("invalid %s payload: %w", env.Type, err)
	}
	return nil
}

// Response is a response envelope. Payload is marshaled as-is.
type Response struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// SuccessPayload acknowledges an operation on one window.
type SuccessPayload struct {
	WindowID uint32 `json:"window_id"`
}

// ErrorPayload carries a human-readable failure message.
type ErrorPayload struct {
	Message string `json:"message"`
}

// NewSuccess builds a Success response for the given window.
func NewSuccess(windowID uint32) Response {
	return Response{Type: TypeSuccess, Payload: SuccessPayload{WindowID: windowID}}
}

// NewWindows builds a Windows response carrying the descriptor list.
func NewWindows(infos []surface.WindowInfo) Response {
	if infos == nil {
		infos = []surface.WindowInfo{}
	}
	return Response{Type: TypeWindows, Payload: infos}
}

// NewError builds an Error response with the given message.
func NewError(message string) Response {
	return Response{Type: TypeError, Payload: ErrorPayload{Message: message}}
}

// NewErrorf builds an Error response with a formatted message.
func NewErrorf(format string, args ...any) Response {
	return NewError(fmt.Sprintf(format, args...))
}

// Marshal encodes the response envelope as JSON.
func (r Response) Marshal() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s response: %w", r.Type, err)
	}
	return data, nil
}

// EncodePixels is the inverse of DrawToSurface.DecodePixels, used by
// clients building draw requests.
func EncodePixels(pix []byte) string {
	return base64.StdEncoding.EncodeToString(pix)
}
