package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/glasspane/glasspane/internal/surface"
)

// EncodeRequest wraps a typed request in its envelope. Used by
// clients; the server side decodes with Decode.
func EncodeRequest(req Request) ([]byte, error) {
	env := struct {
		Type    string  `json:"type"`
		Payload Request `json:"payload"`
	}{Type: req.RequestType(), Payload: req}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s request: %w", req.RequestType(), err)
	}
	return data, nil
}

// ResponseEnvelope is a response with its payload left raw, for
// clients that inspect the type tag before decoding.
type ResponseEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// DecodeResponse parses a response envelope.
func DecodeResponse(data []byte) (*ResponseEnvelope, error) {
	var env ResponseEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &env, nil
}

// Success decodes the payload of a Success response.
func (r *ResponseEnvelope) Success() (SuccessPayload, error) {
	var p SuccessPayload
	if r.Type != TypeSuccess {
		return p, fmt.Errorf("expected %s response, got %s: %s", TypeSuccess, r.Type, r.message())
	}
	if err := json.Unmarshal(r.Payload, &p); err != nil {
		return p, fmt.Errorf("invalid Success payload: %w", err)
	}
	return p, nil
}

// Windows decodes the payload of a Windows response.
func (r *ResponseEnvelope) Windows() ([]surface.WindowInfo, error) {
	if r.Type != TypeWindows {
		return nil, fmt.Errorf("expected %s response, got %s: %s", TypeWindows, r.Type, r.message())
	}
	var infos []surface.WindowInfo
	if err := json.Unmarshal(r.Payload, &infos); err != nil {
		return nil, fmt.Errorf("invalid Windows payload: %w", err)
	}
	return infos, nil
}

// ErrorMessage returns the message of an Error response, or false
// when the response is not an error.
func (r *ResponseEnvelope) ErrorMessage() (string, bool) {
	if r.Type != TypeError {
		return "", false
	}
	return r.message(), true
}

func (r *ResponseEnvelope) message() string {
	var p ErrorPayload
	if err := json.Unmarshal(r.Payload, &p); err != nil {
		return string(r.Payload)
	}
	return p.Message
}
