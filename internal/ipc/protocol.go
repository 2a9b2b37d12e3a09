// Package ipc implements the local control plane: a Unix socket the
// CLI uses to query and stop a running server. Frames are
// newline-delimited JSON, distinct from the window protocol.
package ipc

import (
	"encoding/json"
	"fmt"
)

// CommandType identifies a control command.
type CommandType string

const (
	CommandGetStatus CommandType = "GET_STATUS"
	CommandStop      CommandType = "STOP"
)

// Request is a control request from the CLI to the server.
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response is a control response.
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData is the data returned by GET_STATUS.
type StatusData struct {
	Version         string   `json:"version"`
	UptimeSeconds   int64    `json:"uptime_seconds"`
	WindowCount     int      `json:"window_count"`
	FramesPresented uint64   `json:"frames_presented"`
	Transports      []string `json:"transports"`
	Clients         int      `json:"clients"`
}

// NewOKResponse creates a successful response with optional data.
func NewOKResponse(data interface{}) (*Response, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		raw = b
	}
	return &Response{Status: "OK", Data: raw}, nil
}

// NewErrorResponse creates an error response with a message.
func NewErrorResponse(errMsg string) *Response {
	return &Response{Status: "ERROR", Error: errMsg}
}

// ParseRequest parses a control request from JSON bytes.
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes.
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// StatusData decodes the Data field of a GET_STATUS response.
func (r *Response) StatusData() (*StatusData, error) {
	if r.Status != "OK" {
		return nil, fmt.Errorf("server returned error: %s", r.Error)
	}
	var data StatusData
	if err := json.Unmarshal(r.Data, &data); err != nil {
		return nil, fmt.Errorf("invalid status data: %w", err)
	}
	return &data, nil
}
