package network

import (
	"bufio"
	"fmt"
	"net"
	"time"

	"github.com/glasspane/glasspane/internal/protocol"
)

// Client is a synchronous protocol client over TCP: one request out,
// one response back, in order. It is what a kernel-side backend (or
// the draw command, or a test) uses to drive the server.
type Client struct {
	conn    net.Conn
	scanner *bufio.Scanner
}

// Dial connects to a running server.
func Dial(addr string) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), MaxLineBytes)
	return &Client{conn: conn, scanner: scanner}, nil
}

// Send writes one request and reads its response envelope.
func (c *Client) Send(req protocol.Request) (*protocol.ResponseEnvelope, error) {
	data, err := protocol.EncodeRequest(req)
	if err != nil {
		return nil, err
	}
	return c.SendRaw(data)
}

// SendRaw writes one pre-encoded request line and reads its response.
// Used by tests exercising malformed input.
func (c *Client) SendRaw(line []byte) (*protocol.ResponseEnvelope, error) {
	if _, err := c.conn.Write(append(line, '\n')); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}
		return nil, fmt.Errorf("connection closed before response")
	}
	return protocol.DecodeResponse(c.scanner.Bytes())
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
