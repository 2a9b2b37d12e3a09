package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// Client talks to a running server's control socket.
type Client struct {
	conn    net.Conn
	scanner *bufio.Scanner
}

// Connect dials the default per-user control socket.
func Connect() (*Client, error) {
	socketPath, err := SocketPath()
	if err != nil {
		return nil, err
	}
	return ConnectTo(socketPath)
}

// ConnectTo dials an explicit control socket path.
func ConnectTo(socketPath string) (*Client, error) {
	conn, err := net.DialTimeout("unix", socketPath, 2*time.Second)
	if err != nil {
		return nil, fmt.Errorf("is the server running? failed to connect to %s: %w", socketPath, err)
	}
	return &Client{conn: conn, scanner: bufio.NewScanner(conn)}, nil
}

// Send issues one control command and reads its response.
func (c *Client) Send(command CommandType, payload interface{}) (*Response, error) {
	req := Request{Command: command}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		req.Payload = raw
	}
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	if _, err := c.conn.Write(append(data, '\n')); err != nil {
		return nil, fmt.Errorf("failed to send command: %w", err)
	}
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}
		return nil, fmt.Errorf("connection closed before response")
	}
	var resp Response
	if err := json.Unmarshal(c.scanner.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &resp, nil
}

// Status fetches the server status.
func (c *Client) Status() (*StatusData, error) {
	resp, err := c.Send(CommandGetStatus, nil)
	if err != nil {
		return nil, err
	}
	return resp.StatusData()
}

// Stop asks the server to shut down.
func (c *Client) Stop() error {
	resp, err := c.Send(CommandStop, nil)
	if err != nil {
		return err
	}
	if resp.Status != "OK" {
		return fmt.Errorf("server returned error: %s", resp.Error)
	}
	return nil
}

// Close closes the control connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
