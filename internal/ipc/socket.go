package ipc

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"os/user"
	"path/filepath"
	"sync"

	"github.com/glasspane/glasspane/internal/logger"
)

// CommandHandler is implemented by the server to answer control
// commands.
type CommandHandler interface {
	HandleStatus() (*StatusData, error)
	HandleStop() error
}

// SocketServer serves control commands on a per-user Unix socket.
type SocketServer struct {
	mu         sync.Mutex
	listener   net.Listener
	socketPath string
	handler    CommandHandler
	wg         sync.WaitGroup
	cancel     context.CancelFunc
	running    bool

	connMu sync.Mutex
	conns  map[net.Conn]struct{}
}

// NewSocketServer creates a control server on the default per-user
// socket path.
func NewSocketServer(handler CommandHandler) (*SocketServer, error) {
	socketPath, err := SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get socket path: %w", err)
	}
	return NewSocketServerAt(socketPath, handler), nil
}

// NewSocketServerAt creates a control server on an explicit socket
// path, mainly for tests.
func NewSocketServerAt(socketPath string, handler CommandHandler) *SocketServer {
	return &SocketServer{
		socketPath: socketPath,
		handler:    handler,
		conns:      make(map[net.Conn]struct{}),
	}
}

// Start begins accepting control connections.
func (s *SocketServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	if err := os.RemoveAll(s.socketPath); err != nil {
		return fmt.Errorf("failed to remove existing socket: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0o755); err != nil {
		return fmt.Errorf("failed to create socket directory: %w", err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create socket listener: %w", err)
	}
	if err := os.Chmod(s.socketPath, 0o600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.listener = listener
	s.running = true

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go s.acceptConnections(ctx)

	logger.Infof("Control socket listening at %s", s.socketPath)
	return nil
}

// Stop stops the control server and removes the socket file.
func (s *SocketServer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false
	if s.cancel != nil {
		s.cancel()
	}
	if s.listener != nil {
		s.listener.Close()
	}
	s.connMu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.connMu.Unlock()
	s.wg.Wait()
	os.RemoveAll(s.socketPath)
	logger.Info("Control socket stopped")
}

func (s *SocketServer) acceptConnections(ctx context.Context) {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				logger.Errorf("Failed to accept control connection: %v", err)
				continue
			}
		}
		s.wg.Add(1)
		go s.handleConnection(ctx, conn)
	}
}

func (s *SocketServer) handleConnection(ctx context.Context, conn net.Conn) {
	defer s.wg.Done()

	s.connMu.Lock()
	s.conns[conn] = struct{}{}
	s.connMu.Unlock()
	defer func() {
		s.connMu.Lock()
		delete(s.conns, conn)
		s.connMu.Unlock()
		conn.Close()
	}()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		resp, stopping := s.handleLine(scanner.Bytes())
		data, err := resp.Marshal()
		if err != nil {
			logger.Errorf("Failed to marshal control response: %v", err)
			return
		}
		if _, err := conn.Write(append(data, '\n')); err != nil {
			logger.Debugf("Failed to send control response: %v", err)
			return
		}
		if stopping {
			// The response is already on the wire; only now may the
			// shutdown begin, so the caller never loses the OK line.
			if err := s.handler.HandleStop(); err != nil {
				logger.Errorf("Stop handler failed: %v", err)
			}
			return
		}
	}
}

// handleLine answers one control command. The bool result marks a
// STOP command, whose handler runs after the response is written.
func (s *SocketServer) handleLine(line []byte) (*Response, bool) {
	req, err := ParseRequest(line)
	if err != nil {
		return NewErrorResponse(err.Error()), false
	}

	switch req.Command {
	case CommandGetStatus:
		data, err := s.handler.HandleStatus()
		if err != nil {
			return NewErrorResponse(err.Error()), false
		}
		resp, err := NewOKResponse(data)
		if err != nil {
			return NewErrorResponse(err.Error()), false
		}
		return resp, false

	case CommandStop:
		resp, _ := NewOKResponse(nil)
		return resp, true

	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command)), false
	}
}

// SocketPath returns the per-user control socket path.
func SocketPath() (string, error) {
	currentUser, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("failed to get current user: %w", err)
	}
	return filepath.Join("/tmp", fmt.Sprintf("glasspane-%s.sock", currentUser.Username)), nil
}
