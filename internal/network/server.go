package network

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/glasspane/glasspane/internal/logger"
)

// Server accepts TCP connections and serves the line protocol on each.
// Connections are independent: each gets its own goroutine and its
// requests are handled strictly in arrival order. Requests from
// different connections interleave; the registry's own locking keeps
// that safe.
type Server struct {
	addr    string
	handler LineHandler

	listener net.Listener
	mu       sync.Mutex
	conns    map[net.Conn]struct{}
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	// OnConnect and OnDisconnect, when set, observe client lifecycle.
	OnConnect    func(addr string)
	OnDisconnect func(addr string)
}

// NewServer creates a server that will listen on addr
// (e.g. "0.0.0.0:8765").
func NewServer(addr string, handler LineHandler) *Server {
	return &Server{
		addr:    addr,
		handler: handler,
		conns:   make(map[net.Conn]struct{}),
		stop:    make(chan struct{}),
	}
}

// Start begins listening and accepting connections. It returns once
// the listener is bound; serving continues in the background until
// Stop is called or ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = listener
	logger.Infof("TCP transport listening on %s", listener.Addr())

	s.wg.Add(1)
	go s.acceptLoop()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop shuts down the listener and all open connections.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		if s.listener != nil {
			_ = s.listener.Close()
		}
		s.mu.Lock()
		for conn := range s.conns {
			_ = conn.Close()
		}
		s.mu.Unlock()
		s.wg.Wait()
	})
}

// Address returns the bound listen address, including the actual port
// when Start was given port 0.
func (s *Server) Address() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.stop:
				return
			default:
				logger.Errorf("Failed to accept connection: %v", err)
				continue
			}
		}

		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go s.serveConn(conn)
	}
}

func (s *Server) serveConn(conn net.Conn) {
	defer s.wg.Done()

	addr := conn.RemoteAddr().String()
	logger.Infof("Client connected: %s", addr)
	if s.OnConnect != nil {
		s.OnConnect(addr)
	}

	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		_ = conn.Close()
		logger.Infof("Client disconnected: %s", addr)
		if s.OnDisconnect != nil {
			s.OnDisconnect(addr)
		}
	}()

	ServeLines(conn, conn, s.handler)
}

// ServeLines reads request lines from r and writes one response line
// per request to w, until r is exhausted or w fails. Shared by the
// TCP and SSH transports.
func ServeLines(r io.Reader, w io.Writer, handler LineHandler) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), MaxLineBytes)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		resp := handler.HandleLine(line)
		if _, err := w.Write(append(resp, '\n')); err != nil {
			logger.Debugf("Failed to write response: %v", err)
			return
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Debugf("Connection read ended: %v", err)
	}
}
