// Package server wires the window registry, dispatcher, compositor
// and transports into one running process.
package server

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/glasspane/glasspane/internal/compositor"
	"github.com/glasspane/glasspane/internal/config"
	"github.com/glasspane/glasspane/internal/ipc"
	"github.com/glasspane/glasspane/internal/logger"
	"github.com/glasspane/glasspane/internal/network"
	"github.com/glasspane/glasspane/internal/surface"
)

// Server owns one registry and everything serving it: the TCP
// transport, the optional SSH transport, and the control socket.
type Server struct {
	cfg        *config.Config
	version    string
	registry   *surface.Registry
	compositor *compositor.Compositor
	dispatcher *Dispatcher

	tcp *network.Server
	ssh *network.SSHServer
	ctl *ipc.SocketServer

	extraSinks        []compositor.DisplaySink
	controlSocketPath string

	startedAt time.Time
	clients   atomic.Int64
	done      chan struct{}
	stopOnce  sync.Once

	// UI callbacks, all optional.
	OnClientConnected    func(addr string)
	OnClientDisconnected func(addr string)
}

// Option customizes a Server before Start.
type Option func(*Server)

// WithExtraSink tees presentations to an additional display sink (the
// status UI uses this to observe frames).
func WithExtraSink(sink compositor.DisplaySink) Option {
	return func(s *Server) {
		s.extraSinks = append(s.extraSinks, sink)
	}
}

// WithControlSocket overrides the control socket path, for tests.
func WithControlSocket(path string) Option {
	return func(s *Server) {
		s.controlSocketPath = path
	}
}

// New creates a server from configuration. Nothing listens until
// Start.
func New(cfg *config.Config, version string, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:     cfg,
		version: version,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	sink, err := s.buildSink()
	if err != nil {
		return nil, err
	}

	s.registry = surface.NewRegistry()
	s.compositor = compositor.New(s.registry, sink)
	s.dispatcher = NewDispatcher(s.registry, s.compositor)

	addr := fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.Port)
	s.tcp = network.NewServer(addr, s.dispatcher)
	s.tcp.OnConnect = s.clientConnected
	s.tcp.OnDisconnect = s.clientDisconnected

	if cfg.Server.SSHEnabled {
		sshAddr := fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.SSHPort)
		s.ssh = network.NewSSHServer(sshAddr, cfg.Server.SSHHostKeyPath, s.dispatcher)
		s.ssh.Whitelist = cfg.Server.SSHWhitelist
		s.ssh.WhitelistOnly = cfg.Server.SSHWhitelistOnly
		s.ssh.OnConnect = func(addr, fingerprint string) { s.clientConnected(addr) }
		s.ssh.OnDisconnect = s.clientDisconnected
	}

	if s.controlSocketPath != "" {
		s.ctl = ipc.NewSocketServerAt(s.controlSocketPath, s)
	} else {
		ctl, err := ipc.NewSocketServer(s)
		if err != nil {
			return nil, err
		}
		s.ctl = ctl
	}

	return s, nil
}

// Start brings up all listeners and presents the initial (empty)
// placeholder.
func (s *Server) Start(ctx context.Context) error {
	s.startedAt = time.Now()

	if err := s.compositor.Refresh(); err != nil {
		logger.Warnf("Initial presentation failed: %v", err)
	}

	if err := s.tcp.Start(ctx); err != nil {
		return err
	}
	if s.ssh != nil {
		if err := s.ssh.Start(ctx); err != nil {
			s.tcp.Stop()
			return err
		}
	}
	if err := s.ctl.Start(); err != nil {
		s.tcp.Stop()
		if s.ssh != nil {
			s.ssh.Stop()
		}
		return err
	}

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	logger.Info("Window server started", "addr", s.tcp.Address(), "ssh", s.ssh != nil)
	return nil
}

// Stop shuts everything down. Safe to call more than once.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		s.tcp.Stop()
		if s.ssh != nil {
			s.ssh.Stop()
		}
		s.ctl.Stop()
		close(s.done)
		logger.Info("Window server stopped")
	})
}

// Done is closed once the server has fully stopped.
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// Address returns the TCP transport's bound address.
func (s *Server) Address() string {
	return s.tcp.Address()
}

// Dispatcher exposes the request dispatcher for callback wiring.
func (s *Server) Dispatcher() *Dispatcher {
	return s.dispatcher
}

// Registry exposes the window registry.
func (s *Server) Registry() *surface.Registry {
	return s.registry
}

// HandleStatus implements ipc.CommandHandler.
func (s *Server) HandleStatus() (*ipc.StatusData, error) {
	transports := []string{"tcp"}
	if s.ssh != nil {
		transports = append(transports, "ssh")
	}
	return &ipc.StatusData{
		Version:         s.version,
		UptimeSeconds:   int64(time.Since(s.startedAt).Seconds()),
		WindowCount:     s.registry.Len(),
		FramesPresented: s.compositor.FramesPresented(),
		Transports:      transports,
		Clients:         int(s.clients.Load()),
	}, nil
}

// HandleStop implements ipc.CommandHandler. The control socket has
// already written the OK response when this runs; the shutdown still
// needs its own goroutine because a synchronous Stop would wait on
// the very control connection that delivered the command.
func (s *Server) HandleStop() error {
	go s.Stop()
	return nil
}

func (s *Server) clientConnected(addr string) {
	s.clients.Add(1)
	if s.OnClientConnected != nil {
		s.OnClientConnected(addr)
	}
}

func (s *Server) clientDisconnected(addr string) {
	s.clients.Add(-1)
	if s.OnClientDisconnected != nil {
		s.OnClientDisconnected(addr)
	}
}

func (s *Server) buildSink() (compositor.DisplaySink, error) {
	var sink compositor.DisplaySink
	switch s.cfg.Display.Sink {
	case "file":
		dir := s.cfg.Display.OutputDir
		if dir == "" {
			return nil, fmt.Errorf("display.output_dir is required for the file sink")
		}
		fs, err := compositor.NewFileSink(dir)
		if err != nil {
			return nil, err
		}
		sink = fs
	case "log", "":
		sink = compositor.LogSink{}
	default:
		return nil, fmt.Errorf("unknown display sink %q (expected \"file\" or \"log\")", s.cfg.Display.Sink)
	}

	if len(s.extraSinks) > 0 {
		sink = compositor.NewTeeSink(append([]compositor.DisplaySink{sink}, s.extraSinks...)...)
	}
	return sink, nil
}
