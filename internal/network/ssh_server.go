package network

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	gossh "golang.org/x/crypto/ssh"

	"github.com/glasspane/glasspane/internal/logger"
)

// SSHServer serves the same line protocol over SSH sessions. The
// client opens a session and speaks newline-delimited JSON on
// stdin/stdout, so `ssh host "cat"` style plumbing works unchanged.
// Authentication is by public key, optionally restricted to a
// whitelist of SHA256 fingerprints.
type SSHServer struct {
	addr        string
	hostKeyPath string
	handler     LineHandler

	// Whitelist holds allowed key fingerprints
	// (gossh.FingerprintSHA256 form). When WhitelistOnly is false an
	// empty whitelist admits any key.
	Whitelist     []string
	WhitelistOnly bool

	OnConnect    func(addr, fingerprint string)
	OnDisconnect func(addr string)

	sshServer *ssh.Server
	stop      chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// NewSSHServer creates an SSH transport bound to addr with the host
// key at hostKeyPath (generated on first start if absent).
func NewSSHServer(addr, hostKeyPath string, handler LineHandler) *SSHServer {
	return &SSHServer{
		addr:        addr,
		hostKeyPath: hostKeyPath,
		handler:     handler,
		stop:        make(chan struct{}),
	}
}

// Start begins listening for SSH connections.
func (s *SSHServer) Start(ctx context.Context) error {
	server, err := wish.NewServer(
		wish.WithAddress(s.addr),
		wish.WithHostKeyPath(s.hostKeyPath),
		wish.WithPublicKeyAuth(s.publicKeyAuth),
		wish.WithMiddleware(s.sessionHandler()),
	)
	if err != nil {
		return fmt.Errorf("failed to create SSH server: %w", err)
	}
	s.sshServer = server

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		logger.Infof("SSH transport listening on %s", s.addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			logger.Errorf("SSH server error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop shuts down the SSH server and waits for sessions to end.
func (s *SSHServer) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		if s.sshServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = s.sshServer.Shutdown(ctx)
		}
		s.wg.Wait()
	})
}

func (s *SSHServer) publicKeyAuth(ctx ssh.Context, key ssh.PublicKey) bool {
	goKey, ok := key.(gossh.PublicKey)
	if !ok {
		parsed, err := gossh.ParsePublicKey(key.Marshal())
		if err != nil {
			logger.Errorf("Failed to parse public key: %v", err)
			return false
		}
		goKey = parsed
	}
	fingerprint := gossh.FingerprintSHA256(goKey)

	logger.Infof("SSH authentication attempt addr=%s user=%s key=%s",
		ctx.RemoteAddr(), ctx.User(), fingerprint)

	if !s.WhitelistOnly {
		return true
	}
	for _, allowed := range s.Whitelist {
		if allowed == fingerprint {
			return true
		}
	}
	logger.Warnf("Rejected SSH key %s (not whitelisted)", fingerprint)
	return false
}

func (s *SSHServer) sessionHandler() wish.Middleware {
	return func(next ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			addr := sess.RemoteAddr().String()
			fingerprint := ""
			if sess.PublicKey() != nil {
				fingerprint = gossh.FingerprintSHA256(sess.PublicKey())
			}
			logger.Infof("SSH session opened: %s", addr)
			if s.OnConnect != nil {
				s.OnConnect(addr, fingerprint)
			}
			defer func() {
				logger.Infof("SSH session closed: %s", addr)
				if s.OnDisconnect != nil {
					s.OnDisconnect(addr)
				}
			}()

			ServeLines(sess, sess, s.handler)
		}
	}
}
