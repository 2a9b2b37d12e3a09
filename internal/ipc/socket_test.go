package ipc

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubHandler answers control commands with fixed data.
type stubHandler struct {
	status *StatusData

	mu      sync.Mutex
	stopped bool
}

func (h *stubHandler) HandleStatus() (*StatusData, error) {
	return h.status, nil
}

func (h *stubHandler) HandleStop() error {
	h.mu.Lock()
	h.stopped = true
	h.mu.Unlock()
	return nil
}

func (h *stubHandler) wasStopped() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stopped
}

func startTestSocket(t *testing.T, handler CommandHandler) string {
	t.Helper()
	socketPath := filepath.Join(t.TempDir(), "control.sock")
	srv := NewSocketServerAt(socketPath, handler)
	require.NoError(t, srv.Start())
	t.Cleanup(srv.Stop)
	return socketPath
}

func TestStatusRoundTrip(t *testing.T) {
	handler := &stubHandler{status: &StatusData{
		Version:         "test",
		UptimeSeconds:   12,
		WindowCount:     3,
		FramesPresented: 7,
		Transports:      []string{"tcp"},
		Clients:         1,
	}}
	socketPath := startTestSocket(t, handler)

	client, err := ConnectTo(socketPath)
	require.NoError(t, err)
	defer client.Close()

	status, err := client.Status()
	require.NoError(t, err)
	assert.Equal(t, handler.status, status)
}

func TestStopCommand(t *testing.T) {
	handler := &stubHandler{status: &StatusData{}}
	socketPath := startTestSocket(t, handler)

	client, err := ConnectTo(socketPath)
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Stop())

	// The handler runs after the response, so give it a moment.
	assert.Eventually(t, handler.wasStopped, time.Second, 10*time.Millisecond)
}

// slowStopHandler holds its stop handler until released.
type slowStopHandler struct {
	release chan struct{}
}

func (h *slowStopHandler) HandleStatus() (*StatusData, error) { return &StatusData{}, nil }

func (h *slowStopHandler) HandleStop() error {
	<-h.release
	return nil
}

func TestStopResponseArrivesBeforeShutdown(t *testing.T) {
	release := make(chan struct{})
	socketPath := filepath.Join(t.TempDir(), "control.sock")
	srv := NewSocketServerAt(socketPath, &slowStopHandler{release: release})
	require.NoError(t, srv.Start())
	t.Cleanup(srv.Stop)
	t.Cleanup(func() { close(release) })

	client, err := ConnectTo(socketPath)
	require.NoError(t, err)
	defer client.Close()

	// The OK line must reach the caller even though the stop handler
	// has not finished yet.
	require.NoError(t, client.Stop())
}

func TestUnknownCommand(t *testing.T) {
	socketPath := startTestSocket(t, &stubHandler{status: &StatusData{}})

	client, err := ConnectTo(socketPath)
	require.NoError(t, err)
	defer client.Close()

	resp, err := client.Send(CommandType("REBOOT"), nil)
	require.NoError(t, err)
	assert.Equal(t, "ERROR", resp.Status)
	assert.Equal(t, "Unknown command: REBOOT", resp.Error)
}

func TestMultipleCommandsOnOneConnection(t *testing.T) {
	handler := &stubHandler{status: &StatusData{Version: "test"}}
	socketPath := startTestSocket(t, handler)

	client, err := ConnectTo(socketPath)
	require.NoError(t, err)
	defer client.Close()

	for i := 0; i < 3; i++ {
		status, err := client.Status()
		require.NoError(t, err)
		assert.Equal(t, "test", status.Version)
	}
}

func TestConnectToMissingSocket(t *testing.T) {
	_, err := ConnectTo(filepath.Join(t.TempDir(), "nope.sock"))
	require.Error(t, err)
}
