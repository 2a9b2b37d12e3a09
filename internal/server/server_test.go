package server

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glasspane/glasspane/internal/config"
	"github.com/glasspane/glasspane/internal/ipc"
	"github.com/glasspane/glasspane/internal/network"
	"github.com/glasspane/glasspane/internal/protocol"
)

func testConfig(t *testing.T) (*config.Config, string) {
	t.Helper()
	frameDir := filepath.Join(t.TempDir(), "frames")
	cfg := config.DefaultConfig
	cfg.Server.Port = 0
	cfg.Server.BindAddress = "127.0.0.1"
	cfg.Display.Sink = "file"
	cfg.Display.OutputDir = frameDir
	return &cfg, frameDir
}

func startServer(t *testing.T, cfg *config.Config) (*Server, string) {
	t.Helper()
	socketPath := filepath.Join(t.TempDir(), "control.sock")
	srv, err := New(cfg, "test", WithControlSocket(socketPath))
	require.NoError(t, err)
	require.NoError(t, srv.Start(context.Background()))
	t.Cleanup(srv.Stop)
	return srv, socketPath
}

func TestServerFullSession(t *testing.T) {
	cfg, frameDir := testConfig(t)
	srv, _ := startServer(t, cfg)

	// Startup presents the empty placeholder.
	status, err := os.ReadFile(filepath.Join(frameDir, "frame.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(status), "No windows to display.")

	client, err := network.Dial(srv.Address())
	require.NoError(t, err)
	defer client.Close()

	resp, err := client.Send(protocol.CreateWindow{Title: "A", Width: 4, Height: 4})
	require.NoError(t, err)
	created, err := resp.Success()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), created.WindowID)

	pix := make([]byte, 2*2*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+3] = 255, 255 // red
	}
	resp, err = client.Send(protocol.DrawToSurface{
		WindowID: created.WindowID, X: 0, Y: 0, Width: 2, Height: 2,
		Pixels: protocol.EncodePixels(pix),
	})
	require.NoError(t, err)
	_, err = resp.Success()
	require.NoError(t, err)

	// The draw was composited into the frame file.
	png, err := os.ReadFile(filepath.Join(frameDir, "frame.png"))
	require.NoError(t, err)
	assert.NotEmpty(t, png)

	resp, err = client.Send(protocol.GetWindows{})
	require.NoError(t, err)
	windows, err := resp.Windows()
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, "A", windows[0].Title)

	resp, err = client.Send(protocol.CloseWindow{WindowID: created.WindowID})
	require.NoError(t, err)
	_, err = resp.Success()
	require.NoError(t, err)

	// Back to the placeholder, image gone.
	_, err = os.Stat(filepath.Join(frameDir, "frame.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestServerSurvivesMalformedInput(t *testing.T) {
	cfg, _ := testConfig(t)
	srv, _ := startServer(t, cfg)

	client, err := network.Dial(srv.Address())
	require.NoError(t, err)
	defer client.Close()

	resp, err := client.SendRaw([]byte(`{{{`))
	require.NoError(t, err)
	msg, isErr := resp.ErrorMessage()
	require.True(t, isErr)
	assert.Equal(t, "Invalid JSON", msg)

	// The connection keeps serving after the error.
	resp, err = client.Send(protocol.CreateWindow{Title: "ok", Width: 1, Height: 1})
	require.NoError(t, err)
	_, err = resp.Success()
	require.NoError(t, err)
}

func TestServerControlPlane(t *testing.T) {
	cfg, _ := testConfig(t)
	srv, socketPath := startServer(t, cfg)

	client, err := network.Dial(srv.Address())
	require.NoError(t, err)
	defer client.Close()
	_, err = client.Send(protocol.CreateWindow{Title: "w", Width: 2, Height: 2})
	require.NoError(t, err)

	ctl, err := ipc.ConnectTo(socketPath)
	require.NoError(t, err)
	defer ctl.Close()

	status, err := ctl.Status()
	require.NoError(t, err)
	assert.Equal(t, "test", status.Version)
	assert.Equal(t, 1, status.WindowCount)
	assert.Equal(t, []string{"tcp"}, status.Transports)
	assert.GreaterOrEqual(t, status.FramesPresented, uint64(1))

	require.NoError(t, ctl.Stop())
	select {
	case <-srv.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRegistrySharedAcrossConnections(t *testing.T) {
	cfg, _ := testConfig(t)
	srv, _ := startServer(t, cfg)

	first, err := network.Dial(srv.Address())
	require.NoError(t, err)
	defer first.Close()
	second, err := network.Dial(srv.Address())
	require.NoError(t, err)
	defer second.Close()

	resp, err := first.Send(protocol.CreateWindow{Title: "shared", Width: 2, Height: 2})
	require.NoError(t, err)
	created, err := resp.Success()
	require.NoError(t, err)

	resp, err = second.Send(protocol.GetWindows{})
	require.NoError(t, err)
	windows, err := resp.Windows()
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, created.WindowID, windows[0].ID)
}
