package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/glasspane/glasspane/internal/compositor"
	"github.com/glasspane/glasspane/internal/config"
	"github.com/glasspane/glasspane/internal/server"
	"github.com/glasspane/glasspane/internal/ui"
)

var (
	servePort int
	serveBind string
	serveTUI  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the window server",
	Long: `Run the window server. Kernel-side clients connect over TCP (and
optionally SSH) and drive windows with JSON requests; each mutation is
composited and presented through the configured display sink.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on")
	serveCmd.Flags().StringVarP(&serveBind, "bind", "b", "", "Bind address")
	serveCmd.Flags().BoolVar(&serveTUI, "tui", false, "Show the inline status display")

	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.bind_address", serveCmd.Flags().Lookup("bind"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	// Flag values win over the config file
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if serveBind != "" {
		cfg.Server.BindAddress = serveBind
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if serveTUI {
		return runServeWithTUI(ctx, cfg)
	}
	return runServeHeadless(ctx, cfg)
}

func runServeHeadless(ctx context.Context, cfg *config.Config) error {
	srv, err := server.New(cfg, Version)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		srv.Stop()
	case <-srv.Done():
	}
	return nil
}

func runServeWithTUI(ctx context.Context, cfg *config.Config) error {
	addr := fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.Port)
	model := ui.NewInlineServerModel(addr)
	p := tea.NewProgram(model)

	frameSink := compositor.SinkFunc(func(frame compositor.Frame) error {
		p.Send(ui.FramePresentedMsg{
			WindowID:    frame.WindowID,
			Title:       frame.Title,
			Width:       frame.Width,
			Height:      frame.Height,
			Placeholder: frame.Placeholder,
		})
		return nil
	})

	srv, err := server.New(cfg, Version, server.WithExtraSink(frameSink))
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	srv.OnClientConnected = func(addr string) {
		p.Send(ui.ClientConnectedMsg{Addr: addr})
	}
	srv.OnClientDisconnected = func(addr string) {
		p.Send(ui.ClientDisconnectedMsg{Addr: addr})
	}
	srv.Dispatcher().OnRequest = func(reqType, errMsg string) {
		p.Send(ui.RequestHandledMsg{Type: reqType, Err: errMsg})
		p.Send(ui.WindowsUpdatedMsg{Windows: srv.Registry().List()})
	}

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	defer srv.Stop()

	// Quit the TUI if the server is stopped from outside (glasspane stop)
	go func() {
		<-srv.Done()
		p.Quit()
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("status display failed: %w", err)
	}
	return nil
}
