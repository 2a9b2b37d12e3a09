package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/glasspane/glasspane/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()

		fmt.Printf("config file: %s\n\n", config.GetConfigPath())
		fmt.Println("[server]")
		fmt.Printf("  port = %d\n", cfg.Server.Port)
		fmt.Printf("  bind_address = %q\n", cfg.Server.BindAddress)
		fmt.Printf("  ssh_enabled = %v\n", cfg.Server.SSHEnabled)
		if cfg.Server.SSHEnabled {
			fmt.Printf("  ssh_port = %d\n", cfg.Server.SSHPort)
			fmt.Printf("  ssh_host_key_path = %q\n", cfg.Server.SSHHostKeyPath)
			fmt.Printf("  ssh_whitelist_only = %v\n", cfg.Server.SSHWhitelistOnly)
			fmt.Printf("  ssh_whitelist = [%s]\n", strings.Join(cfg.Server.SSHWhitelist, ", "))
		}
		fmt.Println("[display]")
		fmt.Printf("  sink = %q\n", cfg.Display.Sink)
		if cfg.Display.OutputDir != "" {
			fmt.Printf("  output_dir = %q\n", cfg.Display.OutputDir)
		}
		fmt.Println("[logging]")
		fmt.Printf("  log_level = %q\n", cfg.Logging.LogLevel)
		return nil
	},
}
