package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/glasspane/glasspane/internal/ipc"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status of a running server",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := ipc.Connect()
		if err != nil {
			return err
		}
		defer client.Close()

		status, err := client.Status()
		if err != nil {
			return err
		}

		fmt.Printf("glasspane %s\n", status.Version)
		fmt.Printf("  uptime:     %ds\n", status.UptimeSeconds)
		fmt.Printf("  transports: %s\n", strings.Join(status.Transports, ", "))
		fmt.Printf("  clients:    %d\n", status.Clients)
		fmt.Printf("  windows:    %d\n", status.WindowCount)
		fmt.Printf("  frames:     %d\n", status.FramesPresented)
		return nil
	},
}
