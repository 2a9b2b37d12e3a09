package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glasspane/glasspane/internal/ipc"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop a running server",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := ipc.Connect()
		if err != nil {
			return err
		}
		defer client.Close()

		if err := client.Stop(); err != nil {
			return err
		}
		fmt.Println("Server stopped")
		return nil
	},
}
