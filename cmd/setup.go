package cmd

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/glasspane/glasspane/internal/config"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactively write a config file",
	RunE:  runSetup,
}

func runSetup(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	port := strconv.Itoa(cfg.Server.Port)
	bind := cfg.Server.BindAddress
	sink := cfg.Display.Sink
	outputDir := cfg.Display.OutputDir
	sshEnabled := cfg.Server.SSHEnabled

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Listen port").
				Description("TCP port the window protocol is served on").
				Value(&port).
				Validate(func(s string) error {
					n, err := strconv.Atoi(s)
					if err != nil || n < 1 || n > 65535 {
						return fmt.Errorf("enter a port between 1 and 65535")
					}
					return nil
				}),
			huh.NewInput().
				Title("Bind address").
				Value(&bind),
			huh.NewSelect[string]().
				Title("Display sink").
				Description("Where presented frames go").
				Options(
					huh.NewOption("Frame file (for a notebook to embed)", "file"),
					huh.NewOption("Log only", "log"),
				).
				Value(&sink),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Output directory").
				Description("Directory the frame file is written to").
				Value(&outputDir),
		).WithHideFunc(func() bool { return sink != "file" }),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Enable SSH transport?").
				Description("Serve the same protocol over SSH with public key auth").
				Value(&sshEnabled),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	portNum, _ := strconv.Atoi(port)
	viper.Set("server.port", portNum)
	viper.Set("server.bind_address", bind)
	viper.Set("server.ssh_enabled", sshEnabled)
	viper.Set("display.sink", sink)
	viper.Set("display.output_dir", outputDir)

	if err := config.Save(); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", config.GetConfigPath())
	return nil
}
