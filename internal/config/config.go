// Package config handles configuration management using Viper
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Display DisplayConfig `mapstructure:"display"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig contains the transport settings
type ServerConfig struct {
	Port        int    `mapstructure:"port"`
	BindAddress string `mapstructure:"bind_address"`

	// SSH transport, disabled by default
	SSHEnabled       bool     `mapstructure:"ssh_enabled"`
	SSHPort          int      `mapstructure:"ssh_port"`
	SSHHostKeyPath   string   `mapstructure:"ssh_host_key_path"`
	SSHWhitelist     []string `mapstructure:"ssh_whitelist"`      // Allowed SSH key fingerprints
	SSHWhitelistOnly bool     `mapstructure:"ssh_whitelist_only"` // Only allow whitelisted keys
}

// DisplayConfig selects where presented frames go
type DisplayConfig struct {
	Sink      string `mapstructure:"sink"`       // "file" or "log"
	OutputDir string `mapstructure:"output_dir"` // Directory for the file sink
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	LogLevel string `mapstructure:"log_level"` // Overrides LOG_LEVEL env var
}

var (
	// DefaultConfig provides sensible defaults
	DefaultConfig = Config{
		Server: ServerConfig{
			Port:             8765,
			BindAddress:      "0.0.0.0",
			SSHEnabled:       false,
			SSHPort:          8766,
			SSHHostKeyPath:   defaultHostKeyPath(),
			SSHWhitelist:     []string{},
			SSHWhitelistOnly: true,
		},
		Display: DisplayConfig{
			Sink:      "log",
			OutputDir: "",
		},
		Logging: LoggingConfig{
			LogLevel: "",
		},
	}

	// Global config instance
	cfg *Config

	// Override config path if set
	configPathOverride string
)

// SetConfigPath allows overriding the config path
func SetConfigPath(path string) {
	configPathOverride = path
}

// Init initializes the configuration system
func Init() error {
	viper.SetConfigName("glasspane")
	viper.SetConfigType("toml")

	if configPathOverride != "" {
		viper.SetConfigFile(configPathOverride)
	} else {
		viper.AddConfigPath("/etc/glasspane")
		if home := os.Getenv("HOME"); home != "" {
			viper.AddConfigPath(filepath.Join(home, ".config", "glasspane"))
		}
		viper.AddConfigPath(".")
	}

	// Set defaults - individual fields so file values merge properly
	viper.SetDefault("server.port", DefaultConfig.Server.Port)
	viper.SetDefault("server.bind_address", DefaultConfig.Server.BindAddress)
	viper.SetDefault("server.ssh_enabled", DefaultConfig.Server.SSHEnabled)
	viper.SetDefault("server.ssh_port", DefaultConfig.Server.SSHPort)
	viper.SetDefault("server.ssh_host_key_path", DefaultConfig.Server.SSHHostKeyPath)
	viper.SetDefault("server.ssh_whitelist", DefaultConfig.Server.SSHWhitelist)
	viper.SetDefault("server.ssh_whitelist_only", DefaultConfig.Server.SSHWhitelistOnly)

	viper.SetDefault("display.sink", DefaultConfig.Display.Sink)
	viper.SetDefault("display.output_dir", DefaultConfig.Display.OutputDir)

	viper.SetDefault("logging.log_level", DefaultConfig.Logging.LogLevel)

	if err := viper.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound && !os.IsNotExist(err) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, use defaults
	}

	cfg = &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	return nil
}

// Get returns the current configuration
func Get() *Config {
	if cfg == nil {
		// Return defaults if not initialized
		return &DefaultConfig
	}
	return cfg
}

// Set sets the current configuration (for testing)
func Set(c *Config) {
	cfg = c
}

// Save saves the current configuration to file
func Save() error {
	configPath := GetConfigPath()

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := viper.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() string {
	if configPathOverride != "" {
		return configPathOverride
	}
	if viper.ConfigFileUsed() != "" {
		return viper.ConfigFileUsed()
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "/etc/glasspane/glasspane.toml"
	}
	return filepath.Join(home, ".config", "glasspane", "glasspane.toml")
}

func defaultHostKeyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "/etc/glasspane/host_key"
	}
	return filepath.Join(home, ".config", "glasspane", "host_key")
}
