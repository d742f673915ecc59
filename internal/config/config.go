package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"unicode"

	"gopkg.in/yaml.v3"
)

// Config holds all tcpchat configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	User    UserConfig    `yaml:"user"`
	Display DisplayConfig `yaml:"display"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig locates the chat server.
type ServerConfig struct {
	Address string `yaml:"address"` // IPv4/IPv6 literal or host name
	Port    int    `yaml:"port"`
}

// UserConfig describes the local user.
type UserConfig struct {
	DisplayName string `yaml:"display_name"` // empty = OS username
	Quiet       bool   `yaml:"quiet"`        // no mention highlighting
	Bell        bool   `yaml:"bell"`         // ring the terminal bell on a mention
}

// DisplayConfig configures output.
type DisplayConfig struct {
	TUI        bool   `yaml:"tui"`
	TimeFormat string `yaml:"time_format"`
	NoColor    bool   `yaml:"no_color"`
}

// ClientConfig is the immutable input of a chat session.
type ClientConfig struct {
	Address     string
	Port        int
	DisplayName string
	Quiet       bool
}

// Addr returns the dialable host:port.
func (c ClientConfig) Addr() string {
	return net.JoinHostPort(c.Address, strconv.Itoa(c.Port))
}

// MaxDisplayNameLen is the usable width of the username field on the wire.
const MaxDisplayNameLen = 31

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address: "127.0.0.1",
			Port:    8080,
		},
		User: UserConfig{
			Bell: true,
		},
		Display: DisplayConfig{
			TimeFormat: "2006-01-02 15:04:05",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// DefaultPath returns the per-user config file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "tcpchat", "config.yaml")
}

// Load reads the YAML config at path on top of the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case os.IsNotExist(err):
			// defaults
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config as YAML, creating the parent directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("TCPCHAT_SERVER"); v != "" {
		c.Server.Address = v
	}
	if v := os.Getenv("TCPCHAT_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TCPCHAT_PORT: unreadable port %q", v)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("TCPCHAT_NAME"); v != "" {
		c.User.DisplayName = v
	}
	if v := os.Getenv("TCPCHAT_QUIET"); v != "" {
		quiet, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TCPCHAT_QUIET: %w", err)
		}
		c.User.Quiet = quiet
	}
	return nil
}

// Validate checks the fields a session depends on.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server address is required")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("port %d out of range 1-65535", c.Server.Port)
	}
	return ValidateDisplayName(c.User.DisplayName)
}

// ValidateDisplayName checks that name fits the username field and is
// printable.
func ValidateDisplayName(name string) error {
	if name == "" {
		return fmt.Errorf("display name cannot be empty")
	}
	if len(name) > MaxDisplayNameLen {
		return fmt.Errorf("display name too long (maximum %d bytes)", MaxDisplayNameLen)
	}
	for _, r := range name {
		if !unicode.IsPrint(r) || unicode.IsSpace(r) {
			return fmt.Errorf("display name contains invalid character %q", r)
		}
	}
	return nil
}

// ClientConfig projects the session input from c.
func (c *Config) ClientConfig() ClientConfig {
	return ClientConfig{
		Address:     c.Server.Address,
		Port:        c.Server.Port,
		DisplayName: c.User.DisplayName,
		Quiet:       c.User.Quiet,
	}
}
