package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"TCPCHAT_SERVER", "TCPCHAT_PORT", "TCPCHAT_NAME", "TCPCHAT_QUIET"} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Server.Address != "127.0.0.1" {
		t.Errorf("expected Address=127.0.0.1, got %s", cfg.Server.Address)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected Port=8080, got %d", cfg.Server.Port)
	}
	if !cfg.User.Bell {
		t.Error("expected Bell=true by default")
	}
	if cfg.Logging.Enabled() {
		t.Error("logging must be off unless debug_mode is set")
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port, got %d", cfg.Server.Port)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.Server.Address = "chat.example.com"
	cfg.Server.Port = 9000
	cfg.User.DisplayName = "alice"
	cfg.User.Quiet = true
	cfg.Logging.DebugMode = true

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Server.Address != "chat.example.com" || loaded.Server.Port != 9000 {
		t.Errorf("server not round-tripped: %+v", loaded.Server)
	}
	if loaded.User.DisplayName != "alice" || !loaded.User.Quiet {
		t.Errorf("user not round-tripped: %+v", loaded.User)
	}
	if !loaded.Logging.DebugMode {
		t.Error("expected debug_mode to survive")
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9999\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("expected port 9999, got %d", cfg.Server.Port)
	}
	if cfg.Server.Address != "127.0.0.1" {
		t.Errorf("expected default address, got %s", cfg.Server.Address)
	}
	if cfg.Display.TimeFormat == "" {
		t.Error("expected default time format")
	}
}

func TestLoadMalformedFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [not a map"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestConfig_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TCPCHAT_SERVER", "10.0.0.5")
	t.Setenv("TCPCHAT_PORT", "7000")
	t.Setenv("TCPCHAT_NAME", "bob")
	t.Setenv("TCPCHAT_QUIET", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	cc := cfg.ClientConfig()
	if cc.Address != "10.0.0.5" || cc.Port != 7000 || cc.DisplayName != "bob" || !cc.Quiet {
		t.Errorf("env overrides not applied: %+v", cc)
	}
	if cc.Addr() != "10.0.0.5:7000" {
		t.Errorf("unexpected Addr %s", cc.Addr())
	}
}

func TestConfig_BadEnvPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("TCPCHAT_PORT", "abc")
	if _, err := Load(""); err == nil {
		t.Error("expected error for unreadable port")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"Valid", func(c *Config) {}, false},
		{"NoAddress", func(c *Config) { c.Server.Address = "" }, true},
		{"PortZero", func(c *Config) { c.Server.Port = 0 }, true},
		{"PortTooLarge", func(c *Config) { c.Server.Port = 99999 }, true},
		{"NoName", func(c *Config) { c.User.DisplayName = "" }, true},
		{"NameTooLong", func(c *Config) { c.User.DisplayName = strings.Repeat("x", 32) }, true},
		{"NameWithSpace", func(c *Config) { c.User.DisplayName = "al ice" }, true},
		{"NameWithControl", func(c *Config) { c.User.DisplayName = "al\x07ice" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.User.DisplayName = "alice"
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAddrIPv6(t *testing.T) {
	cc := ClientConfig{Address: "::1", Port: 8080}
	if cc.Addr() != "[::1]:8080" {
		t.Errorf("unexpected Addr %s", cc.Addr())
	}
}

func TestResolveUsername(t *testing.T) {
	name, err := ResolveUsername()
	if err != nil {
		t.Skipf("no username in this environment: %v", err)
	}
	if name == "" || len(name) > MaxDisplayNameLen {
		t.Errorf("unexpected username %q", name)
	}
}
