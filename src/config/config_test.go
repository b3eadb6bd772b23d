package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var configKeys = []string{
	"SPEECH_SOURCE", "SPEECH_ENDPOINT", "SPEECH_RECONNECT", "HOTKEY",
	"ENABLE_TRAY", "ENABLE_FILE_LOGGING", "LOG_LEVEL", "SINGLEINSTANCE_PORT",
	ConfigPathEnvVar,
}

// clearEnv unsets every key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}
	want := Defaults()
	if cfg.SpeechSource != want.SpeechSource || cfg.Hotkey != want.Hotkey ||
		cfg.SingleInstancePort != want.SingleInstancePort || cfg.SpeechReconnect != want.SpeechReconnect {
		t.Errorf("Load() = %+v, want defaults %+v", cfg, want)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("SPEECH_SOURCE", "WebSocket")
	t.Setenv("SPEECH_ENDPOINT", "ws://localhost:9000/asr")
	t.Setenv("SPEECH_RECONNECT", "500ms")
	t.Setenv("ENABLE_FILE_LOGGING", "true")
	t.Setenv("HOTKEY", "Ctrl+Shift+T")
	t.Setenv("SINGLEINSTANCE_PORT", "49700")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.SpeechSource != SpeechWebSocket {
		t.Errorf("Expected SpeechSource %q, got %q", SpeechWebSocket, cfg.SpeechSource)
	}
	if cfg.SpeechEndpoint != "ws://localhost:9000/asr" {
		t.Errorf("Expected endpoint override, got %q", cfg.SpeechEndpoint)
	}
	if cfg.SpeechReconnect != 500*time.Millisecond {
		t.Errorf("Expected 500ms reconnect, got %v", cfg.SpeechReconnect)
	}
	if !cfg.EnableFileLogging {
		t.Error("Expected EnableFileLogging to be true")
	}
	if cfg.Hotkey != "Ctrl+Shift+T" {
		t.Errorf("Expected Hotkey to be 'Ctrl+Shift+T', got '%s'", cfg.Hotkey)
	}
	if cfg.SingleInstancePort != 49700 {
		t.Errorf("Expected port 49700, got %d", cfg.SingleInstancePort)
	}
}

func TestEmptyHotkeyDisables(t *testing.T) {
	for _, v := range []string{"", "none", " NONE "} {
		clearEnv(t)
		t.Setenv("HOTKEY", v)
		cfg, err := Load()
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Hotkey != "" {
			t.Errorf("HOTKEY=%q gave %q, want disabled", v, cfg.Hotkey)
		}
	}
}

func TestLoadFromConfigPath(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "settings.env")
	if err := os.WriteFile(path, []byte("SPEECH_SOURCE=none\nLOG_LEVEL=debug\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Cleanup(func() {
		os.Unsetenv("SPEECH_SOURCE")
		os.Unsetenv("LOG_LEVEL")
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.EnvPath != path {
		t.Skipf(".env next to the test binary took precedence: %s", cfg.EnvPath)
	}
	if cfg.SpeechSource != SpeechNone || cfg.LogLevel != "debug" {
		t.Errorf("got source=%q level=%q", cfg.SpeechSource, cfg.LogLevel)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"unknown source", func(c *Config) { c.SpeechSource = "microphone" }, true},
		{"websocket without endpoint", func(c *Config) {
			c.SpeechSource = SpeechWebSocket
			c.SpeechEndpoint = ""
		}, true},
		{"port out of range", func(c *Config) { c.SingleInstancePort = 70000 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Defaults()
			tt.mutate(c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
