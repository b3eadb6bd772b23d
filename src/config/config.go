package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const (
	// ConfigPathEnvVar points at a .env file when none sits next to the
	// executable.
	ConfigPathEnvVar = "VOICE_SCREEN_CAPTURE"

	SpeechStdin     = "stdin"
	SpeechWebSocket = "websocket"
	SpeechNone      = "none"
)

type Config struct {
	SpeechSource       string        `env:"SPEECH_SOURCE"`       // stdin|websocket|none
	SpeechEndpoint     string        `env:"SPEECH_ENDPOINT"`     // recognizer websocket URL
	SpeechReconnect    time.Duration `env:"SPEECH_RECONNECT"`    // delay between websocket reconnects
	Hotkey             string        `env:"HOTKEY"`              // manual trigger; empty or "none" disables
	EnableTray         bool          `env:"ENABLE_TRAY"`         // systray icon
	EnableFileLogging  bool          `env:"ENABLE_FILE_LOGGING"` // rotating log file
	LogLevel           string        `env:"LOG_LEVEL"`           // zerolog level name
	SingleInstancePort int           `env:"SINGLEINSTANCE_PORT"` // loopback guard and remote trigger

	// EnvPath is the .env file that was applied, if any.
	EnvPath string `env:"-"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		SpeechSource:       SpeechStdin,
		SpeechEndpoint:     "ws://127.0.0.1:2700/recognize",
		SpeechReconnect:    3 * time.Second,
		Hotkey:             "Ctrl+Alt+S",
		EnableTray:         false,
		EnableFileLogging:  false,
		LogLevel:           "info",
		SingleInstancePort: 49600,
	}
}

// Load applies, in increasing priority: defaults, the .env file (next to
// the executable, else the file named by VOICE_SCREEN_CAPTURE), then the
// process environment.
func Load() (*Config, error) {
	cfg := Defaults()

	envPath := resolveEnvPath()
	if envPath != "" {
		// godotenv.Load never overrides variables already in the environment.
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("load %s: %w", envPath, err)
		}
		cfg.EnvPath = envPath
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if v, ok := os.LookupEnv("HOTKEY"); ok {
		cfg.Hotkey = v
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.SpeechSource = strings.ToLower(strings.TrimSpace(c.SpeechSource))
	c.Hotkey = strings.TrimSpace(c.Hotkey)
	if strings.EqualFold(c.Hotkey, "none") {
		c.Hotkey = ""
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.SpeechReconnect <= 0 {
		c.SpeechReconnect = Defaults().SpeechReconnect
	}
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	switch c.SpeechSource {
	case SpeechStdin, SpeechNone:
	case SpeechWebSocket:
		if c.SpeechEndpoint == "" {
			return fmt.Errorf("SPEECH_ENDPOINT is required when SPEECH_SOURCE=%s", SpeechWebSocket)
		}
	default:
		return fmt.Errorf("SPEECH_SOURCE must be %s, %s or %s, got %q", SpeechStdin, SpeechWebSocket, SpeechNone, c.SpeechSource)
	}
	if c.SingleInstancePort < 0 || c.SingleInstancePort > 65535 {
		return fmt.Errorf("SINGLEINSTANCE_PORT out of range: %d", c.SingleInstancePort)
	}
	return nil
}

func resolveEnvPath() string {
	if execPath, err := os.Executable(); err == nil {
		exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
		if _, err := os.Stat(exeEnv); err == nil {
			return exeEnv
		}
	}

	if alt := os.Getenv(ConfigPathEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}
