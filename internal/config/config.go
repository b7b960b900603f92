package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/jscyril/hsm/api"
)

// SocketName is the control socket file name inside the runtime directory
const SocketName = "homeslashmusic.sock"

// Backends accepted for AudioBackend
const (
	BackendSpeaker = "speaker"
	BackendNull    = "null"
)

// Config holds server configuration
type Config struct {
	SocketPath         string  `json:"socket_path"`
	DefaultVolume      float64 `json:"default_volume"`
	DefaultLoop        string  `json:"default_loop"`
	AudioBackend       string  `json:"audio_backend"`
	SampleRate         int     `json:"sample_rate"`
	PositionIntervalMs int     `json:"position_interval_ms"`
	EnableMPRIS        bool    `json:"enable_mpris"`
	MPRISName          string  `json:"mpris_name"`
	LogLevel           string  `json:"log_level"`
	ScanWorkers        int     `json:"scan_workers"`
}

// GetDefaultConfig returns default configuration
func GetDefaultConfig() *Config {
	return &Config{
		SocketPath:         DefaultSocketPath(),
		DefaultVolume:      0.5,
		DefaultLoop:        "none",
		AudioBackend:       BackendSpeaker,
		SampleRate:         44100,
		PositionIntervalMs: 250,
		EnableMPRIS:        true,
		MPRISName:          "homeslashmusic",
		LogLevel:           "info",
		ScanWorkers:        4,
	}
}

// DefaultSocketPath places the socket in $XDG_RUNTIME_DIR, falling back to
// the temp directory
func DefaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, SocketName)
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("%s-%d", SocketName, os.Getuid()))
}

// LoadConfig reads configuration from path. A missing file yields the
// defaults; keys absent from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	config := GetDefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return config, nil
}

// SaveConfig marshals and saves configuration to file
func SaveConfig(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Load is the server's entry point: it reads a .env file from the working
// directory if present, loads the config file, applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyEnv overrides fields from HSM_* environment variables
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("HSM_SOCKET"); v != "" {
		c.SocketPath = v
	}
	if v := os.Getenv("HSM_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("HSM_AUDIO_BACKEND"); v != "" {
		c.AudioBackend = v
	}
	if v := os.Getenv("HSM_MPRIS"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid HSM_MPRIS %q: %w", v, err)
		}
		c.EnableMPRIS = enabled
	}
	return nil
}

// Validate rejects values the server cannot start with
func (c *Config) Validate() error {
	var errs []error
	if c.SocketPath == "" {
		errs = append(errs, errors.New("socket_path must not be empty"))
	}
	if math.IsNaN(c.DefaultVolume) || c.DefaultVolume < 0 || c.DefaultVolume > 1 {
		errs = append(errs, fmt.Errorf("default_volume %v out of range [0, 1]", c.DefaultVolume))
	}
	if _, err := api.ParseLoopMode(c.DefaultLoop); err != nil {
		errs = append(errs, fmt.Errorf("default_loop: %w", err))
	}
	switch strings.ToLower(c.AudioBackend) {
	case BackendSpeaker, BackendNull:
	default:
		errs = append(errs, fmt.Errorf("audio_backend %q must be %q or %q", c.AudioBackend, BackendSpeaker, BackendNull))
	}
	if c.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate))
	}
	if c.PositionIntervalMs <= 0 {
		errs = append(errs, fmt.Errorf("position_interval_ms must be positive, got %d", c.PositionIntervalMs))
	}
	if c.EnableMPRIS && c.MPRISName == "" {
		errs = append(errs, errors.New("mpris_name must not be empty when MPRIS is enabled"))
	}
	if c.ScanWorkers <= 0 {
		errs = append(errs, fmt.Errorf("scan_workers must be positive, got %d", c.ScanWorkers))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Loop returns the configured start-up loop mode
func (c *Config) Loop() api.LoopMode {
	mode, _ := api.ParseLoopMode(c.DefaultLoop)
	return mode
}

// PositionInterval is the engine's position reporting period
func (c *Config) PositionInterval() time.Duration {
	return time.Duration(c.PositionIntervalMs) * time.Millisecond
}

// GetConfigPath returns the default config file path
func GetConfigPath() string {
	// Check environment variable first
	if path := os.Getenv("HSM_CONFIG"); path != "" {
		return path
	}

	// Use XDG config directory if available
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "hsm", "config.json")
	}

	// Fall back to home directory
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}

	return filepath.Join(home, ".config", "hsm", "config.json")
}
