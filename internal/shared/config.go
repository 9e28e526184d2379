package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Narration NarrationConfig `toml:"narration"`
	Storage   StorageConfig   `toml:"storage"`
	Persona   PersonaConfig   `toml:"persona"`
}

// ServerConfig contains the reading server connection settings.
type ServerConfig struct {
	BaseURL      string `toml:"base_url"`
	SessionToken string `toml:"session_token"`
}

// NarrationConfig contains text-to-speech narration preferences.
type NarrationConfig struct {
	Enabled  bool   `toml:"enabled"`
	Voice    string `toml:"voice"`
	Provider string `toml:"provider"`
	BaseURL  string `toml:"base_url"`
}

// StorageConfig contains local persistence settings.
type StorageConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// PersonaConfig contains optional personalization defaults attached to
// reading requests when present.
type PersonaConfig struct {
	Name      string `toml:"name"`
	Birthdate string `toml:"birthdate"`
	Tone      string `toml:"tone"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, err)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
