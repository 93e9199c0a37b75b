package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Settings mirrors settings.toml on disk.
type Settings struct {
	DataDirectory string           `toml:"data_directory"`
	DefaultModel  string           `toml:"default_model,omitempty"`
	Security      SecuritySettings `toml:"security"`
	Endpoints     []EndpointConfig `toml:"endpoints"`
}

// SecuritySettings selects how API tokens are stored on disk.
type SecuritySettings struct {
	Method     string `toml:"method"` // "plaintext" or "ssh_key"
	SSHKeyPath string `toml:"ssh_key_path,omitempty"`
}

// LoadSettings reads settings.toml, writing a commented default file on
// first run.
func LoadSettings() (*Settings, error) {
	settingsPath := GetSettingsFilePath()

	if !FileExists(settingsPath) {
		if err := CreateDefaultSettings(); err != nil {
			return nil, fmt.Errorf("failed to create default settings: %w", err)
		}
	}

	cfg := DefaultSettings()
	if _, err := toml.DecodeFile(settingsPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	return cfg, nil
}

// SaveSettings writes settings.toml with user-only permissions.
func SaveSettings(cfg *Settings) error {
	if err := EnsureDir(GetConfigDir()); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// 0600 - holds endpoint URLs and header values
	f, err := os.OpenFile(GetSettingsFilePath(), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open settings file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}

// CreateDefaultSettings writes the commented template for first run.
func CreateDefaultSettings() error {
	if err := EnsureDir(GetConfigDir()); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(GetSettingsFilePath(), []byte(GenerateSettingsTemplate()), 0600)
}
