package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Config is the fully resolved runtime configuration: settings file merged
// with environment overrides, plus the credential store for API tokens.
type Config struct {
	DataDirectory string
	DefaultModel  string // "<model>@<endpoint>" reference
	Endpoints     []EndpointConfig

	CredentialStore *CredentialStore
}

var Debug = false
var DebugLog *log.Logger

func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

// Endpoint looks up an endpoint by id.
func (c *Config) Endpoint(id string) (*EndpointConfig, bool) {
	for i := range c.Endpoints {
		if c.Endpoints[i].ID == id {
			return &c.Endpoints[i], true
		}
	}
	return nil, false
}

func (c *Config) applyEnvOverrides() {
	if dataDir := os.Getenv("LLAMEDIT_DATA_DIR"); dataDir != "" {
		c.DataDirectory = dataDir
	}
	if model := os.Getenv("LLAMEDIT_MODEL"); model != "" {
		c.DefaultModel = model
	}
	if base := os.Getenv("LLAMEDIT_ENDPOINT"); base != "" {
		// A bare URL override maps onto the endpoint the default model routes to,
		// or the first configured endpoint when no default is set.
		if len(c.Endpoints) > 0 {
			c.Endpoints[0].BaseURL = base
		}
	}
}

func CheckDebug() bool {
	debug := os.Getenv("LLAMEDIT_DEBUG")
	return debug == "true" || debug == "1"
}

func InitDebugLog(dataDir string) {
	if !CheckDebug() {
		return
	}

	Debug = true
	logPath := filepath.Join(dataDir, "debug.log")

	// 0600 - the log may contain prompt fragments
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not open debug log at %s: %v\n", logPath, err)
		return
	}

	DebugLog = log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile)
	DebugLog.Printf("=== Debug logging started (LLAMEDIT_DEBUG=%s) ===", os.Getenv("LLAMEDIT_DEBUG"))
}

// Load reads settings.toml (creating a default one on first run), applies
// environment overrides and loads credentials for the configured endpoints.
func Load() (*Config, error) {
	settings, err := LoadSettings()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DataDirectory: settings.DataDirectory,
		DefaultModel:  settings.DefaultModel,
		Endpoints:     settings.Endpoints,
	}
	cfg.applyEnvOverrides()

	if err := EnsureDir(cfg.DataDir()); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	store := NewCredentialStore(SecurityMethod(settings.Security.Method), ExpandPath(settings.Security.SSHKeyPath))
	if err := store.Load(cfg.DataDir()); err != nil {
		// Missing credentials are not fatal; endpoints without tokens still work.
		if Debug && DebugLog != nil {
			DebugLog.Printf("[Config] credential load failed: %v", err)
		}
	}
	cfg.CredentialStore = store

	return cfg, nil
}

// APIKey returns the stored token for an endpoint, or "" when none is set.
func (c *Config) APIKey(endpointID string) string {
	if c.CredentialStore == nil {
		return ""
	}
	key, _ := c.CredentialStore.Get(endpointID)
	return key
}
