package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// SecurityMethod defines how API tokens are stored on disk.
type SecurityMethod string

const (
	SecurityPlainText SecurityMethod = "plaintext"
	SecuritySSHKey    SecurityMethod = "ssh_key"
)

// CredentialStore manages API tokens keyed by endpoint id. Tokens are kept
// either as plaintext TOML or AES-GCM encrypted with a key derived from an
// SSH key signature.
type CredentialStore struct {
	method      SecurityMethod
	sshKeyPath  string
	passphrase  string
	credentials map[string]string // endpoint id → token
}

// NewCredentialStore creates a credential store for the given method.
func NewCredentialStore(method SecurityMethod, sshKeyPath string) *CredentialStore {
	if method == "" {
		method = SecurityPlainText
	}
	return &CredentialStore{
		method:      method,
		sshKeyPath:  sshKeyPath,
		credentials: make(map[string]string),
	}
}

// SetPassphrase sets the passphrase used to decrypt an encrypted SSH key.
func (c *CredentialStore) SetPassphrase(passphrase string) {
	c.passphrase = passphrase
}

// Get returns the token for an endpoint id.
func (c *CredentialStore) Get(endpointID string) (string, bool) {
	token, ok := c.credentials[endpointID]
	return token, ok
}

// Set stores a token for an endpoint id (in memory; call Save to persist).
func (c *CredentialStore) Set(endpointID, token string) {
	c.credentials[endpointID] = token
}

func plainTextPath(dataDir string) string {
	return filepath.Join(dataDir, "credentials.toml")
}

func encryptedPath(dataDir string) string {
	return filepath.Join(dataDir, "credentials.enc")
}

// Load reads credentials from disk based on the configured security method.
// A missing credentials file leaves the store empty and is not an error.
func (c *CredentialStore) Load(dataDir string) error {
	switch c.method {
	case SecurityPlainText:
		path := plainTextPath(dataDir)
		if !FileExists(path) {
			return nil
		}
		creds := make(map[string]string)
		if _, err := toml.DecodeFile(path, &creds); err != nil {
			return fmt.Errorf("failed to parse credentials: %w", err)
		}
		c.credentials = creds
		return nil

	case SecuritySSHKey:
		path := encryptedPath(dataDir)
		if !FileExists(path) {
			return nil
		}
		blob, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read credentials: %w", err)
		}
		key, err := deriveAESKey(c.sshKeyPath, c.passphrase)
		if err != nil {
			return err
		}
		plain, err := decryptAESGCM(blob, key)
		if err != nil {
			return fmt.Errorf("failed to decrypt credentials: %w", err)
		}
		creds := make(map[string]string)
		if err := json.Unmarshal(plain, &creds); err != nil {
			return fmt.Errorf("failed to parse decrypted credentials: %w", err)
		}
		c.credentials = creds
		return nil

	default:
		return fmt.Errorf("unknown security method: %s", c.method)
	}
}

// Save persists credentials to disk based on the configured security method.
func (c *CredentialStore) Save(dataDir string) error {
	if err := EnsureDir(dataDir); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	switch c.method {
	case SecurityPlainText:
		f, err := os.OpenFile(plainTextPath(dataDir), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to open credentials file: %w", err)
		}
		defer f.Close()
		if err := toml.NewEncoder(f).Encode(c.credentials); err != nil {
			return fmt.Errorf("failed to write credentials: %w", err)
		}
		return nil

	case SecuritySSHKey:
		plain, err := json.Marshal(c.credentials)
		if err != nil {
			return fmt.Errorf("failed to encode credentials: %w", err)
		}
		key, err := deriveAESKey(c.sshKeyPath, c.passphrase)
		if err != nil {
			return err
		}
		blob, err := encryptAESGCM(plain, key)
		if err != nil {
			return fmt.Errorf("failed to encrypt credentials: %w", err)
		}
		return os.WriteFile(encryptedPath(dataDir), blob, 0600)

	default:
		return fmt.Errorf("unknown security method: %s", c.method)
	}
}
