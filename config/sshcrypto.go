package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/ssh"
)

// deriveAESKey loads the SSH private key and derives a 32-byte AES-256 key
// from a signature over a fixed message. The same SSH key always yields the
// same AES key (signature schemes used for SSH keys here are deterministic
// for ed25519; RSA keys fall back to hashing the public key instead).
func deriveAESKey(keyPath, passphrase string) ([]byte, error) {
	signer, err := loadSSHPrivateKey(keyPath, passphrase)
	if err != nil {
		return nil, err
	}

	if signer.PublicKey().Type() != ssh.KeyAlgoED25519 {
		hash := sha256.Sum256(signer.PublicKey().Marshal())
		return hash[:], nil
	}

	message := []byte("llamedit-credential-key-derivation-v1")
	signature, err := signer.Sign(rand.Reader, message)
	if err != nil {
		return nil, fmt.Errorf("failed to sign derivation message: %w", err)
	}
	hash := sha256.Sum256(signature.Blob)
	return hash[:], nil
}

// loadSSHPrivateKey parses an SSH private key, using the passphrase when the
// key is encrypted.
func loadSSHPrivateKey(keyPath, passphrase string) (ssh.Signer, error) {
	keyData, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read SSH key: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(keyData)
	if err == nil {
		return signer, nil
	}

	if strings.Contains(err.Error(), "encrypted") || strings.Contains(err.Error(), "passphrase") {
		if passphrase == "" {
			return nil, fmt.Errorf("SSH key is encrypted - passphrase required")
		}
		signer, err = ssh.ParsePrivateKeyWithPassphrase(keyData, []byte(passphrase))
		if err != nil {
			return nil, fmt.Errorf("failed to parse SSH key (wrong passphrase?): %w", err)
		}
		return signer, nil
	}

	return nil, fmt.Errorf("failed to parse SSH key: %w", err)
}

// encryptAESGCM encrypts data using AES-256-GCM.
// Format: [nonce (12 bytes)][ciphertext + tag]
func encryptAESGCM(plaintext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// decryptAESGCM decrypts data produced by encryptAESGCM.
func decryptAESGCM(ciphertext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}

	plaintext, err := gcm.Open(nil, ciphertext[:nonceSize], ciphertext[nonceSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}
	return plaintext, nil
}
