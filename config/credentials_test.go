package config

import (
	"os"
	"testing"
)

func TestPlainTextCredentialsRoundTrip(t *testing.T) {
	dir := t.TempDir()

	store := NewCredentialStore(SecurityPlainText, "")
	store.Set("local", "sk-token-1")
	store.Set("remote", "sk-token-2")
	if err := store.Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(plainTextPath(dir))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("credentials file mode = %o, want 0600", info.Mode().Perm())
	}

	reloaded := NewCredentialStore(SecurityPlainText, "")
	if err := reloaded.Load(dir); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if token, ok := reloaded.Get("local"); !ok || token != "sk-token-1" {
		t.Errorf("Get(local) = %q, %v", token, ok)
	}
	if token, ok := reloaded.Get("remote"); !ok || token != "sk-token-2" {
		t.Errorf("Get(remote) = %q, %v", token, ok)
	}
}

func TestLoadMissingCredentialsFile(t *testing.T) {
	store := NewCredentialStore(SecurityPlainText, "")
	if err := store.Load(t.TempDir()); err != nil {
		t.Fatalf("Load on empty dir: %v", err)
	}
	if _, ok := store.Get("anything"); ok {
		t.Error("empty store returned a token")
	}
}

func TestAESGCMRoundTrip(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}

	plain := []byte(`{"local":"secret"}`)
	blob, err := encryptAESGCM(plain, key)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	got, err := decryptAESGCM(blob, key)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if string(got) != string(plain) {
		t.Errorf("decrypted = %q", got)
	}

	// Tampering must be detected.
	blob[len(blob)-1] ^= 0xff
	if _, err := decryptAESGCM(blob, key); err == nil {
		t.Error("decrypt succeeded on tampered ciphertext")
	}

	wrongKey := make([]byte, 32)
	if _, err := decryptAESGCM(blob, wrongKey); err == nil {
		t.Error("decrypt succeeded with the wrong key")
	}
}
