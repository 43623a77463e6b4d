package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/natefinch/atomic"
)

// credentialFile is the single slot holding the Gemini API key.
const credentialFile = "gemini_api_key"

// Credential is the persisted API key for the extraction service. An empty
// key means extraction is disabled until one is set.
type Credential struct {
	path string

	mu  sync.RWMutex
	key string
}

// LoadCredential reads the key slot in dir, if present.
func LoadCredential(dir string) (*Credential, error) {
	c := &Credential{path: filepath.Join(dir, credentialFile)}
	b, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("reading credential: %w", err)
	}
	c.key = strings.TrimSpace(string(b))
	return c, nil
}

// APIKey returns the key, or "" when none is configured.
func (c *Credential) APIKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.key
}

// Configured reports whether a key is set.
func (c *Credential) Configured() bool {
	return c.APIKey() != ""
}

// SetAPIKey stores key, replacing any previous one. A blank key clears the
// slot.
func (c *Credential) SetAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return c.Clear()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(c.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := atomic.WriteFile(c.path, strings.NewReader(key)); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}
	if err := os.Chmod(c.path, 0600); err != nil {
		return err
	}
	c.key = key
	return nil
}

// Clear removes the stored key.
func (c *Credential) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	c.key = ""
	return nil
}
