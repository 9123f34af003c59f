package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mcoot/rpsgame/internal/clientstate"
)

// ErrNoIdentity is returned when a command needs a user and none is saved
var ErrNoIdentity = errors.New("no identity saved; run 'rps user signup' or 'rps user login' first")

// Config holds CLI configuration
type Config struct {
	ServerURL    string
	IdentityFile string
	Transport    string
	Output       string
	Verbose      bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL:    getEnvOrDefault("RPS_SERVER", "http://localhost:8080"),
		IdentityFile: getEnvOrDefault("RPS_IDENTITY_FILE", defaultIdentityFile()),
		Transport:    getEnvOrDefault("RPS_TRANSPORT", "ws"),
		Output:       "text",
		Verbose:      false,
	}
}

// LoadIdentity reads the saved identity
func (c *Config) LoadIdentity() (*clientstate.Identity, error) {
	data, err := os.ReadFile(c.IdentityFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoIdentity
		}
		return nil, err
	}

	var id clientstate.Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return nil, fmt.Errorf("corrupt identity file %s: %w", c.IdentityFile, err)
	}
	if id.UserID == "" {
		return nil, ErrNoIdentity
	}
	return &id, nil
}

// SaveIdentity saves the identity to the identity file
func (c *Config) SaveIdentity(id clientstate.Identity) error {
	dir := filepath.Dir(c.IdentityFile)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := json.Marshal(id)
	if err != nil {
		return err
	}
	return os.WriteFile(c.IdentityFile, data, 0600)
}

func defaultIdentityFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".rpsgame/identity.json"
	}
	return filepath.Join(home, ".rpsgame", "identity.json")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
