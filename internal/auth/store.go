// Package auth provides the credential lifecycle: storage, validation, and
// the identity-provider redirect flow.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/zalando/go-keyring"
)

const (
	serviceName = "transitnet"
	slotKey     = "transitnet::access-token"
)

// ErrNotStored is returned by Load when no credential has been saved.
var ErrNotStored = errors.New("no credential stored")

// Slot is the single-credential storage abstraction. Exactly one credential
// is current at a time; Save fully replaces any previous value.
type Slot interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// Store persists the bearer credential, preferring the system keychain.
type Store struct {
	useKeyring  bool
	fallbackDir string
}

var _ Slot = (*Store)(nil)

// NewStore creates a credential store rooted at the given fallback directory.
func NewStore(fallbackDir string) *Store {
	// Skip keyring for tests or when explicitly disabled
	if os.Getenv("TRANSITNET_NO_KEYRING") != "" {
		return &Store{useKeyring: false, fallbackDir: fallbackDir}
	}

	// Test if keyring is available
	testKey := "transitnet::test"
	err := keyring.Set(serviceName, testKey, "test")
	if err == nil {
		_ = keyring.Delete(serviceName, testKey) // Best-effort cleanup
		return &Store{useKeyring: true, fallbackDir: fallbackDir}
	}
	fmt.Fprintf(os.Stderr, "warning: system keyring unavailable, credential stored in plaintext at %s\n",
		filepath.Join(fallbackDir, "credential.json"))
	return &Store{useKeyring: false, fallbackDir: fallbackDir}
}

// Load retrieves the stored credential, or ErrNotStored.
func (s *Store) Load() (string, error) {
	if s.useKeyring {
		token, err := keyring.Get(serviceName, slotKey)
		if err != nil {
			if errors.Is(err, keyring.ErrNotFound) {
				return "", ErrNotStored
			}
			return "", fmt.Errorf("credential not found: %w", err)
		}
		return token, nil
	}
	return s.loadFromFile()
}

// Save stores the credential, replacing any previous one.
func (s *Store) Save(token string) error {
	if s.useKeyring {
		return keyring.Set(serviceName, slotKey, token)
	}
	return s.saveToFile(token)
}

// Clear removes the stored credential. Clearing an empty slot is not an error.
func (s *Store) Clear() error {
	if s.useKeyring {
		err := keyring.Delete(serviceName, slotKey)
		if errors.Is(err, keyring.ErrNotFound) {
			return nil
		}
		return err
	}
	err := os.Remove(s.credentialPath())
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// UsingKeyring returns true if the store is using the system keyring.
func (s *Store) UsingKeyring() bool {
	return s.useKeyring
}

// File fallback methods

type credentialFile struct {
	AccessToken string `json:"access_token"`
}

func (s *Store) credentialPath() string {
	return filepath.Join(s.fallbackDir, "credential.json")
}

func (s *Store) loadFromFile() (string, error) {
	data, err := os.ReadFile(s.credentialPath())
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotStored
		}
		return "", err
	}

	var f credentialFile
	if err := json.Unmarshal(data, &f); err != nil {
		return "", fmt.Errorf("invalid credential file: %w", err)
	}
	if f.AccessToken == "" {
		return "", ErrNotStored
	}
	return f.AccessToken, nil
}

func (s *Store) saveToFile(token string) error {
	if err := os.MkdirAll(s.fallbackDir, 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(credentialFile{AccessToken: token}, "", "  ")
	if err != nil {
		return err
	}

	// Atomic write with randomized temp file name
	tmpFile, err := os.CreateTemp(s.fallbackDir, "credential-*.json.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmpFile.Chmod(0600); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	// Unix: rename atomically replaces the destination.
	// Windows: rename fails when destination exists.
	destPath := s.credentialPath()
	if err := os.Rename(tmpPath, destPath); err != nil {
		if runtime.GOOS == "windows" {
			_ = os.Remove(destPath)
			return os.Rename(tmpPath, destPath)
		}
		os.Remove(tmpPath)
		return err
	}
	return nil
}
