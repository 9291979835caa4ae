// Package prefs persists small per-user preferences with cross-process file
// locking, so a login finishing in one terminal does not clobber a
// preference write from another.
package prefs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/gofrs/flock"
)

const prefsFileName = "prefs.json"

// LockTimeout bounds how long a preference operation waits for the file
// lock. On timeout the operation proceeds unlocked (fail-open) rather than
// hanging the CLI; preferences tolerate an occasional lost write.
const LockTimeout = 100 * time.Millisecond

// Prefs are the persisted preference values.
type Prefs struct {
	// Nickname is the display name taken from the profile at login.
	Nickname string `json:"nickname"`

	// TrackAnalytics holds the user id when analytics are opted in, or the
	// literal "false" when opted out.
	TrackAnalytics string `json:"track_analytics"`

	// ActiveOrganization is the organization id the user last worked in.
	ActiveOrganization string `json:"active_organization,omitempty"`
}

// Store reads and writes the preference file.
type Store struct {
	dir string
}

// NewStore creates a preference store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) path() string {
	return filepath.Join(s.dir, prefsFileName)
}

func (s *Store) lockPath() string {
	return filepath.Join(s.dir, ".prefs.lock")
}

// acquireLock takes the cross-process lock, or returns nil on timeout so
// the operation proceeds unlocked.
func (s *Store) acquireLock() (*flock.Flock, error) {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return nil, err
	}

	fl := flock.New(s.lockPath())
	ctx, cancel := context.WithTimeout(context.Background(), LockTimeout)
	defer cancel()

	locked, err := fl.TryLockContext(ctx, 10*time.Millisecond)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, nil
		}
		return nil, err
	}
	if !locked {
		return nil, nil
	}
	return fl, nil
}

func releaseLock(fl *flock.Flock) {
	if fl != nil {
		_ = fl.Unlock()
	}
}

// Load reads the current preferences. A missing or malformed file yields
// zero-value preferences.
func (s *Store) Load() (*Prefs, error) {
	fl, err := s.acquireLock()
	if err != nil {
		return nil, err
	}
	defer releaseLock(fl)

	return s.loadLocked()
}

func (s *Store) loadLocked() (*Prefs, error) {
	p := &Prefs{}
	data, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, p); err != nil {
		return &Prefs{}, nil
	}
	return p, nil
}

// Update applies fn to the current preferences and writes the result back
// under the lock.
func (s *Store) Update(fn func(*Prefs)) error {
	fl, err := s.acquireLock()
	if err != nil {
		return err
	}
	defer releaseLock(fl)

	p, err := s.loadLocked()
	if err != nil {
		return err
	}
	fn(p)
	return s.saveLocked(p)
}

func (s *Store) saveLocked(p *Prefs) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(s.dir, "prefs-*.json.tmp")
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
	destPath := s.path()
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

// SetNickname persists the display name.
func (s *Store) SetNickname(nickname string) error {
	return s.Update(func(p *Prefs) { p.Nickname = nickname })
}

// SetTrackAnalytics persists the analytics preference value.
func (s *Store) SetTrackAnalytics(value string) error {
	return s.Update(func(p *Prefs) { p.TrackAnalytics = value })
}

// ActiveOrganization returns the stored active organization id.
func (s *Store) ActiveOrganization() (string, error) {
	p, err := s.Load()
	if err != nil {
		return "", err
	}
	return p.ActiveOrganization, nil
}

// SetActiveOrganization persists the active organization id. An empty id
// clears the selection.
func (s *Store) SetActiveOrganization(id string) error {
	return s.Update(func(p *Prefs) { p.ActiveOrganization = id })
}
