package auth

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/transitnet/transitnet-cli/internal/output"
)

// Permissions the API understands.
const (
	PermissionReadConfig  = "read:config"
	PermissionWriteConfig = "write:config"
)

// Session is a validated credential ready for use.
type Session struct {
	Token  string
	Claims *Claims
}

// Manager ties the credential slot, validator, and redirect builder together.
// All credential decisions flow through it: a credential is either fully
// valid and usable, or treated as absent.
type Manager struct {
	slot      Slot
	validator *Validator
	redirects *RedirectBuilder
	navigator Navigator
	logger    *slog.Logger
}

// NewManager wires the credential lifecycle together.
func NewManager(slot Slot, validator *Validator, redirects *RedirectBuilder, navigator Navigator, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		slot:      slot,
		validator: validator,
		redirects: redirects,
		navigator: navigator,
		logger:    logger,
	}
}

// Session resolves the current session. The TRANSITNET_TOKEN environment
// variable overrides the stored credential but is validated the same way.
//
// When no valid credential exists and redirectOnFailure is set, the caller
// is sent through the sign-in flow via the Navigator; the returned error
// still reports the missing or invalid credential so the caller exits
// cleanly.
func (m *Manager) Session(ctx context.Context, redirectOnFailure bool) (*Session, error) {
	raw := os.Getenv("TRANSITNET_TOKEN")
	fromSlot := raw == ""
	if fromSlot {
		var err error
		raw, err = m.slot.Load()
		if err != nil {
			if !errors.Is(err, ErrNotStored) {
				m.logger.Debug("credential load failed", "error", err)
			}
			return nil, m.failSession(output.ErrNoCredential(), redirectOnFailure)
		}
	}

	claims, err := m.validator.Validate(ctx, raw)
	if err != nil {
		// An expired or tampered stored credential is no more useful than a
		// missing one. Drop it so the next attempt starts clean. A bad
		// environment override says nothing about the slot, which stays put.
		if fromSlot {
			if clearErr := m.slot.Clear(); clearErr != nil {
				m.logger.Debug("clearing invalid credential failed", "error", clearErr)
			}
		}
		return nil, m.failSession(err, redirectOnFailure)
	}

	return &Session{Token: raw, Claims: claims}, nil
}

func (m *Manager) failSession(err error, redirect bool) error {
	if redirect && m.navigator != nil {
		intent := m.redirects.SignIn("/", false)
		if navErr := m.navigator.Navigate(intent); navErr != nil {
			m.logger.Debug("sign-in navigation failed", "error", navErr)
		}
	}
	return err
}

// Accept validates a freshly received credential and persists it. The slot
// is only written after validation succeeds, so a bad credential never
// replaces a good one.
func (m *Manager) Accept(ctx context.Context, raw string) (*Session, error) {
	claims, err := m.validator.Validate(ctx, raw)
	if err != nil {
		return nil, err
	}
	if err := m.slot.Save(raw); err != nil {
		return nil, err
	}
	return &Session{Token: raw, Claims: claims}, nil
}

// SignIn returns the provider authorization redirect.
func (m *Manager) SignIn(returnTo string, startWithRegistration bool) NavigationIntent {
	return m.redirects.SignIn(returnTo, startWithRegistration)
}

// SignOut clears the stored credential and returns the provider logout
// redirect. The local slot is cleared even if the navigation is never
// executed.
func (m *Manager) SignOut() (NavigationIntent, error) {
	err := m.slot.Clear()
	return m.redirects.SignOut(), err
}

// HasPermission reports whether the current session carries the named
// permission. Resolving the session never triggers a sign-in redirect here;
// an absent or invalid credential simply carries no permissions.
func (m *Manager) HasPermission(ctx context.Context, name string) bool {
	session, err := m.Session(ctx, false)
	if err != nil {
		return false
	}
	return session.Claims.HasPermission(name)
}
