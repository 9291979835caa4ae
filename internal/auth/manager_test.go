package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitnet/transitnet-cli/internal/output"
)

// memorySlot is an in-memory Slot for manager tests.
type memorySlot struct {
	token string
}

func (s *memorySlot) Load() (string, error) {
	if s.token == "" {
		return "", ErrNotStored
	}
	return s.token, nil
}

func (s *memorySlot) Save(token string) error {
	s.token = token
	return nil
}

func (s *memorySlot) Clear() error {
	s.token = ""
	return nil
}

// recordingNavigator records the intents it is asked to execute.
type recordingNavigator struct {
	intents []NavigationIntent
}

func (n *recordingNavigator) Navigate(intent NavigationIntent) error {
	n.intents = append(n.intents, intent)
	return nil
}

func newTestManager(t *testing.T, sk *signingKeys, slot Slot) (*Manager, *recordingNavigator) {
	t.Helper()
	nav := &recordingNavigator{}
	m := NewManager(slot, newTestValidator(t, sk), NewRedirectBuilder(testConfig()), nav, nil)
	return m, nav
}

func TestSessionNoCredential(t *testing.T) {
	sk := newSigningKeys(t, "k1")
	m, nav := newTestManager(t, sk, &memorySlot{})

	_, err := m.Session(context.Background(), false)
	require.Error(t, err)
	assert.Equal(t, output.CodeNoCredential, output.AsError(err).Code)
	assert.Empty(t, nav.intents)
}

func TestSessionRedirectsOnMissingCredential(t *testing.T) {
	sk := newSigningKeys(t, "k1")
	m, nav := newTestManager(t, sk, &memorySlot{})

	_, err := m.Session(context.Background(), true)
	require.Error(t, err)
	require.Len(t, nav.intents, 1)
	assert.Contains(t, nav.intents[0].URL, "/authorize")
}

func TestSessionValidStoredCredential(t *testing.T) {
	sk := newSigningKeys(t, "k1")
	slot := &memorySlot{token: sk.mint(t, "k1", validClaims())}
	m, _ := newTestManager(t, sk, slot)

	session, err := m.Session(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "auth0|user-1", session.Claims.Subject)
}

func TestSessionClearsInvalidCredential(t *testing.T) {
	sk := newSigningKeys(t, "k1")
	slot := &memorySlot{token: "garbage"}
	m, _ := newTestManager(t, sk, slot)

	_, err := m.Session(context.Background(), false)
	require.Error(t, err)
	assert.Equal(t, output.CodeInvalidCred, output.AsError(err).Code)
	assert.Empty(t, slot.token)
}

func TestSessionEnvOverride(t *testing.T) {
	sk := newSigningKeys(t, "k1")
	slot := &memorySlot{token: "stored-but-unused"}
	m, _ := newTestManager(t, sk, slot)

	t.Setenv("TRANSITNET_TOKEN", sk.mint(t, "k1", validClaims()))

	session, err := m.Session(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "auth0|user-1", session.Claims.Subject)
}

func TestSessionEnvOverrideStillValidated(t *testing.T) {
	sk := newSigningKeys(t, "k1")
	m, _ := newTestManager(t, sk, &memorySlot{})

	t.Setenv("TRANSITNET_TOKEN", "garbage")

	_, err := m.Session(context.Background(), false)
	require.Error(t, err)
	assert.Equal(t, output.CodeInvalidCred, output.AsError(err).Code)
}

func TestSessionInvalidEnvOverrideKeepsStoredCredential(t *testing.T) {
	sk := newSigningKeys(t, "k1")
	stored := sk.mint(t, "k1", validClaims())
	slot := &memorySlot{token: stored}
	m, _ := newTestManager(t, sk, slot)

	t.Setenv("TRANSITNET_TOKEN", "garbage")

	_, err := m.Session(context.Background(), false)
	require.Error(t, err)
	assert.Equal(t, output.CodeInvalidCred, output.AsError(err).Code)
	// The override never touched the slot; the stored credential survives.
	assert.Equal(t, stored, slot.token)
}

func TestAcceptPersistsValidCredential(t *testing.T) {
	sk := newSigningKeys(t, "k1")
	slot := &memorySlot{}
	m, _ := newTestManager(t, sk, slot)

	raw := sk.mint(t, "k1", validClaims())
	session, err := m.Accept(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, raw, slot.token)
	assert.Equal(t, raw, session.Token)
}

func TestAcceptRejectsWithoutPersisting(t *testing.T) {
	sk := newSigningKeys(t, "k1")
	slot := &memorySlot{token: "previous-good"}
	m, _ := newTestManager(t, sk, slot)

	_, err := m.Accept(context.Background(), "garbage")
	require.Error(t, err)
	assert.Equal(t, "previous-good", slot.token)
}

func TestSignOutClearsSlot(t *testing.T) {
	sk := newSigningKeys(t, "k1")
	slot := &memorySlot{token: "tok"}
	m, _ := newTestManager(t, sk, slot)

	intent, err := m.SignOut()
	require.NoError(t, err)
	assert.Empty(t, slot.token)
	assert.Contains(t, intent.URL, "/v2/logout")
}

func TestHasPermission(t *testing.T) {
	sk := newSigningKeys(t, "k1")
	slot := &memorySlot{token: sk.mint(t, "k1", validClaims())}
	m, nav := newTestManager(t, sk, slot)

	assert.True(t, m.HasPermission(context.Background(), PermissionReadConfig))
	assert.False(t, m.HasPermission(context.Background(), PermissionWriteConfig))
	// Permission checks never kick off a sign-in redirect.
	assert.Empty(t, nav.intents)
}

func TestHasPermissionNoCredential(t *testing.T) {
	sk := newSigningKeys(t, "k1")
	m, nav := newTestManager(t, sk, &memorySlot{})

	assert.False(t, m.HasPermission(context.Background(), PermissionReadConfig))
	assert.Empty(t, nav.intents)
}
