package auth

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitnet/transitnet-cli/internal/config"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Domain = "id.example.test"
	cfg.ClientID = "client-123"
	cfg.APIBase = "https://api.example.test"
	cfg.CallbackURL = "http://127.0.0.1:8123/callback"
	return cfg
}

func TestSignInURL(t *testing.T) {
	b := NewRedirectBuilder(testConfig())

	intent := b.SignIn("/settings", false)
	u, err := url.Parse(intent.URL)
	require.NoError(t, err)

	assert.Equal(t, "https", u.Scheme)
	assert.Equal(t, "id.example.test", u.Host)
	assert.Equal(t, "/authorize", u.Path)

	q := u.Query()
	assert.Equal(t, "token", q.Get("response_type"))
	assert.Equal(t, "client-123", q.Get("client_id"))
	assert.Equal(t, "http://127.0.0.1:8123/callback", q.Get("redirect_uri"))
	assert.Equal(t, "openid profile", q.Get("scope"))
	assert.Equal(t, "https://api.example.test", q.Get("audience"))
	assert.Equal(t, "/settings", q.Get("state"))
	assert.False(t, q.Has("screen_hint"))
}

func TestSignInURLWithRegistration(t *testing.T) {
	b := NewRedirectBuilder(testConfig())

	intent := b.SignIn("/", true)
	u, err := url.Parse(intent.URL)
	require.NoError(t, err)
	assert.Equal(t, "signup", u.Query().Get("screen_hint"))
}

func TestSignOutURL(t *testing.T) {
	b := NewRedirectBuilder(testConfig())

	intent := b.SignOut()
	u, err := url.Parse(intent.URL)
	require.NoError(t, err)

	assert.Equal(t, "id.example.test", u.Host)
	assert.Equal(t, "/v2/logout", u.Path)
	q := u.Query()
	assert.Equal(t, "client-123", q.Get("client_id"))
	assert.Equal(t, "http://127.0.0.1:8123", q.Get("returnTo"))
}
