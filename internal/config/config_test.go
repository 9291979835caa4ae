package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "http://127.0.0.1:8123/callback", cfg.CallbackURL)
	assert.Equal(t, "auto", cfg.Format)
	assert.Empty(t, cfg.Domain)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	configDir := filepath.Join(dir, "transitnet")
	require.NoError(t, os.MkdirAll(configDir, 0700))
	fileCfg := `{"auth0_domain":"file.example.test","api_base":"https://file.example.test"}`
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.json"), []byte(fileCfg), 0600))

	t.Setenv("TRANSITNET_API_BASE", "https://env.example.test")

	cfg, err := Load(FlagOverrides{APIBase: "https://flag.example.test"})
	require.NoError(t, err)

	// File value survives where nothing overrides it.
	assert.Equal(t, "file.example.test", cfg.Domain)
	assert.Equal(t, string(SourceGlobal), cfg.Sources["auth0_domain"])

	// Flag beats env beats file.
	assert.Equal(t, "https://flag.example.test", cfg.APIBase)
	assert.Equal(t, string(SourceFlag), cfg.Sources["api_base"])
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("TRANSITNET_AUTH0_DOMAIN", "id.example.test")
	t.Setenv("TRANSITNET_AUTH0_CLIENT_ID", "client-1")
	t.Setenv("TRANSITNET_CALLBACK_URL", "http://127.0.0.1:9999/cb")

	cfg, err := Load(FlagOverrides{})
	require.NoError(t, err)
	assert.Equal(t, "id.example.test", cfg.Domain)
	assert.Equal(t, "client-1", cfg.ClientID)
	assert.Equal(t, "http://127.0.0.1:9999/cb", cfg.CallbackURL)
}

func TestMalformedFileSkipped(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	configDir := filepath.Join(dir, "transitnet")
	require.NoError(t, os.MkdirAll(configDir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.json"), []byte("{bad"), 0600))

	cfg, err := Load(FlagOverrides{})
	require.NoError(t, err)
	assert.Empty(t, cfg.Domain)
}

func TestMissingValuesNotValidated(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load(FlagOverrides{})
	require.NoError(t, err)
	// No validation: URL helpers produce malformed URLs instead of errors.
	assert.Equal(t, "https:///", cfg.IssuerURL())
}

func TestIssuerURL(t *testing.T) {
	cfg := Default()
	cfg.Domain = "id.example.test"
	assert.Equal(t, "https://id.example.test/", cfg.IssuerURL())
	assert.Equal(t, "https://id.example.test/.well-known/jwks.json", cfg.JWKSURL())
}

func TestOrigin(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "http://127.0.0.1:8123", cfg.Origin())

	cfg.CallbackURL = "not a url"
	assert.Equal(t, "not a url", cfg.Origin())
}

func TestNormalizeBaseURL(t *testing.T) {
	assert.Equal(t, "https://api.example.test", NormalizeBaseURL("https://api.example.test/"))
	assert.Equal(t, "https://api.example.test", NormalizeBaseURL("https://api.example.test"))
}
