// Package config provides layered configuration loading.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Config holds the resolved configuration.
//
// The identity-provider settings (Domain, ClientID) and APIBase are all
// required for correct URL construction but are deliberately not validated
// at load time: a missing value produces malformed URLs downstream, matching
// the behavior of the web console this CLI replaces.
type Config struct {
	// Identity provider settings
	Domain   string `json:"auth0_domain"`
	ClientID string `json:"auth0_client_id"`

	// API settings
	APIBase string `json:"api_base"`

	// CallbackURL is where the provider redirects after login. Defaults to
	// the local relay the login command starts.
	CallbackURL string `json:"callback_url"`

	// Output settings
	Format string `json:"format"`

	// Behavior preferences
	Verbose *int `json:"verbose,omitempty"`

	// Sources tracks where each value came from (for debugging).
	Sources map[string]string `json:"-"`
}

// Source indicates where a config value came from.
type Source string

const (
	SourceDefault Source = "default"
	SourceGlobal  Source = "global"
	SourceEnv     Source = "env"
	SourceFlag    Source = "flag"
)

// FlagOverrides holds command-line flag values.
type FlagOverrides struct {
	Domain   string
	ClientID string
	APIBase  string
	Format   string
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		CallbackURL: "http://127.0.0.1:8123/callback",
		Format:      "auto",
		Sources:     make(map[string]string),
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence: flags > env > global file > defaults
func Load(overrides FlagOverrides) (*Config, error) {
	cfg := Default()

	loadFromFile(cfg, globalConfigPath())
	LoadFromEnv(cfg)
	ApplyOverrides(cfg, overrides)

	return cfg, nil
}

func loadFromFile(cfg *Config, path string) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: Path is from trusted config location
	if err != nil {
		return // File doesn't exist, skip
	}

	var fileCfg map[string]any
	if err := json.Unmarshal(data, &fileCfg); err != nil {
		fmt.Fprintf(os.Stderr, "warning: skipping malformed config at %s: %v\n", path, err)
		return
	}

	set := func(key string, dst *string) {
		if v, ok := fileCfg[key].(string); ok && v != "" {
			*dst = v
			cfg.Sources[key] = string(SourceGlobal)
		}
	}
	set("auth0_domain", &cfg.Domain)
	set("auth0_client_id", &cfg.ClientID)
	set("api_base", &cfg.APIBase)
	set("callback_url", &cfg.CallbackURL)
	set("format", &cfg.Format)

	if v, ok := fileCfg["verbose"]; ok {
		if fv, ok := v.(float64); ok {
			iv := int(fv)
			if iv >= 0 && iv <= 2 && fv == float64(iv) {
				cfg.Verbose = &iv
				cfg.Sources["verbose"] = string(SourceGlobal)
			}
		}
	}
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("TRANSITNET_AUTH0_DOMAIN"); v != "" {
		cfg.Domain = v
		cfg.Sources["auth0_domain"] = string(SourceEnv)
	}
	if v := os.Getenv("TRANSITNET_AUTH0_CLIENT_ID"); v != "" {
		cfg.ClientID = v
		cfg.Sources["auth0_client_id"] = string(SourceEnv)
	}
	if v := os.Getenv("TRANSITNET_API_BASE"); v != "" {
		cfg.APIBase = v
		cfg.Sources["api_base"] = string(SourceEnv)
	}
	if v := os.Getenv("TRANSITNET_CALLBACK_URL"); v != "" {
		cfg.CallbackURL = v
		cfg.Sources["callback_url"] = string(SourceEnv)
	}
}

// ApplyOverrides applies non-empty flag overrides to cfg.
func ApplyOverrides(cfg *Config, o FlagOverrides) {
	if o.Domain != "" {
		cfg.Domain = o.Domain
		cfg.Sources["auth0_domain"] = string(SourceFlag)
	}
	if o.ClientID != "" {
		cfg.ClientID = o.ClientID
		cfg.Sources["auth0_client_id"] = string(SourceFlag)
	}
	if o.APIBase != "" {
		cfg.APIBase = o.APIBase
		cfg.Sources["api_base"] = string(SourceFlag)
	}
	if o.Format != "" {
		cfg.Format = o.Format
		cfg.Sources["format"] = string(SourceFlag)
	}
}

// IssuerURL returns the identity provider issuer, always with a trailing
// slash to match the `iss` claim the provider mints.
func (cfg *Config) IssuerURL() string {
	return "https://" + cfg.Domain + "/"
}

// JWKSURL returns the provider's public key set location.
func (cfg *Config) JWKSURL() string {
	return "https://" + cfg.Domain + "/.well-known/jwks.json"
}

// Origin returns the scheme://host[:port] part of the callback URL, used as
// the post-logout return target.
func (cfg *Config) Origin() string {
	u, err := url.Parse(cfg.CallbackURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return cfg.CallbackURL
	}
	return u.Scheme + "://" + u.Host
}

// Path helpers

func globalConfigPath() string {
	return filepath.Join(GlobalConfigDir(), "config.json")
}

// GlobalConfigDir returns the global config directory path.
func GlobalConfigDir() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "transitnet")
}

// NormalizeBaseURL ensures consistent URL format (no trailing slash).
func NormalizeBaseURL(url string) string {
	return strings.TrimSuffix(url, "/")
}
