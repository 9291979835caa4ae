package auth

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// jwks is a key set fetched from the provider's well-known location.
type jwks struct {
	Keys []jsonWebKey `json:"keys"`

	expiresAt time.Time
}

// jsonWebKey is a single public key in the set.
type jsonWebKey struct {
	Kty string   `json:"kty"`
	Kid string   `json:"kid"`
	Use string   `json:"use"`
	N   string   `json:"n"`
	E   string   `json:"e"`
	X5c []string `json:"x5c"`
}

// KeySet fetches and caches the provider's public key set. Keys are cached
// for the process lifetime, honoring Cache-Control max-age, and re-fetched
// on a key-id miss so signing-key rotation does not require a restart.
type KeySet struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger

	mu   sync.Mutex
	keys *jwks
}

// NewKeySet creates a key set backed by the given JWKS URL.
func NewKeySet(url string, httpClient *http.Client, logger *slog.Logger) *KeySet {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &KeySet{
		url:        url,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Keyfunc resolves the RSA public key for a parsed token header. It is the
// jwt.Keyfunc used by the validator.
func (ks *KeySet) Keyfunc(ctx context.Context) jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token has no key id")
		}

		ks.mu.Lock()
		defer ks.mu.Unlock()

		if ks.keys == nil || !ks.keys.stillValid() {
			if err := ks.refreshLocked(ctx); err != nil {
				if ks.keys == nil {
					return nil, err
				}
				ks.logger.Debug("jwks refresh failed, falling back to cached keys", "error", err)
			}
		}

		key, err := ks.keys.publicKey(kid)
		if err == nil {
			return key, nil
		}

		// Key id not in the cached set: the provider may have rotated keys.
		// One re-fetch before giving up.
		if err := ks.refreshLocked(ctx); err != nil {
			return nil, err
		}
		return ks.keys.publicKey(kid)
	}
}

func (ks *KeySet) refreshLocked(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ks.url, nil)
	if err != nil {
		return err
	}

	resp, err := ks.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetching key set: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching key set: unexpected status %d", resp.StatusCode)
	}

	fetched := &jwks{}
	if err := json.NewDecoder(resp.Body).Decode(fetched); err != nil {
		return fmt.Errorf("decoding key set: %w", err)
	}

	maxAge := maxAgeFromCacheHeader(resp.Header.Get("Cache-Control"))
	if maxAge > 0 {
		fetched.expiresAt = time.Now().Add(time.Duration(maxAge) * time.Second)
	}

	ks.logger.Debug("key set refreshed", "keys", len(fetched.Keys), "expires", fetched.expiresAt)
	ks.keys = fetched
	return nil
}

// stillValid returns true while the cached set is within its max-age. A set
// without an expiry is kept for the process lifetime.
func (j *jwks) stillValid() bool {
	return j.expiresAt.IsZero() || time.Now().Add(5*time.Second).Before(j.expiresAt)
}

func (j *jwks) publicKey(kid string) (*rsa.PublicKey, error) {
	for i := range j.Keys {
		if j.Keys[i].Kid != kid {
			continue
		}
		return j.Keys[i].rsaKey()
	}
	return nil, fmt.Errorf("no key matches kid %q", kid)
}

func (k *jsonWebKey) rsaKey() (*rsa.PublicKey, error) {
	// Prefer the certificate chain when the provider publishes one.
	if len(k.X5c) != 0 {
		certPEM := "-----BEGIN CERTIFICATE-----\n" + k.X5c[0] + "\n-----END CERTIFICATE-----"
		block, _ := pem.Decode([]byte(certPEM))
		if block == nil {
			return nil, errors.New("malformed x5c certificate")
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parsing x5c certificate: %w", err)
		}
		key, ok := cert.PublicKey.(*rsa.PublicKey)
		if !ok {
			return nil, errors.New("x5c certificate does not hold an RSA key")
		}
		return key, nil
	}

	modulus, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decoding JWK modulus: %w", err)
	}
	exponent, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decoding JWK exponent: %w", err)
	}

	e := 0
	for _, b := range exponent {
		e = e<<8 | int(b)
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(modulus),
		E: e,
	}, nil
}

// maxAgeFromCacheHeader extracts the max-age directive from a Cache-Control
// header value, returning 0 when absent or unparsable.
func maxAgeFromCacheHeader(cacheControl string) int {
	for _, directive := range strings.Split(cacheControl, ",") {
		directive = strings.TrimSpace(directive)
		if !strings.HasPrefix(directive, "max-age=") {
			continue
		}
		maxAge, err := strconv.Atoi(strings.TrimPrefix(directive, "max-age="))
		if err != nil {
			return 0
		}
		return maxAge
	}
	return 0
}
