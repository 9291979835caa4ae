package auth

import (
	"context"
	"log/slog"
	"slices"

	"github.com/golang-jwt/jwt/v5"

	"github.com/transitnet/transitnet-cli/internal/output"
)

// Claims are the decoded fields of a validated credential.
type Claims struct {
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// HasPermission reports whether the credential carries the named permission.
// A credential without a permissions array carries none.
func (c *Claims) HasPermission(name string) bool {
	return slices.Contains(c.Permissions, name)
}

// Validator verifies a credential's signature, issuer, audience, algorithm,
// and expiry against the provider's public key set. Validation is
// all-or-nothing: any mismatch fails with an invalid-credential error.
type Validator struct {
	issuer   string
	audience string
	keys     *KeySet
	logger   *slog.Logger
}

// NewValidator creates a validator for the configured issuer and audience.
func NewValidator(issuer, audience string, keys *KeySet, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{
		issuer:   issuer,
		audience: audience,
		keys:     keys,
		logger:   logger,
	}
}

// Validate verifies the raw credential and returns its claims. Only RS256
// signatures are accepted; a token signed with any other algorithm is
// rejected before signature verification.
func (v *Validator) Validate(ctx context.Context, raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, v.keys.Keyfunc(ctx),
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		v.logger.Debug("credential validation failed", "error", err)
		return nil, output.ErrInvalidCredential(err)
	}
	return claims, nil
}
