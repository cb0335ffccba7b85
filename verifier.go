package session

import (
	"context"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// JWKSVerifier validates access tokens against the auth service's JWKS
// endpoint. Configure it on the controller with WithTokenVerifier when token
// claims should only seed an Identity after a signature check.
type JWKSVerifier struct {
	jwks *keyfunc.JWKS
}

var _ TokenVerifier = (*JWKSVerifier)(nil)

// NewJWKSVerifier fetches the key set and keeps it refreshed until ctx is
// cancelled.
func NewJWKSVerifier(ctx context.Context, jwksURL string, refreshInterval time.Duration) (*JWKSVerifier, error) {
	if refreshInterval <= 0 {
		refreshInterval = time.Hour
	}

	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		Ctx:               ctx,
		RefreshInterval:   refreshInterval,
		RefreshRateLimit:  time.Minute,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to fetch JWKS")
	}

	return &JWKSVerifier{jwks: jwks}, nil
}

// Verify parses and validates the raw token signature and registered claims.
func (v *JWKSVerifier) Verify(raw string) error {
	token, err := jwt.Parse(raw, v.jwks.Keyfunc)
	if err != nil {
		return ErrTokenVerification.WithMetadata(map[string]any{"cause": err.Error()})
	}

	if !token.Valid {
		return ErrTokenVerification
	}

	return nil
}

// TokenVerifierFunc adapts a function to the TokenVerifier interface.
type TokenVerifierFunc func(raw string) error

// Verify implements TokenVerifier.
func (f TokenVerifierFunc) Verify(raw string) error {
	if f == nil {
		return nil
	}
	return f(raw)
}
