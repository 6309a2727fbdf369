package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// DefaultTokenTTL is the fixed validity window for issued tokens. Tokens are
// never renewed or revoked; a compromised token stays valid until it expires.
const DefaultTokenTTL = 2 * time.Hour

// ErrTokenCreation indicates the signer is misconfigured (e.g. an unusable
// secret). It is a fatal configuration error, never a per-request condition.
var ErrTokenCreation = errors.New("token creation failed")

// TokenIssuer mints and verifies HMAC-SHA256 signed bearer tokens. It holds
// no per-request state; the symmetric secret never leaves the server.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenIssuer creates a token issuer. The secret must be at least 32 bytes
// (256 bits) for HMAC-SHA256; anything shorter is a configuration error.
func NewTokenIssuer(secret []byte, issuer string, ttl time.Duration) (*TokenIssuer, error) {
	if len(secret) < 32 {
		return nil, errors.New("token secret must be at least 32 bytes")
	}
	if issuer == "" {
		return nil, errors.New("token issuer is required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	return &TokenIssuer{
		secret: secret,
		issuer: issuer,
		ttl:    ttl,
	}, nil
}

// Issue creates a signed token whose subject is the given identity. An empty
// identity is a programmer error, not a security failure.
func (i *TokenIssuer) Issue(identity string) (string, error) {
	if identity == "" {
		return "", errors.New("identity is required")
	}

	now := time.Now()
	claims := &jwt.RegisteredClaims{
		Issuer:    i.issuer,
		Subject:   identity,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", errors.Join(ErrTokenCreation, err)
	}

	return token, nil
}

// Validate verifies signature, issuer, and expiration, returning the subject
// on success and "" on any failure. Malformed, tampered, and expired tokens
// all collapse into the same empty result so callers cannot distinguish
// attack attempts from benign expiry; the failure is still logged at debug
// level for audit purposes.
func (i *TokenIssuer) Validate(tokenString string) string {
	if tokenString == "" {
		return ""
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("invalid signing method")
		}
		return i.secret, nil
	},
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		log.Debug().Err(err).Msg("Token validation failed")
		return ""
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid {
		return ""
	}

	return claims.Subject
}
