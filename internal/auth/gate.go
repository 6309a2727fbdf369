package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/taskforge/taskforge/internal/store"
)

var (
	// ErrAuthenticationRequired is returned when a protected route is called
	// without a usable credential.
	ErrAuthenticationRequired = errors.New("authentication required")

	// ErrAccessDenied is returned when a valid credential lacks the
	// capability a route or operation requires.
	ErrAccessDenied = errors.New("access denied")
)

// Authenticator resolves bearer tokens into Principals. It runs once per
// inbound request, before routing to business logic, and holds no state
// across requests.
type Authenticator struct {
	tokens   *TokenIssuer
	accounts store.AccountStore
}

// NewAuthenticator creates an authenticator backed by the given token issuer
// and account store.
func NewAuthenticator(tokens *TokenIssuer, accounts store.AccountStore) *Authenticator {
	return &Authenticator{
		tokens:   tokens,
		accounts: accounts,
	}
}

// Authenticate establishes the caller identity for one request from the
// Authorization header value.
//
// A missing header, a missing "Bearer " prefix, or an invalid token all yield
// an anonymous (nil, nil) result; whether anonymous access is acceptable is
// the policy's decision, not the gate's. The one hard failure is a valid
// token whose subject no longer resolves to an account: a dangling token is
// rejected outright rather than downgraded to anonymous.
func (a *Authenticator) Authenticate(ctx context.Context, authorizationHeader string) (*Principal, error) {
	tokenString, ok := bearerToken(authorizationHeader)
	if !ok {
		return nil, nil
	}

	identity := a.tokens.Validate(tokenString)
	if identity == "" {
		return nil, nil
	}

	account, err := a.accounts.GetByLogin(ctx, identity)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			log.Warn().Str("subject", identity).Msg("Valid token for deleted account")
			return nil, fmt.Errorf("%w: token subject no longer exists", ErrAuthenticationRequired)
		}
		return nil, fmt.Errorf("failed to resolve token subject: %w", err)
	}

	return &Principal{
		ID:    account.ID,
		Login: account.Login,
		Role:  account.Role,
	}, nil
}

// bearerToken extracts the token from an Authorization header value.
func bearerToken(header string) (string, bool) {
	if header == "" {
		return "", false
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}

	return token, true
}
