package server

import (
	"net/http"

	"github.com/rs/zerolog"
	"github.com/taskforge/taskforge/internal/auth"
	httpmiddleware "github.com/taskforge/taskforge/internal/http"
	"github.com/taskforge/taskforge/internal/telemetry"
)

// authenticateMiddleware resolves the bearer token on every request and
// stores the resulting principal in the context. Requests without a usable
// token proceed anonymously; the authorization middleware decides whether
// that is enough for the route. A syntactically valid token whose subject no
// longer exists is rejected outright.
func authenticateMiddleware(authenticator *auth.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := authenticator.Authenticate(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				telemetry.GetMetrics().DanglingTokenRejectsTotal.Add(r.Context(), 1)
				zerolog.Ctx(r.Context()).Warn().
					Err(err).
					Str("client_ip", httpmiddleware.ClientIPFromContext(r.Context())).
					Msg("Rejected credential")
				renderError(w, r, err)
				return
			}

			if principal != nil {
				r = r.WithContext(auth.ContextWithPrincipal(r.Context(), principal))
			}

			next.ServeHTTP(w, r)
		})
	}
}

// authorizeMiddleware enforces the route policy against the principal
// resolved by authenticateMiddleware.
func authorizeMiddleware(policy *auth.Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := auth.PrincipalFromContext(r.Context())

			if err := policy.Authorize(principal, r.Method, r.URL.Path); err != nil {
				telemetry.GetMetrics().AccessDeniedTotal.Add(r.Context(), 1)
				logEvent := zerolog.Ctx(r.Context()).Warn().
					Err(err).
					Str("client_ip", httpmiddleware.ClientIPFromContext(r.Context()))
				if principal != nil {
					logEvent = logEvent.Str("login", principal.Login)
				}
				logEvent.Msg("Request blocked by route policy")
				renderError(w, r, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
