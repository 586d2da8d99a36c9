package middleware

import (
	"net/http"
	"strings"

	"github.com/itinera/backend/internal/auth"
	"github.com/itinera/backend/internal/domain"
)

// TokenVerifier turns a bearer token into an actor. *auth.TokenManager satisfies it.
type TokenVerifier interface {
	Verify(token string) (domain.Actor, error)
}

// NewAuthenticator returns a middleware that requires an
// "Authorization: Bearer <token>" header. A verified actor is stored in the
// request context (see auth.ActorFrom); anything else gets 401.
func NewAuthenticator(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer realm="itinera"`)
				writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
				return
			}
			actor, err := v.Verify(token)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="itinera", error="invalid_token"`)
				writeError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
				return
			}

			setLogUser(r.Context(), actor.UserID)
			next.ServeHTTP(w, r.WithContext(auth.WithActor(r.Context(), actor)))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
