package auth

import (
	"context"
	"net/http"
	"strings"

	slogctx "github.com/veqryn/slog-context"
)

type sessionKey struct{}
type accessTokenKey struct{}

// Session resolves the browser session id from the signed cookie, issuing a new id when the
// cookie is missing or invalid, and re-sets the cookie so its lifetime restarts. The id is
// available via SessionIDFromContext and is attached to context logging.
func Session(cfg CookieConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := SessionIDFromRequest(r, cfg)
			if id == "" {
				id = NewSessionID()
			}
			if err := SetSessionCookie(w, cfg, id); err != nil {
				slogctx.Error(r.Context(), "failed to sign session cookie", "err", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			ctx := context.WithValue(r.Context(), sessionKey{}, id)
			ctx = slogctx.With(ctx, "session_id", id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionIDFromContext returns the session ID from the request context, or "" if not set.
func SessionIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(sessionKey{}).(string)
	return v
}

// AccessToken puts the caller's Spotify access token (Authorization Bearer, else the "token"
// query parameter) in the request context. Requests without one pass through unchanged.
func AccessToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tok := AccessTokenFromRequest(r); tok != "" {
			r = r.WithContext(context.WithValue(r.Context(), accessTokenKey{}, tok))
		}
		next.ServeHTTP(w, r)
	})
}

// AccessTokenFromRequest returns the bearer token, falling back to the "token" query parameter.
func AccessTokenFromRequest(r *http.Request) string {
	const prefix = "Bearer "
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, prefix) {
		if tok := strings.TrimSpace(h[len(prefix):]); tok != "" {
			return tok
		}
	}
	return r.URL.Query().Get("token")
}

// AccessTokenFromContext returns the access token set by AccessToken, or "".
func AccessTokenFromContext(ctx context.Context) string {
	v, _ := ctx.Value(accessTokenKey{}).(string)
	return v
}
