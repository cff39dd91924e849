package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	slogctx "github.com/veqryn/slog-context"

	"github.com/sopatech/hiddengems/internal/session"
)

// Token request types accepted by POST /api/auth/token.
const (
	TypeNone         = "none"
	TypeAuthCode     = "auth_code"
	TypeRefreshToken = "refresh_token"
)

// Handler serves the browser side of the authorization flow. Routes must be wrapped with Session.
type Handler struct {
	provider  ProviderConfig
	exchanger *Exchanger
	sessions  session.Backend
	ttl       time.Duration
}

func NewHandler(provider ProviderConfig, exchanger *Exchanger, sessions session.Backend, ttl time.Duration) *Handler {
	return &Handler{provider: provider, exchanger: exchanger, sessions: sessions, ttl: ttl}
}

func (h *Handler) store(r *http.Request) *session.Scoped {
	return session.Scope(h.sessions, SessionIDFromContext(r.Context()), h.ttl)
}

// URL starts an attempt for the caller's session and returns {"url": authorize URL}.
func (h *Handler) URL(w http.ResponseWriter, r *http.Request) {
	u, err := BuildAuthURL(r.Context(), h.provider, h.store(r))
	if err != nil {
		slogctx.Error(r.Context(), "failed to build authorize url", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": u})
}

// Token exchanges per the request type and returns [access, refresh]. Exchange failures answer
// ["", ""]; a state mismatch on auth_code is a 400.
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Type        string `json:"type"`
		AccessToken string `json:"access_token"`
		State       string `json:"state"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	store := h.store(r)
	var tok AuthToken
	switch body.Type {
	case TypeNone, "":
		tok = NoToken()
	case TypeRefreshToken:
		tok = RefreshToken(body.AccessToken)
	case TypeAuthCode:
		ok, err := StateMatches(ctx, store, body.State)
		if err != nil {
			slogctx.Error(ctx, "failed to load state", "err", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if !ok {
			slogctx.Warn(ctx, "state mismatch on token request")
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		tok = AuthCode(body.AccessToken)
	default:
		http.Error(w, "type must be none, auth_code or refresh_token", http.StatusBadRequest)
		return
	}

	h.exchange(w, r, tok, store)
}

// Callback handles the provider redirect directly: /api/auth/callback?code=&state=.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	store := h.store(r)
	code, err := CodeFromRedirect(r.Context(), store, r.URL.String())
	if err != nil {
		switch {
		case errors.Is(err, ErrStateMismatch):
			http.Error(w, "state mismatch", http.StatusBadRequest)
		case errors.Is(err, ErrAuthorizationDenied):
			http.Error(w, err.Error(), http.StatusForbidden)
		case errors.Is(err, ErrMissingCode):
			http.Error(w, "code required", http.StatusBadRequest)
		default:
			slogctx.Error(r.Context(), "failed to read redirect", "err", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}
	h.exchange(w, r, AuthCode(code), store)
}

// exchange runs the token request. A successful code exchange consumes the scope's attempt,
// so its state cannot be replayed.
func (h *Handler) exchange(w http.ResponseWriter, r *http.Request, tok AuthToken, store *session.Scoped) {
	ctx := slogctx.With(r.Context(), "grant", tok.Kind().String())
	pair, err := h.exchanger.Exchange(ctx, tok, store)
	if err != nil {
		if errors.Is(err, ErrConfiguration) {
			slogctx.Error(ctx, "token exchange misconfigured", "err", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		slogctx.Warn(ctx, "token exchange failed", "err", err)
	} else if tok.Kind() == GrantAuthCode {
		if err := store.Clear(ctx); err != nil {
			slogctx.Warn(ctx, "failed to clear auth session", "err", err)
		}
	}
	writeJSON(w, http.StatusOK, pair)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
