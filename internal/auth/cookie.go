package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionCookieName carries the signed browser-session id that scopes the PKCE record.
const SessionCookieName = "hg_session"

const sessionIssuer = "hiddengems"

// CookieConfig controls the session cookie. Secret signs it (HS256); TTL bounds its lifetime.
type CookieConfig struct {
	Secure bool // Secure=true means cookies only sent over HTTPS. Set false for local HTTP dev.
	Secret []byte
	TTL    time.Duration
}

// NewSessionID returns a fresh random session id.
func NewSessionID() string {
	return uuid.NewString()
}

// SignSessionID returns the cookie value for id.
func (c CookieConfig) SignSessionID(id string, now time.Time) (string, error) {
	if len(c.Secret) == 0 {
		return "", missingConfig("session secret")
	}
	claims := jwt.RegisteredClaims{
		ID:        id,
		Issuer:    sessionIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.TTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.Secret)
}

// ParseSessionID validates a cookie value and returns the session id it carries.
func (c CookieConfig) ParseSessionID(value string) (string, error) {
	if len(c.Secret) == 0 {
		return "", missingConfig("session secret")
	}
	tok, err := jwt.ParseWithClaims(value, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.Secret, nil
	}, jwt.WithExpirationRequired(), jwt.WithIssuer(sessionIssuer))
	if err != nil {
		return "", err
	}
	claims, ok := tok.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.ID == "" {
		return "", errors.New("session cookie has no id")
	}
	return claims.ID, nil
}

// SetSessionCookie writes the signed session cookie for id on w.
func SetSessionCookie(w http.ResponseWriter, cfg CookieConfig, id string) error {
	value, err := cfg.SignSessionID(id, time.Now())
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(cfg.TTL / time.Second),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// SessionIDFromRequest returns the id carried by a valid session cookie, or "".
func SessionIDFromRequest(r *http.Request, cfg CookieConfig) string {
	c, err := r.Cookie(SessionCookieName)
	if err != nil || c.Value == "" {
		return ""
	}
	id, err := cfg.ParseSessionID(c.Value)
	if err != nil {
		return ""
	}
	return id
}
