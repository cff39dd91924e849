package auth

import (
	"context"
	"crypto/subtle"
	"net/url"

	"github.com/sopatech/hiddengems/internal/session"
)

func redirectQuery(redirectURL string) url.Values {
	u, err := url.Parse(redirectURL)
	if err != nil {
		return url.Values{}
	}
	return u.Query()
}

// ExtractCode returns the "code" query parameter of the redirect URL.
func ExtractCode(redirectURL string) (string, bool) {
	code := redirectQuery(redirectURL).Get("code")
	return code, code != ""
}

// VerifyState reports whether the redirect's "state" equals the state stored for this attempt.
// A missing state on either side is a mismatch.
func VerifyState(ctx context.Context, store session.Store, redirectURL string) (bool, error) {
	return StateMatches(ctx, store, redirectQuery(redirectURL).Get("state"))
}

// StateMatches compares a state value returned by the provider with the stored one.
func StateMatches(ctx context.Context, store session.Store, got string) (bool, error) {
	if got == "" {
		return false, nil
	}
	want, ok, err := store.LoadState(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1, nil
}

// CodeFromRedirect validates the redirect and returns its authorization code. The state is
// checked before anything else in the URL is trusted.
func CodeFromRedirect(ctx context.Context, store session.Store, redirectURL string) (string, error) {
	ok, err := VerifyState(ctx, store, redirectURL)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrStateMismatch
	}
	q := redirectQuery(redirectURL)
	if e := q.Get("error"); e != "" {
		return "", &DeniedError{Code: e, Description: q.Get("error_description")}
	}
	code := q.Get("code")
	if code == "" {
		return "", ErrMissingCode
	}
	return code, nil
}
