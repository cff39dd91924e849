package auth

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2"

	"github.com/sopatech/hiddengems/internal/session"
)

// ProviderConfig is the OAuth client registration at the authorization server.
type ProviderConfig struct {
	ClientID          string
	ClientSecret      string
	RedirectURI       string
	Scope             string // space-separated
	AuthorizeEndpoint string
	TokenEndpoint     string
}

func (c ProviderConfig) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURI,
		Scopes:       strings.Fields(c.Scope),
		Endpoint: oauth2.Endpoint{
			AuthURL:  c.AuthorizeEndpoint,
			TokenURL: c.TokenEndpoint,
		},
	}
}

func (c ProviderConfig) checkAuthorize() error {
	switch {
	case c.ClientID == "":
		return missingConfig("client id")
	case c.RedirectURI == "":
		return missingConfig("redirect uri")
	case strings.TrimSpace(c.Scope) == "":
		return missingConfig("scope")
	case c.AuthorizeEndpoint == "":
		return missingConfig("authorize endpoint")
	}
	return nil
}

// BuildAuthURL starts an authorization attempt: it stores a fresh verifier and state in store
// (replacing any previous attempt in that scope) and returns the provider's authorize URL
// carrying the S256 challenge.
func BuildAuthURL(ctx context.Context, cfg ProviderConfig, store session.Store) (string, error) {
	if err := cfg.checkAuthorize(); err != nil {
		return "", err
	}

	verifier := GenerateVerifier(VerifierLength)
	state := GenerateState()
	if err := store.SaveVerifier(ctx, verifier); err != nil {
		return "", fmt.Errorf("save verifier: %w", err)
	}
	if err := store.SaveState(ctx, state); err != nil {
		return "", fmt.Errorf("save state: %w", err)
	}

	return cfg.oauth2Config().AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge_method", CodeChallengeMethodS256),
		oauth2.SetAuthURLParam("code_challenge", DeriveChallenge(verifier)),
	), nil
}
