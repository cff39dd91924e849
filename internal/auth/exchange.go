package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sopatech/hiddengems/internal/infra"
	"github.com/sopatech/hiddengems/internal/metrics"
	"github.com/sopatech/hiddengems/internal/session"
)

// maxTokenResponse bounds how much of a token endpoint body is read.
const maxTokenResponse = 1 << 20

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int    `json:"expires_in"`
	Scope            string `json:"scope"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Exchanger trades an AuthToken for a TokenPair at the provider's token endpoint.
type Exchanger struct {
	cfg     ProviderConfig
	api     *infra.APIClient
	metrics *metrics.Recorder
}

// NewExchanger returns an Exchanger for cfg. api may be nil (an instrumented default client is
// used); rec may be nil.
func NewExchanger(cfg ProviderConfig, api *infra.APIClient, rec *metrics.Recorder) *Exchanger {
	if api == nil {
		api = infra.NewAPIClient(cfg.TokenEndpoint, nil)
	}
	return &Exchanger{cfg: cfg, api: api, metrics: rec}
}

// Exchange performs one token request for tok. The verifier is read from store for AuthCode;
// RefreshToken and NoToken never touch store, which may be nil for them.
//
// On any failure the returned pair is the zero TokenPair and err matches ErrConfiguration,
// ErrNetwork or ErrProvider. Configuration errors are reported before any request is sent.
func (e *Exchanger) Exchange(ctx context.Context, tok AuthToken, store session.Store) (TokenPair, error) {
	grant := tok.Kind().String()
	pair, err := e.exchange(ctx, tok, store)
	e.metrics.ObserveExchange(grant, outcome(err))
	if err != nil {
		return TokenPair{}, err
	}
	return pair, nil
}

func (e *Exchanger) exchange(ctx context.Context, tok AuthToken, store session.Store) (TokenPair, error) {
	switch {
	case e.cfg.ClientID == "":
		return TokenPair{}, missingConfig("client id")
	case e.cfg.ClientSecret == "":
		return TokenPair{}, missingConfig("client secret")
	case e.cfg.TokenEndpoint == "":
		return TokenPair{}, missingConfig("token endpoint")
	}

	data := url.Values{}
	switch tok.Kind() {
	case GrantAuthCode:
		if store == nil {
			return TokenPair{}, missingConfig("session store")
		}
		// An absent verifier is sent as empty; the provider rejects it.
		verifier, _, err := store.LoadVerifier(ctx)
		if err != nil {
			return TokenPair{}, fmt.Errorf("%w: load verifier: %w", ErrNetwork, err)
		}
		data.Set("grant_type", "authorization_code")
		data.Set("code", tok.Value())
		data.Set("redirect_uri", e.cfg.RedirectURI)
		data.Set("code_verifier", verifier)
	case GrantRefreshToken:
		data.Set("grant_type", "refresh_token")
		data.Set("refresh_token", tok.Value())
	default:
		data.Set("grant_type", "client_credentials")
	}
	data.Set("client_id", e.cfg.ClientID)
	data.Set("client_secret", e.cfg.ClientSecret)

	return e.tokenRequest(ctx, data)
}

func (e *Exchanger) tokenRequest(ctx context.Context, data url.Values) (TokenPair, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.TokenEndpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return TokenPair{}, fmt.Errorf("%w: create token request: %v", ErrNetwork, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := e.api.DoWithRetry(ctx, req)
	if err != nil {
		return TokenPair{}, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenResponse))
	if err != nil {
		return TokenPair{}, fmt.Errorf("%w: read token response: %v", ErrNetwork, err)
	}

	var tr tokenResponse
	jsonErr := json.Unmarshal(body, &tr)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		perr := &ProviderError{Status: resp.StatusCode, Code: tr.Error, Description: tr.ErrorDescription}
		if jsonErr != nil || (perr.Code == "" && perr.Description == "") {
			perr.Description = http.StatusText(resp.StatusCode)
		}
		return TokenPair{}, perr
	}
	if jsonErr != nil {
		return TokenPair{}, &ProviderError{Status: resp.StatusCode, Description: "malformed token response"}
	}
	if tr.AccessToken == "" {
		return TokenPair{}, &ProviderError{Status: resp.StatusCode, Code: tr.Error, Description: "token response has no access_token"}
	}
	return TokenPair{AccessToken: tr.AccessToken, RefreshToken: tr.RefreshToken}, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, ErrConfiguration):
		return metrics.OutcomeConfigError
	case errors.Is(err, ErrProvider):
		return metrics.OutcomeProviderError
	default:
		return metrics.OutcomeNetworkError
	}
}
