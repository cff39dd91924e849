package auth

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sopatech/hiddengems/internal/session"
)

// newAuthServer mounts the auth handler the way the router does and returns a client with a cookie jar.
func newAuthServer(t *testing.T, provider ProviderConfig) (*httptest.Server, *http.Client) {
	t.Helper()
	backend := session.NewCacheBackend(time.Minute)
	h := NewHandler(provider, NewExchanger(provider, nil, nil), backend, time.Minute)

	cookies := testCookieConfig()
	cookies.Secure = false
	mw := Session(cookies)
	mux := http.NewServeMux()
	mux.Handle("GET /api/auth/url", mw(http.HandlerFunc(h.URL)))
	mux.Handle("POST /api/auth/token", mw(http.HandlerFunc(h.Token)))
	mux.Handle("GET /api/auth/callback", mw(http.HandlerFunc(h.Callback)))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return srv, &http.Client{Jar: jar}
}

func getAuthURL(t *testing.T, client *http.Client, base string) *url.URL {
	t.Helper()
	resp, err := client.Get(base + "/api/auth/url")
	require.NoError(t, err)
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", string(b))

	var body struct {
		URL string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(b, &body))
	u, err := url.Parse(body.URL)
	require.NoError(t, err)
	return u
}

func postToken(t *testing.T, client *http.Client, base, body string) (int, []string) {
	t.Helper()
	resp, err := client.Post(base+"/api/auth/token", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, nil
	}
	var pair []string
	require.NoError(t, json.Unmarshal(b, &pair), "body: %s", string(b))
	return resp.StatusCode, pair
}

// --- /api/auth/url ---

func TestHandler_URL_SetsSessionCookie(t *testing.T) {
	_, cfg := newExchangeServer(t, http.StatusOK, `{"access_token":"A"}`)
	srv, client := newAuthServer(t, cfg)

	u := getAuthURL(t, client, srv.URL)
	require.Equal(t, "S256", u.Query().Get("code_challenge_method"))
	require.Len(t, u.Query().Get("state"), StateLength)

	base, _ := url.Parse(srv.URL)
	var found bool
	for _, c := range client.Jar.Cookies(base) {
		if c.Name == SessionCookieName {
			found = true
		}
	}
	require.True(t, found, "session cookie not set")
}

func TestHandler_URL_MisconfiguredIs500(t *testing.T) {
	cfg := testProvider()
	cfg.ClientID = ""
	srv, client := newAuthServer(t, cfg)

	resp, err := client.Get(srv.URL + "/api/auth/url")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

// --- /api/auth/token ---

func TestHandler_Token_AuthCodeFlow(t *testing.T) {
	fake, cfg := newExchangeServer(t, http.StatusOK, `{"access_token":"A","refresh_token":"R"}`)
	srv, client := newAuthServer(t, cfg)

	u := getAuthURL(t, client, srv.URL)
	state := u.Query().Get("state")

	status, pair := postToken(t, client, srv.URL, `{"type":"auth_code","access_token":"CODE","state":"`+state+`"}`)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, []string{"A", "R"}, pair)

	form := fake.lastForm(t)
	require.Equal(t, "CODE", form.Get("code"))
	require.True(t, VerifyCodeVerifier(form.Get("code_verifier"), u.Query().Get("code_challenge"), "S256"))
}

func TestHandler_Token_AuthCodeStateIsSingleUse(t *testing.T) {
	fake, cfg := newExchangeServer(t, http.StatusOK, `{"access_token":"A","refresh_token":"R"}`)
	srv, client := newAuthServer(t, cfg)
	state := getAuthURL(t, client, srv.URL).Query().Get("state")
	body := `{"type":"auth_code","access_token":"CODE","state":"` + state + `"}`

	status, _ := postToken(t, client, srv.URL, body)
	require.Equal(t, http.StatusOK, status)

	status, _ = postToken(t, client, srv.URL, body)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, 1, fake.calls())
}

func TestHandler_Token_AuthCodeStateMismatch(t *testing.T) {
	fake, cfg := newExchangeServer(t, http.StatusOK, `{"access_token":"A"}`)
	srv, client := newAuthServer(t, cfg)
	getAuthURL(t, client, srv.URL)

	status, _ := postToken(t, client, srv.URL, `{"type":"auth_code","access_token":"CODE","state":"wrong"}`)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, 0, fake.calls())
}

func TestHandler_Token_OtherSessionCannotUseState(t *testing.T) {
	_, cfg := newExchangeServer(t, http.StatusOK, `{"access_token":"A"}`)
	srv, alice := newAuthServer(t, cfg)
	state := getAuthURL(t, alice, srv.URL).Query().Get("state")

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	bob := &http.Client{Jar: jar}
	status, _ := postToken(t, bob, srv.URL, `{"type":"auth_code","access_token":"CODE","state":"`+state+`"}`)
	require.Equal(t, http.StatusBadRequest, status)
}

func TestHandler_Token_RefreshAndNone(t *testing.T) {
	fake, cfg := newExchangeServer(t, http.StatusOK, `{"access_token":"A"}`)
	srv, client := newAuthServer(t, cfg)

	status, pair := postToken(t, client, srv.URL, `{"type":"refresh_token","access_token":"R0"}`)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, []string{"A", ""}, pair)
	require.Equal(t, "R0", fake.lastForm(t).Get("refresh_token"))

	status, pair = postToken(t, client, srv.URL, `{"type":"none"}`)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, []string{"A", ""}, pair)
	require.Equal(t, "client_credentials", fake.lastForm(t).Get("grant_type"))
}

func TestHandler_Token_ExchangeFailureIsEmptyPair(t *testing.T) {
	_, cfg := newExchangeServer(t, http.StatusBadRequest, `{"error":"invalid_grant"}`)
	srv, client := newAuthServer(t, cfg)

	status, pair := postToken(t, client, srv.URL, `{"type":"refresh_token","access_token":"bad"}`)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, []string{"", ""}, pair)
}

func TestHandler_Token_BadRequests(t *testing.T) {
	_, cfg := newExchangeServer(t, http.StatusOK, `{"access_token":"A"}`)
	srv, client := newAuthServer(t, cfg)

	status, _ := postToken(t, client, srv.URL, `{"type":"password"}`)
	require.Equal(t, http.StatusBadRequest, status)

	status, _ = postToken(t, client, srv.URL, `not json`)
	require.Equal(t, http.StatusBadRequest, status)
}

func TestHandler_Token_MissingSecretIs500(t *testing.T) {
	_, cfg := newExchangeServer(t, http.StatusOK, `{"access_token":"A"}`)
	cfg.ClientSecret = ""
	srv, client := newAuthServer(t, cfg)

	status, _ := postToken(t, client, srv.URL, `{"type":"none"}`)
	require.Equal(t, http.StatusInternalServerError, status)
}

// --- /api/auth/callback ---

func TestHandler_Callback(t *testing.T) {
	_, cfg := newExchangeServer(t, http.StatusOK, `{"access_token":"A","refresh_token":"R"}`)
	srv, client := newAuthServer(t, cfg)
	state := getAuthURL(t, client, srv.URL).Query().Get("state")

	tests := []struct {
		name   string
		query  string
		status int
	}{
		{"mismatch", "code=C&state=nope", http.StatusBadRequest},
		{"denied", "error=access_denied&state=" + state, http.StatusForbidden},
		{"no code", "state=" + state, http.StatusBadRequest},
		{"ok", "code=C&state=" + state, http.StatusOK},
		// the successful exchange consumed the attempt
		{"replayed", "code=C&state=" + state, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := client.Get(srv.URL + "/api/auth/callback?" + tt.query)
			require.NoError(t, err)
			defer resp.Body.Close()
			b, _ := io.ReadAll(resp.Body)
			require.Equal(t, tt.status, resp.StatusCode, "body: %s", string(b))
			if tt.status == http.StatusOK {
				require.JSONEq(t, `["A","R"]`, string(b))
			}
		})
	}
}

// --- access token ---

func TestAccessTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/user?token=q", nil)
	require.Equal(t, "q", AccessTokenFromRequest(r))

	r.Header.Set("Authorization", "Bearer h")
	require.Equal(t, "h", AccessTokenFromRequest(r))

	r = httptest.NewRequest(http.MethodGet, "/api/user", nil)
	r.Header.Set("Authorization", "Basic xyz")
	require.Equal(t, "", AccessTokenFromRequest(r))
}

func TestAccessTokenMiddleware(t *testing.T) {
	var got string
	h := AccessToken(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = AccessTokenFromContext(r.Context())
	}))
	r := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	r.Header.Set("Authorization", "Bearer tok")
	h.ServeHTTP(httptest.NewRecorder(), r)
	require.Equal(t, "tok", got)
}
