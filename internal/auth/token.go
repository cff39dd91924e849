package auth

import "encoding/json"

// GrantKind identifies which OAuth grant an AuthToken drives.
type GrantKind int

const (
	GrantNone GrantKind = iota
	GrantAuthCode
	GrantRefreshToken
)

func (k GrantKind) String() string {
	switch k {
	case GrantAuthCode:
		return "authorization_code"
	case GrantRefreshToken:
		return "refresh_token"
	default:
		return "client_credentials"
	}
}

// AuthToken is the input to a token exchange: nothing, an authorization code, or a refresh token.
// The zero value is NoToken.
type AuthToken struct {
	kind  GrantKind
	value string
}

func NoToken() AuthToken {
	return AuthToken{kind: GrantNone}
}

func AuthCode(code string) AuthToken {
	return AuthToken{kind: GrantAuthCode, value: code}
}

func RefreshToken(token string) AuthToken {
	return AuthToken{kind: GrantRefreshToken, value: token}
}

func (t AuthToken) Kind() GrantKind { return t.kind }

// Value returns the code or refresh token; "" for NoToken.
func (t AuthToken) Value() string { return t.value }

// TokenPair is the result of an exchange. An empty RefreshToken means none was issued;
// the zero TokenPair means no token was obtained.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

func (p TokenPair) IsZero() bool {
	return p.AccessToken == "" && p.RefreshToken == ""
}

// MarshalJSON encodes the pair as ["access", "refresh"], the shape the front end consumes.
func (p TokenPair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{p.AccessToken, p.RefreshToken})
}
