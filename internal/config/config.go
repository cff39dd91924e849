package config

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/sopatech/hiddengems/internal/auth"
	"github.com/sopatech/hiddengems/internal/session"
)

var ErrInvalid = errors.New("invalid configuration")

// minSessionSecret is the shortest HS256 key accepted for the session cookie.
const minSessionSecret = 32

type Config struct {
	Addr           string        `envconfig:"ADDR" default:":8080"`
	ClientID       string        `envconfig:"SPOTIFY_CLIENT_ID" required:"true"`
	ClientSecret   string        `envconfig:"SPOTIFY_CLIENT_SECRET" required:"true" obfuscate:"true"`
	RedirectURI    string        `envconfig:"HOST" required:"true"` // where Spotify sends the browser back, e.g. http://localhost:5173/
	Scope          string        `envconfig:"SPOTIFY_SCOPE" required:"true"` // space-separated, e.g. "playlist-modify-private user-top-read"
	AccountsURL    string        `envconfig:"SPOTIFY_ACCOUNTS_URL" default:"https://accounts.spotify.com"`
	APIURL         string        `envconfig:"SPOTIFY_API_URL" default:"https://api.spotify.com/v1"`
	SessionSecret  string        `envconfig:"SESSION_SECRET" required:"true" obfuscate:"true"`
	SessionBackend string        `envconfig:"SESSION_BACKEND" default:"memory"` // memory, redis, valkey or dynamo
	SessionTTL     time.Duration `envconfig:"SESSION_TTL" default:"10m"`
	RedisAddr      string        `envconfig:"REDIS_ADDR"`
	RedisPassword  string        `envconfig:"REDIS_PASSWORD" obfuscate:"true"`
	ValkeyAddr     string        `envconfig:"VALKEY_ADDR"`
	AWSRegion      string        `envconfig:"AWS_REGION" default:"us-east-1"`
	DynamoTable    string        `envconfig:"DYNAMO_TABLE" default:"hiddengems"`
	DynamoEndpoint string        `envconfig:"DYNAMODB_ENDPOINT"` // optional, e.g. http://localhost:8001 for DynamoDB Local
	CookieSecure   bool          `envconfig:"COOKIE_SECURE" default:"true"`
	AllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS"` // empty keeps the API same-origin
	StaticDir      string        `envconfig:"STATIC_DIR"` // optional; built front end served with index.html fallback
}

func Load() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks requirements envconfig cannot express.
func (c *Config) Validate() error {
	if len(c.SessionSecret) < minSessionSecret {
		return fmt.Errorf("%w: SESSION_SECRET must be at least %d bytes", ErrInvalid, minSessionSecret)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("%w: SESSION_TTL must be positive", ErrInvalid)
	}
	switch c.SessionBackend {
	case session.BackendMemory:
	case session.BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("%w: REDIS_ADDR is required for the redis session backend", ErrInvalid)
		}
	case session.BackendValkey:
		if c.ValkeyAddr == "" {
			return fmt.Errorf("%w: VALKEY_ADDR is required for the valkey session backend", ErrInvalid)
		}
	case session.BackendDynamo:
		if c.DynamoTable == "" {
			return fmt.Errorf("%w: DYNAMO_TABLE is required for the dynamo session backend", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown SESSION_BACKEND %q", ErrInvalid, c.SessionBackend)
	}
	return nil
}

// Provider returns the Spotify accounts service registration.
func (c *Config) Provider() auth.ProviderConfig {
	return provider(c.AccountsURL, c.ClientID, c.ClientSecret, c.RedirectURI, c.Scope)
}

func (c *Config) SessionBackendConfig() session.BackendConfig {
	return session.BackendConfig{
		Kind:           c.SessionBackend,
		TTL:            c.SessionTTL,
		RedisAddr:      c.RedisAddr,
		RedisPassword:  c.RedisPassword,
		ValkeyAddr:     c.ValkeyAddr,
		AWSRegion:      c.AWSRegion,
		DynamoTable:    c.DynamoTable,
		DynamoEndpoint: c.DynamoEndpoint,
	}
}

func (c *Config) Cookie() auth.CookieConfig {
	return auth.CookieConfig{
		Secure: c.CookieSecure,
		Secret: []byte(c.SessionSecret),
		TTL:    c.SessionTTL,
	}
}

// Client is the terminal client's configuration. Its redirect URI comes from the loopback listener.
type Client struct {
	ClientID     string `envconfig:"SPOTIFY_CLIENT_ID" required:"true"`
	ClientSecret string `envconfig:"SPOTIFY_CLIENT_SECRET" required:"true" obfuscate:"true"`
	Scope        string `envconfig:"SPOTIFY_SCOPE" required:"true"`
	AccountsURL  string `envconfig:"SPOTIFY_ACCOUNTS_URL" default:"https://accounts.spotify.com"`
	APIURL       string `envconfig:"SPOTIFY_API_URL" default:"https://api.spotify.com/v1"`
	AccessToken  string `envconfig:"SPOTIFY_TOKEN" obfuscate:"true"` // optional default for commands calling the Web API
}

func LoadClient() (*Client, error) {
	var c Client
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Client) Provider(redirectURI string) auth.ProviderConfig {
	return provider(c.AccountsURL, c.ClientID, c.ClientSecret, redirectURI, c.Scope)
}

func provider(accountsURL, clientID, clientSecret, redirectURI, scope string) auth.ProviderConfig {
	accounts := strings.TrimSuffix(accountsURL, "/")
	return auth.ProviderConfig{
		ClientID:          clientID,
		ClientSecret:      clientSecret,
		RedirectURI:       redirectURI,
		Scope:             scope,
		AuthorizeEndpoint: accounts + "/authorize",
		TokenEndpoint:     accounts + "/api/token",
	}
}

var durationType = reflect.TypeOf(time.Duration(0))

// ObfuscateStr returns a masked version of s for safe logging (e.g. secrets).
func ObfuscateStr(s string) string {
	if len(s) <= 2 {
		return "**"
	}
	if len(s) < 8 {
		return s[:1] + "****" + s[len(s)-1:]
	}
	return s[:4] + "****" + s[len(s)-4:]
}

// LogConfigVars logs each field of config that has an envconfig tag.
// Fields with struct tag obfuscate:"true" are masked via ObfuscateStr.
// config must be a struct or pointer to struct.
func LogConfigVars(logger *slog.Logger, config any) {
	v := reflect.ValueOf(config)
	t := reflect.TypeOf(config)

	if v.Kind() == reflect.Pointer {
		v = v.Elem()
		t = t.Elem()
	}

	if v.Kind() != reflect.Struct {
		logger.Error("config must be a struct")
		return
	}

	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		fieldValue := v.Field(i)

		envTag := field.Tag.Get("envconfig")
		if envTag == "" {
			continue
		}
		envKey := strings.Fields(envTag)[0]

		shouldObfuscate := field.Tag.Get("obfuscate") == "true"

		var valueStr string
		switch {
		case fieldValue.Type() == durationType:
			valueStr = time.Duration(fieldValue.Int()).String()
		case fieldValue.Kind() == reflect.String:
			valueStr = fieldValue.String()
		case fieldValue.CanInt():
			valueStr = fmt.Sprintf("%d", fieldValue.Int())
		case fieldValue.Kind() == reflect.Bool:
			valueStr = fmt.Sprintf("%t", fieldValue.Bool())
		case fieldValue.CanFloat():
			valueStr = fmt.Sprintf("%.2f", fieldValue.Float())
		default:
			valueStr = fmt.Sprintf("%v", fieldValue.Interface())
		}

		if shouldObfuscate {
			valueStr = ObfuscateStr(valueStr)
		}

		logger.Info("config", "var", envKey, "value", valueStr)
	}
}
