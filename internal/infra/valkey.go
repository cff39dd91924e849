package infra

import (
	"errors"

	"github.com/valkey-io/valkey-go"
)

// NewValkey creates a Valkey client for the given host:port.
func NewValkey(addr string) (valkey.Client, error) {
	if addr == "" {
		return nil, errors.New("valkey: addr is required")
	}
	return valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
}
