package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"
)

// ValkeyBackend stores sessions as JSON under "<prefix>:pkce:<id>".
type ValkeyBackend struct {
	client valkey.Client
	prefix string
}

var _ Backend = (*ValkeyBackend)(nil)

func NewValkeyBackend(client valkey.Client, prefix string) *ValkeyBackend {
	prefix = strings.TrimSuffix(prefix, ":")
	if prefix == "" {
		prefix = "hiddengems"
	}
	return &ValkeyBackend{client: client, prefix: prefix}
}

func (b *ValkeyBackend) key(id string) string {
	return fmt.Sprintf("%s:pkce:%s", b.prefix, id)
}

func (b *ValkeyBackend) Get(ctx context.Context, id string) (AuthSession, bool, error) {
	data, err := b.client.Do(ctx, b.client.B().Get().Key(b.key(id)).Build()).AsBytes()
	if err != nil {
		if valkeyErr, ok := valkey.IsValkeyErr(err); ok && valkeyErr.IsNil() {
			return AuthSession{}, false, nil
		}
		return AuthSession{}, false, fmt.Errorf("executing get command: %w", err)
	}

	var s AuthSession
	if err := json.Unmarshal(data, &s); err != nil {
		return AuthSession{}, false, fmt.Errorf("unmarshaling json: %w", err)
	}
	return s, true, nil
}

func (b *ValkeyBackend) Put(ctx context.Context, id string, s AuthSession, ttl time.Duration) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling json: %w", err)
	}

	set := b.client.B().Set().Key(b.key(id)).Value(valkey.BinaryString(data))
	var cmd valkey.Completed
	if secs := int64(ttl / time.Second); secs > 0 {
		cmd = set.ExSeconds(secs).Build()
	} else {
		cmd = set.Build()
	}
	if err := b.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("executing set command: %w", err)
	}
	return nil
}

func (b *ValkeyBackend) Delete(ctx context.Context, id string) error {
	if err := b.client.Do(ctx, b.client.B().Del().Key(b.key(id)).Build()).Error(); err != nil {
		return fmt.Errorf("executing del command: %w", err)
	}
	return nil
}
