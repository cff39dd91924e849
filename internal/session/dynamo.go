package session

import (
	"context"
	"errors"
	"time"

	"github.com/guregu/dynamo/v2"

	"github.com/sopatech/hiddengems/internal/infra"
)

// PKCE attempt: PK = AUTH#SESSION#<id>, SK = PKCE. ttl is the table's TTL attribute (epoch seconds);
// expires_at is checked on read since DynamoDB TTL deletion is lazy.
const (
	sessionPrefix = "AUTH#SESSION#"
	pkceSK        = "PKCE"
)

type pkceRow struct {
	PK        string `dynamo:"pk"`
	SK        string `dynamo:"sk"`
	Verifier  string `dynamo:"verifier"`
	State     string `dynamo:"state"`
	ExpiresAt string `dynamo:"expires_at"`
	TTL       int64  `dynamo:"ttl,omitempty"`
}

type DynamoBackend struct {
	db        *infra.Dynamo
	tableName string
}

var _ Backend = (*DynamoBackend)(nil)

func NewDynamoBackend(db *infra.Dynamo, tableName string) *DynamoBackend {
	return &DynamoBackend{db: db, tableName: tableName}
}

func (b *DynamoBackend) tbl() dynamo.Table {
	return b.db.Table(b.tableName)
}

func (b *DynamoBackend) Get(ctx context.Context, id string) (AuthSession, bool, error) {
	var row pkceRow
	err := b.tbl().Get("pk", sessionPrefix+id).Range("sk", dynamo.Equal, pkceSK).One(ctx, &row)
	if err != nil {
		if errors.Is(err, dynamo.ErrNotFound) {
			return AuthSession{}, false, nil
		}
		return AuthSession{}, false, err
	}
	if row.ExpiresAt != "" {
		expiresAt, parseErr := time.Parse(time.RFC3339, row.ExpiresAt)
		if parseErr != nil || time.Now().UTC().After(expiresAt) {
			return AuthSession{}, false, nil
		}
	}
	return AuthSession{Verifier: row.Verifier, State: row.State}, true, nil
}

func (b *DynamoBackend) Put(ctx context.Context, id string, s AuthSession, ttl time.Duration) error {
	row := pkceRow{
		PK:       sessionPrefix + id,
		SK:       pkceSK,
		Verifier: s.Verifier,
		State:    s.State,
	}
	if ttl > 0 {
		expiresAt := time.Now().UTC().Add(ttl)
		row.ExpiresAt = expiresAt.Format(time.RFC3339)
		row.TTL = expiresAt.Unix()
	}
	return b.tbl().Put(row).Run(ctx)
}

func (b *DynamoBackend) Delete(ctx context.Context, id string) error {
	return b.tbl().Delete("pk", sessionPrefix+id).Range("sk", pkceSK).Run(ctx)
}
