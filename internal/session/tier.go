package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisclient "github.com/angelmondragon/floret-storefront/pkg/redis"
)

var errMalformedRecord = errors.New("malformed session record")

type kvStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
	Del(ctx context.Context, keys ...string) error
	SessionKey(sessionID string) string
}

// RedisTier is the session-scoped tier: short-lived records keyed by session id.
type RedisTier struct {
	store kvStore
	ttl   time.Duration
}

func NewRedisTier(client *redisclient.Client, ttl time.Duration) (*RedisTier, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &RedisTier{store: client, ttl: ttl}, nil
}

func (t *RedisTier) Put(ctx context.Context, rec Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return t.store.Set(ctx, t.store.SessionKey(rec.SessionID), payload, t.ttl)
}

// Fetch returns nil without error on a miss. A record that does not decode
// yields errMalformedRecord.
func (t *RedisTier) Fetch(ctx context.Context, sessionID string) (*Record, error) {
	raw, err := t.store.Get(ctx, t.store.SessionKey(sessionID))
	if err != nil {
		if redisclient.IsNil(err) {
			return nil, nil
		}
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil || !rec.valid() {
		return nil, errMalformedRecord
	}
	return &rec, nil
}

func (t *RedisTier) Has(ctx context.Context, sessionID string) (bool, error) {
	return t.store.Exists(ctx, t.store.SessionKey(sessionID))
}

func (t *RedisTier) Remove(ctx context.Context, sessionID string) error {
	return t.store.Del(ctx, t.store.SessionKey(sessionID))
}
