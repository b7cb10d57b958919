// services/idempotency.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const requestTokenTTL = 24 * time.Hour

// RequestTokens deduplicates client retries. A client sends an
// X-Request-Token header with a mutating request; if the same user replays
// the same token the stored entity id is returned instead of repeating the
// side effect.
type RequestTokens struct {
	rdb *redis.Client
}

// NewRequestTokens creates a request token registry backed by redis.
// A nil client disables deduplication.
func NewRequestTokens(rdb *redis.Client) *RequestTokens {
	return &RequestTokens{rdb: rdb}
}

func requestTokenKey(userID, token string) string {
	return fmt.Sprintf("reqtoken:%s:%s", userID, token)
}

// Lookup returns the entity id recorded for this user's token, or "" if the
// token has not been seen.
func (t *RequestTokens) Lookup(ctx context.Context, userID, token string) (string, error) {
	if t == nil || t.rdb == nil || token == "" {
		return "", nil
	}
	val, err := t.rdb.Get(ctx, requestTokenKey(userID, token)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

// Remember records the entity created for this user's token.
func (t *RequestTokens) Remember(ctx context.Context, userID, token, entityID string) error {
	if t == nil || t.rdb == nil || token == "" {
		return nil
	}
	return t.rdb.Set(ctx, requestTokenKey(userID, token), entityID, requestTokenTTL).Err()
}
