// Package delivery holds delivery links released to a buyer session after a
// completed payment. A link can be taken once, and expires with its TTL.
package delivery

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	pkgerrors "github.com/vaultcast/storefront-backend/pkg/errors"
)

const defaultTTL = 30 * time.Minute

type keyValue interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	GetDel(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	SAddWithTTL(ctx context.Context, key string, ttl time.Duration, members ...any) error
	SMembers(ctx context.Context, key string) ([]string, error)
	DeliveryKey(sessionID, productID string) string
	DeliveryIndexKey(sessionID string) string
}

// Store is the session-scoped delivery link store.
type Store interface {
	Release(ctx context.Context, sessionID, productID, link string) error
	Take(ctx context.Context, sessionID, productID string) (string, bool, error)
	Clear(ctx context.Context, sessionID string) error
}

type redisStore struct {
	kv  keyValue
	ttl time.Duration
}

// NewStore returns a redis-backed store. A non-positive ttl uses 30 minutes.
func NewStore(kv keyValue, ttl time.Duration) (Store, error) {
	if kv == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "redis client required")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &redisStore{kv: kv, ttl: ttl}, nil
}

func (s *redisStore) Release(ctx context.Context, sessionID, productID, link string) error {
	sessionID, productID = strings.TrimSpace(sessionID), strings.TrimSpace(productID)
	if sessionID == "" || productID == "" || strings.TrimSpace(link) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session, product and link are required")
	}
	if err := s.kv.Set(ctx, s.kv.DeliveryKey(sessionID, productID), link, s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store delivery link")
	}
	if err := s.kv.SAddWithTTL(ctx, s.kv.DeliveryIndexKey(sessionID), s.ttl, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "index delivery link")
	}
	return nil
}

func (s *redisStore) Take(ctx context.Context, sessionID, productID string) (string, bool, error) {
	sessionID, productID = strings.TrimSpace(sessionID), strings.TrimSpace(productID)
	if sessionID == "" || productID == "" {
		return "", false, nil
	}
	link, err := s.kv.GetDel(ctx, s.kv.DeliveryKey(sessionID, productID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "take delivery link")
	}
	return link, true, nil
}

func (s *redisStore) Clear(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil
	}
	indexKey := s.kv.DeliveryIndexKey(sessionID)
	productIDs, err := s.kv.SMembers(ctx, indexKey)
	if err != nil && !errors.Is(err, redis.Nil) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list session deliveries")
	}
	keys := make([]string, 0, len(productIDs)+1)
	for _, productID := range productIDs {
		keys = append(keys, s.kv.DeliveryKey(sessionID, productID))
	}
	keys = append(keys, indexKey)
	if err := s.kv.Del(ctx, keys...); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear session deliveries")
	}
	return nil
}
