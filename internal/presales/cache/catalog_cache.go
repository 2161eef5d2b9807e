// Package cache keeps catalog code lookups in Redis in front of a repository.Store.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lymau/lead-app/internal/presales/identity"
	"github.com/lymau/lead-app/internal/presales/repository"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "presales:catalog:"

// DefaultTTL of a cached lookup.
const DefaultTTL = time.Hour

type pillarEntry struct {
	Codes identity.PillarCodes `json:"codes"`
}

type brandEntry struct {
	Code string `json:"code"`
}

// CatalogStore wraps a Store and serves LookupPillarCodes and LookupBrandCode from
// Redis. Only hits are cached, so a catalog row added later is seen on the next
// lookup. Redis failures fall through to the store.
type CatalogStore struct {
	repository.Store
	rdb *redis.Client
	ttl time.Duration
}

func NewCatalogStore(store repository.Store, rdb *redis.Client, ttl time.Duration) *CatalogStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CatalogStore{Store: store, rdb: rdb, ttl: ttl}
}

// Tx keeps the transaction's lookups cached as well.
func (c *CatalogStore) Tx(ctx context.Context, fn func(repository.Store) error) error {
	return c.Store.Tx(ctx, func(tx repository.Store) error {
		return fn(&CatalogStore{Store: tx, rdb: c.rdb, ttl: c.ttl})
	})
}

func (c *CatalogStore) LookupPillarCodes(ctx context.Context, pillar, solution, service string) (identity.PillarCodes, bool, error) {
	key := keyPrefix + "pillar:" + pillar + "|" + solution + "|" + service

	var entry pillarEntry
	if c.get(ctx, key, &entry) {
		return entry.Codes, true, nil
	}

	codes, found, err := c.Store.LookupPillarCodes(ctx, pillar, solution, service)
	if err != nil || !found {
		return codes, found, err
	}
	c.set(ctx, key, pillarEntry{Codes: codes})
	return codes, true, nil
}

func (c *CatalogStore) LookupBrandCode(ctx context.Context, brand string) (string, bool, error) {
	key := keyPrefix + "brand:" + brand

	var entry brandEntry
	if c.get(ctx, key, &entry) {
		return entry.Code, true, nil
	}

	code, found, err := c.Store.LookupBrandCode(ctx, brand)
	if err != nil || !found {
		return code, found, err
	}
	c.set(ctx, key, brandEntry{Code: code})
	return code, true, nil
}

// Invalidate drops every cached catalog entry. Run it after master data changes
// outside the service, e.g. on startup.
func (c *CatalogStore) Invalidate(ctx context.Context) error {
	iter := c.rdb.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

func (c *CatalogStore) get(ctx context.Context, key string, dst interface{}) bool {
	cached, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		// redis.Nil or an unreachable server, either way ask the store
		return false
	}
	return json.Unmarshal([]byte(cached), dst) == nil
}

func (c *CatalogStore) set(ctx context.Context, key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.rdb.Set(ctx, key, data, c.ttl)
}
