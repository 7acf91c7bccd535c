package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const partCachePrefix = "gestorpecas:part:"

// An invalidated key holds a tombstone for tombstoneTTL. Set never replaces
// an existing key, so a reader that loaded the row before a write committed
// cannot put its stale view back. The TTL must outlast a store read.
var tombstone = []byte("\x00invalidated")

const tombstoneTTL = time.Minute

// PartCache is a best-effort read-through cache of part views keyed by
// variant code. A nil *PartCache, or one without a client, is a no-op.
// Failures are logged and reported as misses; after repeated failures reads
// and writes bypass Redis until the breaker lets a probe through.
type PartCache struct {
	rdb          *redis.Client
	ttl          time.Duration
	tombstoneTTL time.Duration
	cb           *breaker
}

func NewPartCache(rdb *redis.Client, ttl time.Duration) *PartCache {
	return NewPartCacheWithBreaker(rdb, ttl, BreakerConfig{})
}

func NewPartCacheWithBreaker(rdb *redis.Client, ttl time.Duration, cfg BreakerConfig) *PartCache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	cb := newBreaker(cfg)
	cb.onChange = func(from, to breakerState) {
		switch to {
		case breakerOpen:
			log.Warn().Str("from", from.String()).Msg("part cache bypassed after repeated redis failures")
		case breakerClosed:
			log.Info().Msg("part cache back in use")
		}
	}
	return &PartCache{rdb: rdb, ttl: ttl, tombstoneTTL: min(tombstoneTTL, ttl), cb: cb}
}

func (c *PartCache) enabled() bool { return c != nil && c.rdb != nil }

// Get decodes the cached entry into dest and reports whether it was found.
func (c *PartCache) Get(ctx context.Context, variantCode string, dest interface{}) bool {
	if !c.enabled() {
		return false
	}
	var raw []byte
	err := c.cb.do(func() error {
		var err error
		raw, err = c.rdb.Get(ctx, partCachePrefix+variantCode).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	})
	if err != nil {
		if !errors.Is(err, errBreakerOpen) {
			log.Warn().Err(err).Str("variant_code", variantCode).Msg("part cache read failed")
		}
		return false
	}
	if raw == nil || bytes.Equal(raw, tombstone) {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		log.Warn().Err(err).Str("variant_code", variantCode).Msg("part cache entry corrupt")
		return false
	}
	return true
}

// Set stores v unless the key already holds a value or a tombstone.
func (c *PartCache) Set(ctx context.Context, variantCode string, v interface{}) {
	if !c.enabled() {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	err = c.cb.do(func() error {
		return c.rdb.SetNX(ctx, partCachePrefix+variantCode, raw, c.ttl).Err()
	})
	if err != nil && !errors.Is(err, errBreakerOpen) {
		log.Warn().Err(err).Str("variant_code", variantCode).Msg("part cache write failed")
	}
}

// Invalidate replaces the entries of every given variant code with a
// tombstone. It is attempted even while the breaker is open: a skipped
// write could serve a stale part once Redis is back.
func (c *PartCache) Invalidate(ctx context.Context, variantCodes ...string) {
	if !c.enabled() || len(variantCodes) == 0 {
		return
	}
	_, err := c.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, code := range variantCodes {
			pipe.Set(ctx, partCachePrefix+code, tombstone, c.tombstoneTTL)
		}
		return nil
	})
	c.cb.record(err)
	if err != nil {
		log.Warn().Err(err).Strs("variant_codes", variantCodes).Msg("part cache invalidation failed")
	}
}
