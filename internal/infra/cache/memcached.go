package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/bradfitz/gomemcache/memcache"

	"github.com/totegamma/messboard/internal/domain"
)

const (
	keyPrefix     = "messboard:today:"
	generationTTL = 48 * time.Hour
)

// MemcachedTodayCache shares day listings between replicas. Listings are keyed by a
// per-day generation; Bump moves the generation so entries written by a reader
// that raced a writer are never read again.
type MemcachedTodayCache struct {
	mc  *memcache.Client
	ttl time.Duration
}

func NewMemcachedTodayCache(mc *memcache.Client, ttl time.Duration) *MemcachedTodayCache {
	return &MemcachedTodayCache{mc: mc, ttl: ttl}
}

func (c *MemcachedTodayCache) Get(ctx context.Context, day domain.DayKey, hostel domain.Hostel) ([]domain.MenuDocument, string, bool) {
	gen, err := c.generation(day)
	if err != nil {
		c.warn(ctx, "generation lookup failed", err)
		return nil, "", false
	}

	item, err := c.mc.Get(listingKey(day, gen, hostel))
	if err != nil {
		if err != memcache.ErrCacheMiss {
			c.warn(ctx, "listing lookup failed", err)
		}
		return nil, gen, false
	}

	var docs []domain.MenuDocument
	if err := json.Unmarshal(item.Value, &docs); err != nil {
		c.warn(ctx, "listing decode failed", err)
		return nil, gen, false
	}
	return docs, gen, true
}

// Set stores docs under gen, the generation the caller's Get observed. The
// counter is not read again here.
func (c *MemcachedTodayCache) Set(ctx context.Context, day domain.DayKey, gen string, hostel domain.Hostel, docs []domain.MenuDocument) {
	if gen == "" {
		return
	}

	value, err := json.Marshal(docs)
	if err != nil {
		c.warn(ctx, "listing encode failed", err)
		return
	}

	err = c.mc.Set(&memcache.Item{
		Key:        listingKey(day, gen, hostel),
		Value:      value,
		Expiration: int32(c.ttl.Seconds()),
	})
	if err != nil {
		c.warn(ctx, "listing store failed", err)
	}
}

func (c *MemcachedTodayCache) Bump(ctx context.Context, day domain.DayKey) {
	_, err := c.mc.Increment(generationKey(day), 1)
	if err == nil {
		return
	}
	if err != memcache.ErrCacheMiss {
		c.warn(ctx, "generation bump failed", err)
		return
	}
	if _, err := c.initGeneration(day); err != nil {
		c.warn(ctx, "generation init failed", err)
	}
}

func (c *MemcachedTodayCache) generation(day domain.DayKey) (string, error) {
	item, err := c.mc.Get(generationKey(day))
	if err == nil {
		return string(item.Value), nil
	}
	if err != memcache.ErrCacheMiss {
		return "", err
	}
	return c.initGeneration(day)
}

// initGeneration seeds a missing counter with the clock so a lost counter can not
// resurrect listings of an earlier generation.
func (c *MemcachedTodayCache) initGeneration(day domain.DayKey) (string, error) {
	seed := strconv.FormatInt(time.Now().UnixNano(), 10)
	err := c.mc.Add(&memcache.Item{
		Key:        generationKey(day),
		Value:      []byte(seed),
		Expiration: int32(generationTTL.Seconds()),
	})
	if err == nil {
		return seed, nil
	}
	if err != memcache.ErrNotStored {
		return "", err
	}
	item, err := c.mc.Get(generationKey(day))
	if err != nil {
		return "", err
	}
	return string(item.Value), nil
}

func (c *MemcachedTodayCache) warn(ctx context.Context, msg string, err error) {
	slog.WarnContext(
		ctx, msg,
		slog.String("error", err.Error()),
		slog.String("module", "cache"),
	)
}

func generationKey(day domain.DayKey) string {
	return keyPrefix + "gen:" + day.String()
}

func listingKey(day domain.DayKey, gen string, hostel domain.Hostel) string {
	scope := string(hostel)
	if scope == "" {
		scope = "all"
	}
	return fmt.Sprintf("%s%s:%s:%s", keyPrefix, day, gen, scope)
}
