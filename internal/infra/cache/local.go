package cache

import (
	"context"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/totegamma/messboard/internal/domain"
)

// LocalTodayCache is the single-process variant used when no memcached is configured.
type LocalTodayCache struct {
	cache *gocache.Cache
	ttl   time.Duration
}

func NewLocalTodayCache(ttl time.Duration) *LocalTodayCache {
	return &LocalTodayCache{
		cache: gocache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

func (c *LocalTodayCache) Get(ctx context.Context, day domain.DayKey, hostel domain.Hostel) ([]domain.MenuDocument, string, bool) {
	gen := c.generation(day)
	cached, found := c.cache.Get(listingKey(day, gen, hostel))
	if !found {
		return nil, gen, false
	}
	docs, ok := cached.([]domain.MenuDocument)
	return docs, gen, ok
}

// Set stores docs under gen, the generation the caller's Get observed.
func (c *LocalTodayCache) Set(ctx context.Context, day domain.DayKey, gen string, hostel domain.Hostel, docs []domain.MenuDocument) {
	if gen == "" {
		return
	}
	c.cache.Set(listingKey(day, gen, hostel), docs, gocache.DefaultExpiration)
}

func (c *LocalTodayCache) Bump(ctx context.Context, day domain.DayKey) {
	if _, err := c.cache.IncrementInt64(generationKey(day), 1); err != nil {
		c.generation(day)
	}
}

func (c *LocalTodayCache) generation(day domain.DayKey) string {
	key := generationKey(day)
	if v, found := c.cache.Get(key); found {
		return strconv.FormatInt(v.(int64), 10)
	}
	seed := time.Now().UnixNano()
	if err := c.cache.Add(key, seed, generationTTL); err != nil {
		if v, found := c.cache.Get(key); found {
			return strconv.FormatInt(v.(int64), 10)
		}
	}
	return strconv.FormatInt(seed, 10)
}
