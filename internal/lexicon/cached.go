package lexicon

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/ppiankov/etymologia/internal/cache"
	"github.com/ppiankov/etymologia/internal/model"
)

// CachedLexicon memoizes answers of another Lexicon.
// Errors are never cached.
type CachedLexicon struct {
	next  Lexicon
	cache cache.Cache
	ttl   time.Duration
	log   *slog.Logger

	hits   int
	misses int
}

// NewCachedLexicon wraps next with the given cache. A zero ttl uses the cache default.
func NewCachedLexicon(next Lexicon, c cache.Cache, ttl time.Duration, logger *slog.Logger) *CachedLexicon {
	return &CachedLexicon{
		next:  next,
		cache: c,
		ttl:   ttl,
		log:   logger.With("component", "lexicon_cache"),
	}
}

// lookupEntry wraps the lookup answer so that "no record" is cacheable
type lookupEntry struct {
	Etymology *model.Etymology `json:"etymology"`
}

// Exists returns the cached existence answer or asks the wrapped lexicon
func (c *CachedLexicon) Exists(ctx context.Context, word string) (bool, error) {
	key := cache.Key("exists", word)

	if data, ok := c.cache.Get(key); ok {
		var exists bool
		if err := json.Unmarshal(data, &exists); err == nil {
			c.hits++
			return exists, nil
		}
	}
	c.misses++

	exists, err := c.next.Exists(ctx, word)
	if err != nil {
		return false, err
	}

	c.store(ctx, key, exists)
	return exists, nil
}

// Lookup returns the cached record or asks the wrapped lexicon
func (c *CachedLexicon) Lookup(ctx context.Context, word string) (*model.Etymology, error) {
	key := cache.Key("lookup", word)

	if data, ok := c.cache.Get(key); ok {
		var entry lookupEntry
		if err := json.Unmarshal(data, &entry); err == nil {
			c.hits++
			return entry.Etymology, nil
		}
	}
	c.misses++

	etym, err := c.next.Lookup(ctx, word)
	if err != nil {
		return nil, err
	}

	c.store(ctx, key, lookupEntry{Etymology: etym})
	return etym, nil
}

// Stats reports cache hits and misses
func (c *CachedLexicon) Stats() (hits, misses int) {
	return c.hits, c.misses
}

func (c *CachedLexicon) store(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		c.log.WarnContext(ctx, "encode cache entry", slog.String("error", err.Error()))
		return
	}
	if err := c.cache.Set(key, data, c.ttl); err != nil {
		c.log.WarnContext(ctx, "write cache entry", slog.String("error", err.Error()))
	}
}
