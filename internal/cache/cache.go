package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching lexicon responses
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key generates a cache key for a lexicon query.
// kind separates query types so that an exists answer never shadows a lookup.
func Key(kind, word string) string {
	hash := sha256.Sum256([]byte(kind + "\x00" + word))
	return "etymologia:v1:" + kind + ":" + hex.EncodeToString(hash[:])
}
