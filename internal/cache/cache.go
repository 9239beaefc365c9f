// Package cache stores rendered validation results keyed by document
// content, so unchanged documents are not parsed twice.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/ppiankov/worldview/internal/model"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a cache key from document content and a fingerprint of the
// options that influence the result
func Key(content []byte, fingerprint string) string {
	h := sha256.New()
	h.Write([]byte(fingerprint))
	h.Write([]byte{0})
	h.Write(content)
	return "worldview:v1:" + hex.EncodeToString(h.Sum(nil))
}

// New builds the cache described by cfg: memory in front of disk, memory
// only when no directory is configured, or a no-op cache when disabled
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return NopCache{}
	}
	memory := NewMemoryCache(cfg.MemoryTTL, 2*cfg.MemoryTTL)
	if cfg.DiskDir == "" {
		return memory
	}
	return NewLayeredCache(memory, NewDiskCache(cfg.DiskDir, cfg.DiskTTL))
}

// NopCache never stores anything
type NopCache struct{}

// Get always misses
func (NopCache) Get(string) ([]byte, bool) { return nil, false }

// Set discards the value
func (NopCache) Set(string, []byte, time.Duration) error { return nil }

// Delete does nothing
func (NopCache) Delete(string) error { return nil }

// Clear does nothing
func (NopCache) Clear() error { return nil }
