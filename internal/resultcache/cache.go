// Package resultcache caches processed import results at the presentation
// boundary so re-uploading the same file bytes skips the pipeline. Entries
// are keyed by content identity (broker tag + raw bytes), which makes stale
// hits impossible: different bytes always produce a different key.
package resultcache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/edgekit/edgekit/internal/domain"
	"github.com/edgekit/edgekit/internal/modules/imports"
)

// Key derives the cache key for one upload: hex SHA-256 over the broker tag
// and the raw file bytes.
func Key(broker domain.Broker, raw []byte) string {
	h := sha256.New()
	h.Write([]byte(broker))
	h.Write([]byte{0})
	h.Write(raw)
	return hex.EncodeToString(h.Sum(nil))
}

type entry struct {
	key       string
	data      []byte
	expiresAt time.Time
}

// Cache is an in-memory TTL cache of import results, addressable both by
// content key (upload deduplication) and by import ID (handler lookups).
// Entries are msgpack-encoded so cached results are immutable snapshots.
type Cache struct {
	mu   sync.RWMutex
	ttl  time.Duration
	byID map[string]*entry
	keys map[string]string // content key -> import ID
	log  zerolog.Logger
}

// New creates an empty cache. Entries expire ttl after being stored.
func New(ttl time.Duration, log zerolog.Logger) *Cache {
	return &Cache{
		ttl:  ttl,
		byID: make(map[string]*entry),
		keys: make(map[string]string),
		log:  log.With().Str("service", "result_cache").Logger(),
	}
}

// Store caches a processed result under its content key and import ID.
func (c *Cache) Store(key string, res *imports.ImportResult) error {
	data, err := msgpack.Marshal(toRecord(res))
	if err != nil {
		return fmt.Errorf("failed to encode import result: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// A re-upload of identical bytes replaces the previous entry for the key.
	if oldID, ok := c.keys[key]; ok {
		delete(c.byID, oldID)
	}
	c.keys[key] = res.ID
	c.byID[res.ID] = &entry{
		key:       key,
		data:      data,
		expiresAt: time.Now().Add(c.ttl),
	}
	return nil
}

// GetByKey returns the cached result for a content key, if present and fresh.
func (c *Cache) GetByKey(key string) (*imports.ImportResult, bool) {
	c.mu.RLock()
	id, ok := c.keys[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return c.GetByID(id)
}

// GetByID returns the cached result for an import ID, if present and fresh.
func (c *Cache) GetByID(id string) (*imports.ImportResult, bool) {
	c.mu.RLock()
	e, ok := c.byID[id]
	c.mu.RUnlock()
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}

	var rec record
	if err := msgpack.Unmarshal(e.data, &rec); err != nil {
		c.log.Error().Err(err).Str("import_id", id).Msg("Failed to decode cached result")
		return nil, false
	}
	res, err := fromRecord(&rec)
	if err != nil {
		c.log.Error().Err(err).Str("import_id", id).Msg("Corrupt cached result")
		return nil, false
	}
	return res, true
}

// DeleteExpired removes all expired entries and returns how many were removed.
func (c *Cache) DeleteExpired() int {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for id, e := range c.byID {
		if now.After(e.expiresAt) {
			delete(c.byID, id)
			delete(c.keys, e.key)
			removed++
		}
	}
	return removed
}

// Len returns the number of live entries (including any not yet swept).
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}
