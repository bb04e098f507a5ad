package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iago/civic-issues-back/internal/domain"
)

type Entry struct {
	Principal domain.PrincipalRecord
	CreatedAt time.Time
	ExpiresAt time.Time
}

type Config struct {
	TTL        time.Duration
	MaxEntries int
}

// PrincipalCache keeps resolved principals keyed by a hash of the bearer
// token, so raw credentials never sit in memory longer than a request.
type PrincipalCache struct {
	mu         sync.RWMutex
	entries    map[string]Entry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

func NewPrincipalCache(config Config) *PrincipalCache {
	if config.TTL <= 0 {
		config.TTL = time.Minute
	}
	if config.MaxEntries <= 0 {
		config.MaxEntries = 1000
	}
	return &PrincipalCache{
		entries:    make(map[string]Entry),
		ttl:        config.TTL,
		maxEntries: config.MaxEntries,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (c *PrincipalCache) Get(token string) (domain.PrincipalRecord, bool) {
	key := TokenKey(token)

	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		return domain.PrincipalRecord{}, false
	}
	if now := c.now(); !now.Before(entry.ExpiresAt) {
		c.mu.Lock()
		// A concurrent Set may have refreshed the key since the read lock was released.
		if current, ok := c.entries[key]; ok && !now.Before(current.ExpiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return domain.PrincipalRecord{}, false
	}
	return entry.Principal, true
}

func (c *PrincipalCache) Set(token string, principal domain.PrincipalRecord) {
	now := c.now()
	key := TokenKey(token)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldest()
	}
	c.entries[key] = Entry{
		Principal: principal,
		CreatedAt: now,
		ExpiresAt: now.Add(c.ttl),
	}
}

func (c *PrincipalCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// TokenKey hashes a trimmed bearer token.
func TokenKey(token string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(token)))
	return hex.EncodeToString(sum[:])
}

func (c *PrincipalCache) evictOldest() {
	if len(c.entries) == 0 {
		return
	}

	type pair struct {
		key   string
		value Entry
	}
	pairs := make([]pair, 0, len(c.entries))
	for key, value := range c.entries {
		pairs = append(pairs, pair{key: key, value: value})
	}
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].value.CreatedAt.Before(pairs[j].value.CreatedAt)
	})
	delete(c.entries, pairs[0].key)
}
