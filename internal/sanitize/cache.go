package sanitize

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of mask entries kept when no size is configured.
const DefaultCacheSize = 4096

// Entry is what a placeholder stands for.
type Entry struct {
	Tag      string
	Original string
}

// Cache maps placeholder UIDs to the fragments they replaced. It is the only
// thing that makes masking reversible, and it lives only as long as the
// process.
//
// The cache is bounded: once full, the least recently used entry is evicted.
// A placeholder whose entry was evicted can never be restored and is left
// verbatim by Unmask. Entries are write-once; Put never replaces a live UID.
//
// All methods are safe for concurrent use.
type Cache struct {
	entries  *lru.Cache[string, Entry]
	capacity int
	evicted  atomic.Uint64
	newUID   func() string
}

// NewCache creates a Cache holding at most size entries.
// A size of zero or less selects DefaultCacheSize.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c := &Cache{capacity: size, newUID: randomUID}
	entries, err := lru.NewWithEvict[string, Entry](size, func(uid string, e Entry) {
		c.evicted.Add(1)
		slog.Debug("sanitize: mask entry evicted", "uid", uid, "tag", e.Tag)
	})
	if err != nil {
		return nil, fmt.Errorf("sanitize: cache: %w", err)
	}
	c.entries = entries
	return c, nil
}

// randomUID returns the first 8 hex characters of a random UUID.
func randomUID() string {
	return uuid.NewString()[:8]
}

// Store records (tag, original) under a fresh UID and returns the UID.
// UIDs that collide with a live entry are regenerated.
func (c *Cache) Store(tag, original string) string {
	e := Entry{Tag: tag, Original: original}
	for {
		uid := c.newUID()
		if present, _ := c.entries.ContainsOrAdd(uid, e); !present {
			return uid
		}
		slog.Debug("sanitize: uid collision, regenerating", "uid", uid)
	}
}

// Put records e under uid unless uid is already live.
// It reports whether the entry was stored.
func (c *Cache) Put(uid string, e Entry) bool {
	present, _ := c.entries.ContainsOrAdd(uid, e)
	return !present
}

// Get looks up uid and marks it as recently used.
func (c *Cache) Get(uid string) (Entry, bool) {
	return c.entries.Get(uid)
}

// Len returns the number of live entries.
func (c *Cache) Len() int { return c.entries.Len() }

// Capacity returns the maximum number of live entries.
func (c *Cache) Capacity() int { return c.capacity }

// Evicted returns how many entries have been dropped to stay within capacity.
func (c *Cache) Evicted() uint64 { return c.evicted.Load() }
