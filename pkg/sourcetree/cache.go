package sourcetree

import (
	"github.com/sourcelens/semdiff/pkg/alg/lru"
)

// ParseCache is a bounded cache of parsed Trees keyed by content hash,
// so the driver can skip re-parsing a file whose bytes are identical to
// one already seen in this run (common across build-profile variants of
// the same file, §4.8). Eviction is LRU, per §5's cache-bounding
// requirement.
type ParseCache struct {
	cache *lru.Cache[uint64, *Tree]
}

// defaultParseCacheEntries bounds memory use for very large multi-file
// runs; it is generous enough that realistic repositories never evict a
// tree that would otherwise be reused within the same run.
const defaultParseCacheEntries = 4096

// NewParseCache builds a ParseCache bounded to maxEntries. A maxEntries
// of 0 uses the package default.
func NewParseCache(maxEntries int) *ParseCache {
	if maxEntries <= 0 {
		maxEntries = defaultParseCacheEntries
	}

	return &ParseCache{
		cache: lru.New(lru.WithMaxEntries[uint64, *Tree](maxEntries)),
	}
}

// Get returns the cached Tree for a content hash, if present.
func (c *ParseCache) Get(contentHash uint64) (*Tree, bool) {
	if c == nil {
		return nil, false
	}

	return c.cache.Get(contentHash)
}

// Put stores tree under contentHash, evicting the least recently used
// entry if the cache is at capacity.
func (c *ParseCache) Put(contentHash uint64, tree *Tree) {
	if c == nil {
		return
	}

	c.cache.Put(contentHash, tree)
}
