package command

import (
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	// DefaultCacheTTL is how long a resolution is remembered.
	DefaultCacheTTL = 10 * time.Minute

	// inputs longer than this are not worth remembering
	maxCachedInput = 256
)

// cacheEntry holds a resolution outcome. A nil template records a miss.
type cacheEntry struct {
	template *Template
	score    float64
	exact    bool
}

// resolveCache remembers resolutions per registry generation, so a new
// registration makes every older entry unreachable without a flush.
type resolveCache struct {
	entries *gocache.Cache
}

func newResolveCache(ttl time.Duration) *resolveCache {
	if ttl <= 0 {
		return nil
	}
	return &resolveCache{entries: gocache.New(ttl, 2*ttl)}
}

func cacheKey(generation uint64, input string) string {
	return strconv.FormatUint(generation, 10) + "\x00" + input
}

// Get retrieves a resolution if one is cached.
func (c *resolveCache) Get(generation uint64, input string) (cacheEntry, bool) {
	if c == nil || len(input) > maxCachedInput {
		return cacheEntry{}, false
	}
	v, ok := c.entries.Get(cacheKey(generation, input))
	if !ok {
		return cacheEntry{}, false
	}
	entry, ok := v.(cacheEntry)
	return entry, ok
}

// Set stores a resolution with the default TTL.
func (c *resolveCache) Set(generation uint64, input string, entry cacheEntry) {
	if c == nil || len(input) > maxCachedInput {
		return
	}
	c.entries.SetDefault(cacheKey(generation, input), entry)
}
