package geometry

import "sync"

// Cache provides thread-safe caching of loaded geometries keyed by path, so
// repeated requests for the same file reuse the parsed tree and its
// coordinate arrays.
//
// Cached geometries remain in memory until Evict or Clear is called.
// Different spellings of the same path are separate entries.
type Cache struct {
	opts Options

	mu   sync.RWMutex
	geos map[string]*Access
}

// NewCache creates an empty cache. opts is used for every load.
func NewCache(opts Options) *Cache {
	return &Cache{
		opts: opts,
		geos: make(map[string]*Access),
	}
}

// Load returns the cached geometry for path, loading it on first use.
// Failed loads are not cached.
func (c *Cache) Load(path string) (*Access, error) {
	c.mu.RLock()
	if a, ok := c.geos[path]; ok {
		c.mu.RUnlock()
		return a, nil
	}
	c.mu.RUnlock()

	a, err := New(path, c.opts)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.geos[path]; ok {
		return prev, nil
	}
	c.geos[path] = a
	return a, nil
}

// Evict removes one geometry. Unknown paths are ignored.
func (c *Cache) Evict(path string) {
	c.mu.Lock()
	delete(c.geos, path)
	c.mu.Unlock()
}

// Clear removes all geometries.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.geos = make(map[string]*Access)
	c.mu.Unlock()
}

// Len returns the number of cached geometries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.geos)
}
