package similarity

import "sync"

// NormCache memoizes L2 norms by record id so repeated searches over the same
// corpus skip the per-record norm accumulation. Reads proceed concurrently;
// writes are exclusive.
type NormCache struct {
	mu    sync.RWMutex
	norms map[string]float64
}

// NewNormCache creates an empty norm cache.
func NewNormCache() *NormCache {
	return &NormCache{norms: make(map[string]float64)}
}

// Norm returns the memoized L2 norm for id, computing and caching it from
// vec on first use.
func (c *NormCache) Norm(id string, vec []float32) float64 {
	c.mu.RLock()
	norm, ok := c.norms[id]
	c.mu.RUnlock()
	if ok {
		return norm
	}

	norm = Norm(vec)

	c.mu.Lock()
	c.norms[id] = norm
	c.mu.Unlock()
	return norm
}

// Lookup returns the memoized norm without computing it.
func (c *NormCache) Lookup(id string) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	norm, ok := c.norms[id]
	return norm, ok
}

// Put stores a precomputed norm for id.
func (c *NormCache) Put(id string, norm float64) {
	c.mu.Lock()
	c.norms[id] = norm
	c.mu.Unlock()
}

// Invalidate drops the memoized norm for id.
func (c *NormCache) Invalidate(id string) {
	c.mu.Lock()
	delete(c.norms, id)
	c.mu.Unlock()
}

// Clear drops every memoized norm.
func (c *NormCache) Clear() {
	c.mu.Lock()
	c.norms = make(map[string]float64)
	c.mu.Unlock()
}

// Len returns the number of memoized norms.
func (c *NormCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.norms)
}
