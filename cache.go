package gorbf

import (
	"sync"

	"github.com/njchilds90/gorbf/numeric"
)

// CacheStats reports the state of an engine's function cache.
type CacheStats struct {
	Entries      int
	Hits         int
	Compilations int
}

// functionCache maps signature keys to compiled functions. The lock is
// held across compile-on-miss so a signature is compiled at most once.
type functionCache struct {
	mu    sync.Mutex
	funcs map[string]numeric.Func
	stats CacheStats
}

func newFunctionCache() *functionCache {
	return &functionCache{funcs: make(map[string]numeric.Func)}
}

// get returns the function for key, calling compile on a miss. Failed
// compilations are not cached.
func (c *functionCache) get(key string, compile func() (numeric.Func, error)) (numeric.Func, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if fn, ok := c.funcs[key]; ok {
		c.stats.Hits++
		return fn, nil
	}
	c.stats.Compilations++
	fn, err := compile()
	if err != nil {
		return nil, err
	}
	c.funcs[key] = fn
	return fn, nil
}

func (c *functionCache) clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.funcs)
	c.funcs = make(map[string]numeric.Func)
	return n
}

func (c *functionCache) snapshot() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Entries = len(c.funcs)
	return s
}
