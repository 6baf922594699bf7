package service

import "sync"

// ScoreCache holds the last final score per device. Last writer wins.
type ScoreCache struct {
	mu     sync.RWMutex
	scores map[string]float64
}

func NewScoreCache() *ScoreCache {
	return &ScoreCache{scores: make(map[string]float64)}
}

func (c *ScoreCache) Set(deviceID string, score float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scores[deviceID] = score
}

func (c *ScoreCache) Get(deviceID string) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.scores[deviceID]
	return s, ok
}

// Snapshot returns a copy safe to read without holding the lock.
func (c *ScoreCache) Snapshot() map[string]float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]float64, len(c.scores))
	for k, v := range c.scores {
		out[k] = v
	}
	return out
}
