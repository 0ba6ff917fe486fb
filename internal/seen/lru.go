package seen

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type lruMarker struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, struct{}]
}

// NewLRU keeps marks in process memory. Marks vanish on restart or eviction.
func NewLRU(size int, ttl time.Duration) Marker {
	if size <= 0 {
		size = 10000
	}
	return &lruMarker{cache: expirable.NewLRU[string, struct{}](size, nil, ttl)}
}

func (m *lruMarker) MarkOnce(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cache.Contains(key) {
		return false, nil
	}
	m.cache.Add(key, struct{}{})
	return true, nil
}

func (m *lruMarker) Forget(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Remove(key)
	return nil
}
