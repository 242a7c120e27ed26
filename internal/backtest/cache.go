package backtest

import (
	"context"
	"sync"

	"github.com/anil-lina/techbot/internal/model"
)

// SeriesCache stores fetched candle series so a backtest run does not
// hit the broker twice for the same instrument window.
type SeriesCache interface {
	// Get returns the cached series for key, or false on a miss.
	Get(ctx context.Context, key string) ([]model.Candle, bool)

	// Put stores a series under key. Best effort; a failed put only
	// costs a refetch.
	Put(ctx context.Context, key string, candles []model.Candle)
}

// MemoryCache is an in-process SeriesCache for single-run backtests.
type MemoryCache struct {
	mu     sync.RWMutex
	series map[string][]model.Candle
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{series: make(map[string][]model.Candle)}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]model.Candle, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.series[key]
	return s, ok
}

func (m *MemoryCache) Put(_ context.Context, key string, candles []model.Candle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.series[key] = candles
}
