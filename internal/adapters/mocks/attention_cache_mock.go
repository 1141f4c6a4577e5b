package mocks

import (
	"context"
	"sync"

	"github.com/hsdfat8/drivetrack/internal/domain/models"
)

// MockAttentionCache is a mock implementation of AttentionCache for testing
type MockAttentionCache struct {
	mu      sync.Mutex
	list    []*models.OperatorPerformance
	present bool

	// Call counters
	Gets          int
	Sets          int
	Invalidations int

	// Function overrides for testing
	GetFunc        func(ctx context.Context) ([]*models.OperatorPerformance, bool, error)
	SetFunc        func(ctx context.Context, snapshots []*models.OperatorPerformance) error
	InvalidateFunc func(ctx context.Context) error
}

// NewMockAttentionCache creates an empty mock cache
func NewMockAttentionCache() *MockAttentionCache {
	return &MockAttentionCache{}
}

// Get returns the cached list
func (m *MockAttentionCache) Get(ctx context.Context) ([]*models.OperatorPerformance, bool, error) {
	m.mu.Lock()
	m.Gets++
	m.mu.Unlock()
	if m.GetFunc != nil {
		return m.GetFunc(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.present {
		return nil, false, nil
	}
	return copyPerformanceList(m.list), true, nil
}

// Set stores the list
func (m *MockAttentionCache) Set(ctx context.Context, snapshots []*models.OperatorPerformance) error {
	m.mu.Lock()
	m.Sets++
	m.mu.Unlock()
	if m.SetFunc != nil {
		return m.SetFunc(ctx, snapshots)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.list = copyPerformanceList(snapshots)
	m.present = true
	return nil
}

// Invalidate drops the list
func (m *MockAttentionCache) Invalidate(ctx context.Context) error {
	m.mu.Lock()
	m.Invalidations++
	m.mu.Unlock()
	if m.InvalidateFunc != nil {
		return m.InvalidateFunc(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.list = nil
	m.present = false
	return nil
}

func copyPerformanceList(list []*models.OperatorPerformance) []*models.OperatorPerformance {
	out := make([]*models.OperatorPerformance, 0, len(list))
	for _, p := range list {
		c := *p
		out = append(out, &c)
	}
	return out
}
