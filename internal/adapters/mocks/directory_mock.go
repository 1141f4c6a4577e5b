package mocks

import (
	"context"
	"sync"

	"github.com/hsdfat8/drivetrack/internal/domain/models"
)

// MockUserDirectory is a mock implementation of UserDirectory for testing
type MockUserDirectory struct {
	mu    sync.RWMutex
	users map[int64]*models.User

	// Function overrides for testing
	GetUserFunc       func(ctx context.Context, id int64) (*models.User, error)
	ListOperatorsFunc func(ctx context.Context) ([]*models.User, error)
}

// NewMockUserDirectory creates a directory holding the given users
func NewMockUserDirectory(users ...*models.User) *MockUserDirectory {
	m := &MockUserDirectory{users: make(map[int64]*models.User)}
	for _, u := range users {
		c := *u
		m.users[u.ID] = &c
	}
	return m
}

// GetUser retrieves a user
func (m *MockUserDirectory) GetUser(ctx context.Context, id int64) (*models.User, error) {
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, id)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, &models.NotFoundError{Entity: "user", ID: id}
	}
	c := *u
	return &c, nil
}

// ListOperators retrieves active users
func (m *MockUserDirectory) ListOperators(ctx context.Context) ([]*models.User, error) {
	if m.ListOperatorsFunc != nil {
		return m.ListOperatorsFunc(ctx)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.User, 0, len(m.users))
	for _, u := range m.users {
		if u.Active {
			c := *u
			out = append(out, &c)
		}
	}
	return out, nil
}

// MockEquipmentLookup is a mock implementation of EquipmentLookup for testing
type MockEquipmentLookup struct {
	mu        sync.RWMutex
	equipment map[models.TargetRef]*models.Equipment

	// Function overrides for testing
	LookupFunc func(ctx context.Context, ref models.TargetRef) (*models.Equipment, bool, error)
}

// NewMockEquipmentLookup creates a lookup holding the given equipment
func NewMockEquipmentLookup(equipment ...*models.Equipment) *MockEquipmentLookup {
	m := &MockEquipmentLookup{equipment: make(map[models.TargetRef]*models.Equipment)}
	for _, e := range equipment {
		c := *e
		m.equipment[models.TargetRef{Kind: e.Kind, ID: e.ID}] = &c
	}
	return m
}

// Lookup resolves a target reference
func (m *MockEquipmentLookup) Lookup(ctx context.Context, ref models.TargetRef) (*models.Equipment, bool, error) {
	if m.LookupFunc != nil {
		return m.LookupFunc(ctx, ref)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.equipment[ref]
	if !ok {
		return nil, false, nil
	}
	c := *e
	return &c, true, nil
}
