package memory

import (
	"context"
	"sync"

	"github.com/hsdfat8/drivetrack/internal/domain/models"
)

// Directory is an in-memory user directory and equipment lookup
type Directory struct {
	mu        sync.RWMutex
	users     map[int64]*models.User
	equipment map[models.TargetRef]*models.Equipment
}

// NewDirectory creates an empty directory
func NewDirectory() *Directory {
	return &Directory{
		users:     make(map[int64]*models.User),
		equipment: make(map[models.TargetRef]*models.Equipment),
	}
}

// AddUser registers or replaces a user
func (d *Directory) AddUser(user *models.User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u := *user
	d.users[user.ID] = &u
}

// AddEquipment registers or replaces a drive or part
func (d *Directory) AddEquipment(equipment *models.Equipment) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e := *equipment
	d.equipment[models.TargetRef{Kind: equipment.Kind, ID: equipment.ID}] = &e
}

// RemoveEquipment deletes a drive or part; task references to it become dangling
func (d *Directory) RemoveEquipment(ref models.TargetRef) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.equipment, ref)
}

func (d *Directory) GetUser(ctx context.Context, id int64) (*models.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	user, ok := d.users[id]
	if !ok {
		return nil, &models.NotFoundError{Entity: "user", ID: id}
	}
	u := *user
	return &u, nil
}

func (d *Directory) ListOperators(ctx context.Context) ([]*models.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []*models.User
	for _, user := range d.users {
		if user.Active {
			u := *user
			out = append(out, &u)
		}
	}
	sortByID(out, func(u *models.User) int64 { return u.ID })
	return out, nil
}

func (d *Directory) Lookup(ctx context.Context, ref models.TargetRef) (*models.Equipment, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	equipment, ok := d.equipment[ref]
	if !ok {
		return nil, false, nil
	}
	e := *equipment
	return &e, true, nil
}
