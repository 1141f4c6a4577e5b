package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/hsdfat8/drivetrack/internal/domain/ports"
)

var errReadOnly = errors.New("write attempted in read-only transaction")

// session gives repositories access to one version of the state
type session interface {
	view(fn func(s *state) error) error
	update(fn func(s *state) error) error
}

// Adapter is an in-process DatabaseAdapter. Writers are serialized and work on a private
// copy that replaces the committed state on Commit; readers work on snapshots.
type Adapter struct {
	writeSem  chan struct{} // one slot, held by the open read-write transaction
	mu        sync.RWMutex  // guards committed
	committed *state
	directory *Directory
}

// NewAdapter creates an empty in-memory database with its own user and equipment directory
func NewAdapter() *Adapter {
	return &Adapter{
		writeSem:  make(chan struct{}, 1),
		committed: newState(),
		directory: NewDirectory(),
	}
}

// Connect is a no-op for the in-memory adapter
func (a *Adapter) Connect(ctx context.Context) error { return nil }

// Disconnect is a no-op for the in-memory adapter
func (a *Adapter) Disconnect(ctx context.Context) error { return nil }

// Ping always succeeds
func (a *Adapter) Ping(ctx context.Context) error { return nil }

// GetType returns the database type
func (a *Adapter) GetType() ports.DatabaseType { return ports.DatabaseTypeMemory }

// BeginTransaction blocks until no other read-write transaction is open or ctx is done
func (a *Adapter) BeginTransaction(ctx context.Context) (ports.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	select {
	case a.writeSem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	a.mu.RLock()
	work := a.committed.clone()
	a.mu.RUnlock()
	return &transaction{adapter: a, work: work}, nil
}

// BeginReadOnly takes a snapshot of the committed state without blocking writers
func (a *Adapter) BeginReadOnly(ctx context.Context) (ports.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.mu.RLock()
	snapshot := a.committed.clone()
	a.mu.RUnlock()
	return &transaction{adapter: a, work: snapshot, readOnly: true}, nil
}

// view implements session for auto-commit repositories
func (a *Adapter) view(fn func(s *state) error) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return fn(a.committed)
}

// update implements session for auto-commit repositories
func (a *Adapter) update(fn func(s *state) error) error {
	a.writeSem <- struct{}{}
	defer a.releaseWriter()
	a.mu.Lock()
	defer a.mu.Unlock()
	return fn(a.committed)
}

func (a *Adapter) releaseWriter() {
	<-a.writeSem
}

func (a *Adapter) GetInspectionRepository() ports.InspectionRepository {
	return &inspectionRepository{s: a}
}

func (a *Adapter) GetTemplateRepository() ports.TemplateRepository {
	return &templateRepository{s: a}
}

func (a *Adapter) GetPerformanceRepository() ports.PerformanceRepository {
	return &performanceRepository{s: a}
}

func (a *Adapter) GetUserDirectory() ports.UserDirectory { return a.directory }

func (a *Adapter) GetEquipmentLookup() ports.EquipmentLookup { return a.directory }

// Directory returns the seeded user and equipment directory
func (a *Adapter) Directory() *Directory { return a.directory }

// HealthCheck always succeeds
func (a *Adapter) HealthCheck(ctx context.Context) error { return nil }

// GetConnectionStats returns static statistics
func (a *Adapter) GetConnectionStats() ports.ConnectionStats {
	return ports.ConnectionStats{
		OpenConnections:  1,
		MaxConnections:   1,
		DatabaseType:     string(ports.DatabaseTypeMemory),
		ConnectionString: "memory",
		Healthy:          true,
	}
}

// SeedChecklistPayload overwrites the stored checklist payload of a record.
// It exists for tests that need a payload the service would never write.
func (a *Adapter) SeedChecklistPayload(id int64, payload []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if rec, ok := a.committed.maintenance[id]; ok {
		rec.payload = append([]byte(nil), payload...)
	}
}

// transaction is a private working copy of the state
type transaction struct {
	adapter  *Adapter
	work     *state
	readOnly bool
	done     bool
}

func (t *transaction) view(fn func(s *state) error) error {
	if t.done {
		return errors.New("transaction already finished")
	}
	return fn(t.work)
}

func (t *transaction) update(fn func(s *state) error) error {
	if t.done {
		return errors.New("transaction already finished")
	}
	if t.readOnly {
		return errReadOnly
	}
	return fn(t.work)
}

// Commit publishes the working copy
func (t *transaction) Commit(ctx context.Context) error {
	if t.done {
		return errors.New("transaction already finished")
	}
	t.done = true
	if t.readOnly {
		return nil
	}
	t.adapter.mu.Lock()
	t.adapter.committed = t.work
	t.adapter.mu.Unlock()
	t.adapter.releaseWriter()
	return nil
}

// Rollback discards the working copy. It is a no-op after Commit.
func (t *transaction) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	if !t.readOnly {
		t.adapter.releaseWriter()
	}
	return nil
}

func (t *transaction) GetInspectionRepository() ports.InspectionRepository {
	return &inspectionRepository{s: t}
}

func (t *transaction) GetTaskRepository() ports.TaskRepository {
	return &taskRepository{s: t}
}

func (t *transaction) GetSubTaskRepository() ports.SubTaskRepository {
	return &subTaskRepository{s: t}
}

func (t *transaction) GetResultRepository() ports.ResultRepository {
	return &resultRepository{s: t}
}

func (t *transaction) GetTemplateRepository() ports.TemplateRepository {
	return &templateRepository{s: t}
}

func (t *transaction) GetHistoryRepository() ports.HistoryRepository {
	return &historyRepository{s: t}
}

func (t *transaction) GetMaintenanceRepository() ports.MaintenanceRepository {
	return &maintenanceRepository{s: t}
}
