package store

import (
	"context"
	"sync"

	"github.com/arborhq/arbor/internal/schema"
)

// Memory is an in-memory Store used by tests and by the "memory" backend
// for ephemeral sessions. Records are cloned on the way in and out so
// callers can never alias the store's state.
type Memory struct {
	mu      sync.RWMutex
	records map[string]*schema.Record

	// FailNext, when set, makes the next mutating call fail with the given
	// error. Tests use it to exercise rollback paths.
	FailNext error
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{records: make(map[string]*schema.Record)}
}

func (m *Memory) takeFailure() error {
	err := m.FailNext
	m.FailNext = nil
	return err
}

// GetAll implements Store.GetAll.
func (m *Memory) GetAll(ctx context.Context) ([]*schema.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*schema.Record, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r.Clone())
	}
	return out, nil
}

// GetByID implements Store.GetByID.
func (m *Memory) GetByID(ctx context.Context, id string) (*schema.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r.Clone(), nil
}

// Upsert implements Store.Upsert.
func (m *Memory) Upsert(ctx context.Context, rec *schema.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.takeFailure(); err != nil {
		return err
	}
	m.records[rec.ID] = rec.Clone()
	return nil
}

// Update implements Store.Update.
func (m *Memory) Update(ctx context.Context, id string, fields Fields) error {
	if err := validateFields(fields); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.takeFailure(); err != nil {
		return err
	}

	r, ok := m.records[id]
	if !ok {
		return ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case FieldName:
			r.Name = v.(string)
		case FieldBorn:
			r.Born = v.(string)
		case FieldCollapsed:
			r.Collapsed = v.(bool)
		case FieldParentID:
			r.ParentID = v.(string)
		case FieldChildIDs:
			r.ChildIDs = append([]string(nil), v.([]string)...)
		}
	}
	return nil
}

// Delete implements Store.Delete.
func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.takeFailure(); err != nil {
		return err
	}
	delete(m.records, id)
	return nil
}

// Close implements Store.Close.
func (m *Memory) Close() error {
	return nil
}

// Len returns the number of stored records.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
