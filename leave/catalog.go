package leave

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// =============================================================================
// LEAVE TYPE CATALOG - Static policy lookup
// =============================================================================

// Catalog resolves leave-type policies. Policies are static from this
// package's point of view; admin edits happen out of band.
type Catalog interface {
	// Get returns the leave type, or an ErrValidation-wrapped error for
	// unknown ids.
	Get(ctx context.Context, id LeaveTypeID) (LeaveType, error)

	// List returns all leave types, sorted by name.
	List(ctx context.Context) ([]LeaveType, error)
}

// StaticCatalog is an in-memory Catalog. Safe for concurrent reads.
type StaticCatalog struct {
	mu    sync.RWMutex
	types map[LeaveTypeID]LeaveType
}

func NewStaticCatalog(types ...LeaveType) *StaticCatalog {
	c := &StaticCatalog{types: make(map[LeaveTypeID]LeaveType, len(types))}
	for _, lt := range types {
		c.types[lt.ID] = lt
	}
	return c
}

func (c *StaticCatalog) Get(_ context.Context, id LeaveTypeID) (LeaveType, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	lt, ok := c.types[id]
	if !ok {
		return LeaveType{}, fmt.Errorf("%w: unknown leave type %q", ErrValidation, id)
	}
	return lt, nil
}

func (c *StaticCatalog) List(_ context.Context) ([]LeaveType, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]LeaveType, 0, len(c.types))
	for _, lt := range c.types {
		out = append(out, lt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Put registers or replaces a leave type. Intended for seeding and tests.
func (c *StaticCatalog) Put(lt LeaveType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.types[lt.ID] = lt
}
