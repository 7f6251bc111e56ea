package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// STATIC DIRECTORY - In-memory leave.PersonDirectory
// =============================================================================

// StaticDirectory is a fixed person directory. Production deployments
// replace this with an adapter over the HR system; tests and the dev
// server seed it directly.
type StaticDirectory struct {
	mu       sync.RWMutex
	managers map[leave.PersonID]leave.PersonID
}

func NewStaticDirectory() *StaticDirectory {
	return &StaticDirectory{managers: make(map[leave.PersonID]leave.PersonID)}
}

// Add registers a person and their manager ("" for none). The manager is
// registered too.
func (d *StaticDirectory) Add(person, manager leave.PersonID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.managers[person] = manager
	if manager != "" {
		if _, ok := d.managers[manager]; !ok {
			d.managers[manager] = ""
		}
	}
}

func (d *StaticDirectory) Exists(_ context.Context, id leave.PersonID) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.managers[id]
	return ok, nil
}

func (d *StaticDirectory) ManagerOf(_ context.Context, id leave.PersonID) (leave.PersonID, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.managers[id], nil
}

func (d *StaticDirectory) ActivePersons(_ context.Context) ([]leave.PersonID, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	persons := make([]leave.PersonID, 0, len(d.managers))
	for p := range d.managers {
		persons = append(persons, p)
	}
	sort.Slice(persons, func(i, j int) bool { return persons[i] < persons[j] })
	return persons, nil
}
