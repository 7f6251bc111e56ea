// Package store provides leave.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	balances map[leave.LedgerKey]*leave.LeaveBalance
	requests map[leave.RequestID]*leave.LeaveRequest
	history  map[leave.LedgerKey][]leave.BalanceHistoryEntry
}

func NewMemory() *Memory {
	return &Memory{
		balances: make(map[leave.LedgerKey]*leave.LeaveBalance),
		requests: make(map[leave.RequestID]*leave.LeaveRequest),
		history:  make(map[leave.LedgerKey][]leave.BalanceHistoryEntry),
	}
}

// -----------------------------------------------------------------------------
// Balances
// -----------------------------------------------------------------------------

func (m *Memory) GetBalance(_ context.Context, key leave.LedgerKey) (*leave.LeaveBalance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getBalanceLocked(key)
}

func (m *Memory) getBalanceLocked(key leave.LedgerKey) (*leave.LeaveBalance, error) {
	b, ok := m.balances[key]
	if !ok {
		return nil, leave.ErrLedgerNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *Memory) CreateBalance(_ context.Context, b *leave.LeaveBalance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createBalanceLocked(b)
}

func (m *Memory) createBalanceLocked(b *leave.LeaveBalance) error {
	if _, ok := m.balances[b.Key()]; ok {
		return leave.ErrDuplicateLedger
	}
	cp := *b
	m.balances[b.Key()] = &cp
	return nil
}

func (m *Memory) SaveBalance(_ context.Context, b *leave.LeaveBalance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveBalanceLocked(b)
}

func (m *Memory) saveBalanceLocked(b *leave.LeaveBalance) error {
	if _, ok := m.balances[b.Key()]; !ok {
		return leave.ErrLedgerNotFound
	}
	cp := *b
	m.balances[b.Key()] = &cp
	return nil
}

func (m *Memory) ListBalances(_ context.Context, year int) ([]*leave.LeaveBalance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listBalancesLocked(year), nil
}

func (m *Memory) listBalancesLocked(year int) []*leave.LeaveBalance {
	var result []*leave.LeaveBalance
	for _, b := range m.balances {
		if b.Year == year {
			cp := *b
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].PersonID != result[j].PersonID {
			return result[i].PersonID < result[j].PersonID
		}
		return result[i].LeaveTypeID < result[j].LeaveTypeID
	})
	return result
}

func (m *Memory) BalancesForPerson(_ context.Context, personID leave.PersonID, year int) ([]*leave.LeaveBalance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balancesForPersonLocked(personID, year), nil
}

func (m *Memory) balancesForPersonLocked(personID leave.PersonID, year int) []*leave.LeaveBalance {
	var result []*leave.LeaveBalance
	for _, b := range m.balances {
		if b.PersonID == personID && b.Year == year {
			cp := *b
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].LeaveTypeID < result[j].LeaveTypeID
	})
	return result
}

// -----------------------------------------------------------------------------
// Requests
// -----------------------------------------------------------------------------

func (m *Memory) GetRequest(_ context.Context, id leave.RequestID) (*leave.LeaveRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getRequestLocked(id)
}

func (m *Memory) getRequestLocked(id leave.RequestID) (*leave.LeaveRequest, error) {
	r, ok := m.requests[id]
	if !ok {
		return nil, leave.ErrRequestNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *Memory) SaveRequest(_ context.Context, r *leave.LeaveRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveRequestLocked(r)
}

func (m *Memory) saveRequestLocked(r *leave.LeaveRequest) error {
	cp := *r
	m.requests[r.ID] = &cp
	return nil
}

func (m *Memory) RequestsForPerson(_ context.Context, personID leave.PersonID) ([]*leave.LeaveRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestsForPersonLocked(personID), nil
}

func (m *Memory) requestsForPersonLocked(personID leave.PersonID) []*leave.LeaveRequest {
	var result []*leave.LeaveRequest
	for _, r := range m.requests {
		if r.PersonID == personID {
			cp := *r
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].RequestDate.After(result[j].RequestDate)
	})
	return result
}

func (m *Memory) RequestsInRange(_ context.Context, personID leave.PersonID, start, end time.Time) ([]*leave.LeaveRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestsInRangeLocked(personID, start, end), nil
}

func (m *Memory) requestsInRangeLocked(personID leave.PersonID, start, end time.Time) []*leave.LeaveRequest {
	var result []*leave.LeaveRequest
	for _, r := range m.requests {
		if r.PersonID == personID && leave.Overlaps(r.StartDate, r.EndDate, start, end) {
			cp := *r
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartDate.Before(result[j].StartDate)
	})
	return result
}

func (m *Memory) RequestsByStatus(_ context.Context, status leave.RequestStatus) ([]*leave.LeaveRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestsByStatusLocked(status), nil
}

func (m *Memory) requestsByStatusLocked(status leave.RequestStatus) []*leave.LeaveRequest {
	var result []*leave.LeaveRequest
	for _, r := range m.requests {
		if r.Status == status {
			cp := *r
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].RequestDate.Before(result[j].RequestDate)
	})
	return result
}

// -----------------------------------------------------------------------------
// History
// -----------------------------------------------------------------------------

func (m *Memory) AppendHistory(_ context.Context, entry leave.BalanceHistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendHistoryLocked(entry)
}

func (m *Memory) appendHistoryLocked(entry leave.BalanceHistoryEntry) error {
	m.history[entry.Key] = append(m.history[entry.Key], entry)
	return nil
}

func (m *Memory) History(_ context.Context, key leave.LedgerKey) ([]leave.BalanceHistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.historyLocked(key), nil
}

func (m *Memory) historyLocked(key leave.LedgerKey) []leave.BalanceHistoryEntry {
	result := make([]leave.BalanceHistoryEntry, len(m.history[key]))
	copy(result, m.history[key])
	return result
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
// The store lock is held for the whole transaction, which also gives the
// per-key mutual exclusion the ledger mutators require.
func (tm *TxMemory) WithTx(_ context.Context, fn func(leave.Store) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	snapshot := tm.snapshot()
	view := &txMemoryView{parent: tm.Memory}

	if err := fn(view); err != nil {
		tm.restore(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	balances map[leave.LedgerKey]*leave.LeaveBalance
	requests map[leave.RequestID]*leave.LeaveRequest
	history  map[leave.LedgerKey][]leave.BalanceHistoryEntry
}

func (tm *TxMemory) snapshot() memorySnapshot {
	balances := make(map[leave.LedgerKey]*leave.LeaveBalance, len(tm.balances))
	for k, v := range tm.balances {
		cp := *v
		balances[k] = &cp
	}
	requests := make(map[leave.RequestID]*leave.LeaveRequest, len(tm.requests))
	for k, v := range tm.requests {
		cp := *v
		requests[k] = &cp
	}
	history := make(map[leave.LedgerKey][]leave.BalanceHistoryEntry, len(tm.history))
	for k, v := range tm.history {
		history[k] = append([]leave.BalanceHistoryEntry{}, v...)
	}
	return memorySnapshot{balances: balances, requests: requests, history: history}
}

func (tm *TxMemory) restore(s memorySnapshot) {
	tm.balances = s.balances
	tm.requests = s.requests
	tm.history = s.history
}

// txMemoryView runs against the parent's maps without re-locking; the
// transaction already holds the write lock.
type txMemoryView struct {
	parent *Memory
}

func (tv *txMemoryView) GetBalance(_ context.Context, key leave.LedgerKey) (*leave.LeaveBalance, error) {
	return tv.parent.getBalanceLocked(key)
}

func (tv *txMemoryView) CreateBalance(_ context.Context, b *leave.LeaveBalance) error {
	return tv.parent.createBalanceLocked(b)
}

func (tv *txMemoryView) SaveBalance(_ context.Context, b *leave.LeaveBalance) error {
	return tv.parent.saveBalanceLocked(b)
}

func (tv *txMemoryView) ListBalances(_ context.Context, year int) ([]*leave.LeaveBalance, error) {
	return tv.parent.listBalancesLocked(year), nil
}

func (tv *txMemoryView) BalancesForPerson(_ context.Context, personID leave.PersonID, year int) ([]*leave.LeaveBalance, error) {
	return tv.parent.balancesForPersonLocked(personID, year), nil
}

func (tv *txMemoryView) GetRequest(_ context.Context, id leave.RequestID) (*leave.LeaveRequest, error) {
	return tv.parent.getRequestLocked(id)
}

func (tv *txMemoryView) SaveRequest(_ context.Context, r *leave.LeaveRequest) error {
	return tv.parent.saveRequestLocked(r)
}

func (tv *txMemoryView) RequestsForPerson(_ context.Context, personID leave.PersonID) ([]*leave.LeaveRequest, error) {
	return tv.parent.requestsForPersonLocked(personID), nil
}

func (tv *txMemoryView) RequestsInRange(_ context.Context, personID leave.PersonID, start, end time.Time) ([]*leave.LeaveRequest, error) {
	return tv.parent.requestsInRangeLocked(personID, start, end), nil
}

func (tv *txMemoryView) RequestsByStatus(_ context.Context, status leave.RequestStatus) ([]*leave.LeaveRequest, error) {
	return tv.parent.requestsByStatusLocked(status), nil
}

func (tv *txMemoryView) AppendHistory(_ context.Context, entry leave.BalanceHistoryEntry) error {
	return tv.parent.appendHistoryLocked(entry)
}

func (tv *txMemoryView) History(_ context.Context, key leave.LedgerKey) ([]leave.BalanceHistoryEntry, error) {
	return tv.parent.historyLocked(key), nil
}
