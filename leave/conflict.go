package leave

import (
	"context"
	"fmt"
	"time"
)

// =============================================================================
// CONFLICT DETECTOR - Date-range overlap search
// =============================================================================

// ConflictDetector finds a person's existing requests that occupy a date
// range. Used before creation and again at approval time, since state may
// have drifted between submission and approval.
type ConflictDetector struct {
	store Store
	clock Clock
}

func NewConflictDetector(store Store, clock Clock) *ConflictDetector {
	if clock == nil {
		clock = SystemClock
	}
	return &ConflictDetector{store: store, clock: clock}
}

// WithStore returns a detector bound to a different store view.
func (d *ConflictDetector) WithStore(store Store) *ConflictDetector {
	return &ConflictDetector{store: store, clock: d.clock}
}

// FindOverlaps returns the person's requests whose inclusive range
// intersects [start, end] and whose effective status blocks the range
// (Pending, Approved, InProgress). excludeID skips one request, for edits.
func (d *ConflictDetector) FindOverlaps(ctx context.Context, personID PersonID, start, end time.Time, excludeID RequestID) ([]*LeaveRequest, error) {
	if DateOf(end).Before(DateOf(start)) {
		return nil, fmt.Errorf("%w: end date %s before start date %s",
			ErrValidation, end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	candidates, err := d.store.RequestsInRange(ctx, personID, start, end)
	if err != nil {
		return nil, err
	}

	now := d.clock()
	var overlaps []*LeaveRequest
	for _, r := range candidates {
		if r.ID == excludeID {
			continue
		}
		if !r.Blocks(now) {
			continue
		}
		if Overlaps(r.StartDate, r.EndDate, start, end) {
			overlaps = append(overlaps, r)
		}
	}
	return overlaps, nil
}

// Check returns an OverlapError for the first blocking overlap, nil if the
// range is free.
func (d *ConflictDetector) Check(ctx context.Context, personID PersonID, start, end time.Time, excludeID RequestID) error {
	overlaps, err := d.FindOverlaps(ctx, personID, start, end, excludeID)
	if err != nil {
		return err
	}
	if len(overlaps) > 0 {
		return &OverlapError{PersonID: personID, Start: start, End: end, Existing: overlaps[0]}
	}
	return nil
}
