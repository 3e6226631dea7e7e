package bridge

import (
	"context"
	"sync"
	"time"

	bridgeerrors "github.com/tunegate/tunegate/internal/bridge/errors"
)

// PendingSearch is one in-flight query awaiting a reply from the music bot.
// It resolves exactly once; the first writer wins and later attempts are
// ignored, which is how the caller-timeout vs sweep vs inbound-event race is
// settled.
type PendingSearch struct {
	// ID is the search identifier (a ULID, so IDs sort by submission time).
	ID string

	// Query is the normalized query text sent to the bot.
	Query string

	// SubmittedAt is when the search was admitted.
	SubmittedAt time.Time

	// Deadline is when the search expires.
	Deadline time.Time

	mu      sync.Mutex
	outcome Outcome
	done    chan struct{}
}

func newPendingSearch(id, query string, submittedAt, deadline time.Time) *PendingSearch {
	return &PendingSearch{
		ID:          id,
		Query:       query,
		SubmittedAt: submittedAt,
		Deadline:    deadline,
		done:        make(chan struct{}),
	}
}

// resolve transitions the search to a terminal outcome. Returns false if the
// search already reached a terminal state.
func (ps *PendingSearch) resolve(outcome Outcome) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.outcome.Kind.Terminal() {
		return false
	}
	ps.outcome = outcome
	close(ps.done)
	return true
}

// Outcome returns the current outcome. Kind is OutcomeUnresolved until the
// search resolves.
func (ps *PendingSearch) Outcome() Outcome {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.outcome
}

// Done returns a channel closed when the search resolves.
func (ps *PendingSearch) Done() <-chan struct{} {
	return ps.done
}

// cleanupGrace is how long an entry nobody removed may outlive its deadline.
// Submit removes its own entry as soon as Await returns; the grace period
// only matters when that caller is gone, so the sweep can reclaim the
// capacity slot.
const cleanupGrace = 30 * time.Second

// PendingTable tracks in-flight searches and enforces the concurrency
// ceiling. All lookups and the submission order live behind one mutex; the
// per-search resolution state is owned by each PendingSearch.
type PendingTable struct {
	limit int
	now   func() time.Time

	mu       sync.Mutex
	searches map[string]*PendingSearch
	order    []string
}

// NewPendingTable creates a table admitting at most limit concurrent
// searches. A limit of 1 serializes all searches.
func NewPendingTable(limit int) *PendingTable {
	return &PendingTable{
		limit:    limit,
		now:      time.Now,
		searches: make(map[string]*PendingSearch),
	}
}

// Admit registers a new search. Returns ErrCapacityExceeded without creating
// the search when the table is full; a rejected submission never produces a
// terminal outcome.
func (t *PendingTable) Admit(id, query string, timeout time.Duration) (*PendingSearch, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.searches) >= t.limit {
		return nil, bridgeerrors.ErrCapacityExceeded
	}

	now := t.now()
	ps := newPendingSearch(id, query, now, now.Add(timeout))
	t.searches[id] = ps
	t.order = append(t.order, id)
	return ps, nil
}

// Get returns the search with the given id, or nil.
func (t *PendingTable) Get(id string) *PendingSearch {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.searches[id]
}

// Remove deletes a search from the table. The caller removes its own search
// after Await returns, so capacity frees as soon as an outcome is delivered.
func (t *PendingTable) Remove(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.searches[id]; !ok {
		return
	}
	t.removeLocked(id)
}

func (t *PendingTable) removeLocked(id string) {
	delete(t.searches, id)
	for i, oid := range t.order {
		if oid == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// Count returns the number of in-flight searches.
func (t *PendingTable) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.searches)
}

// ResolveLatest resolves the most recently submitted still-pending search
// with the given outcome and returns it, or nil if nothing could be
// resolved. The bot does not echo queries back, so the only correlation
// signal is recency. With overlapping searches this can attribute a reply to
// the wrong query; the concurrency ceiling keeps that window small, and a
// ceiling of 1 eliminates it.
func (t *PendingTable) ResolveLatest(outcome Outcome) *PendingSearch {
	t.mu.Lock()
	candidates := make([]*PendingSearch, 0, len(t.order))
	for i := len(t.order) - 1; i >= 0; i-- {
		if ps, ok := t.searches[t.order[i]]; ok {
			candidates = append(candidates, ps)
		}
	}
	t.mu.Unlock()

	// Resolution happens outside the table lock. A candidate that raced to a
	// terminal state is skipped and the next most recent gets the outcome.
	for _, ps := range candidates {
		if ps.resolve(outcome) {
			return ps
		}
	}
	return nil
}

// SweepExpired resolves every search past its deadline as expired and
// returns the ones this sweep transitioned. Searches whose waiter already
// resolved them are not returned. An entry still present one grace period
// after its deadline has no waiter left to remove it, so the sweep deletes
// it and frees its capacity slot.
func (t *PendingTable) SweepExpired() []*PendingSearch {
	now := t.now()

	t.mu.Lock()
	var overdue []*PendingSearch
	for id, ps := range t.searches {
		if !now.After(ps.Deadline) {
			continue
		}
		overdue = append(overdue, ps)
		if now.After(ps.Deadline.Add(cleanupGrace)) {
			t.removeLocked(id)
		}
	}
	t.mu.Unlock()

	var swept []*PendingSearch
	for _, ps := range overdue {
		if ps.resolve(Outcome{Kind: OutcomeExpired}) {
			swept = append(swept, ps)
		}
	}
	return swept
}

// Await blocks until the search resolves, its deadline passes, or ctx is
// cancelled. The deadline and cancellation paths attempt to resolve the
// search as expired; either way the returned outcome is the terminal state
// that actually won, so a result arriving in the same instant is not lost.
func (t *PendingTable) Await(ctx context.Context, ps *PendingSearch) Outcome {
	wait := time.Until(ps.Deadline)
	if wait < 0 {
		wait = 0
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ps.done:
		return ps.Outcome()
	case <-timer.C:
		ps.resolve(Outcome{Kind: OutcomeExpired})
		return ps.Outcome()
	case <-ctx.Done():
		ps.resolve(Outcome{Kind: OutcomeExpired})
		return ps.Outcome()
	}
}
