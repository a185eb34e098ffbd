// internal/master/registry.go
package master

import (
	"context"
	"fmt"
	"sync"
	"time"

	"kitchen-dispatch/internal/domain"
)

// Worker is one on-duty staff member as held by the Registry.
type Worker struct {
	ID         domain.StaffID
	Speciality domain.CapabilitySet
	Channel    domain.Channel
	completed  int
	since      time.Time

	// relay pairs each payload sent on Channel with the result read back.
	relay sync.Mutex
}

// exchange sends payload to the worker and waits for its result. Concurrent
// exchanges on one worker run one at a time.
func (w *Worker) exchange(ctx context.Context, payload domain.Message) (domain.Message, error) {
	w.relay.Lock()
	defer w.relay.Unlock()

	if err := w.Channel.Send(ctx, payload); err != nil {
		return nil, fmt.Errorf("send to staff %s: %w", w.ID, err)
	}
	result, err := w.Channel.Receive(ctx)
	if err != nil {
		return nil, fmt.Errorf("receive from staff %s: %w", w.ID, err)
	}
	return result, nil
}

func (w *Worker) info() domain.WorkerInfo {
	return domain.WorkerInfo{
		ID:         w.ID,
		Speciality: w.Speciality.Strings(),
		Completed:  w.completed,
		Since:      w.since,
	}
}

// Registry tracks on-duty staff in the order they first came on duty.
type Registry struct {
	mu      sync.Mutex
	order   []domain.StaffID
	workers map[domain.StaffID]*Worker
	now     func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		workers: make(map[domain.StaffID]*Worker),
		now:     time.Now,
	}
}

// Register puts id on duty. An id that is already on duty keeps its place in
// the order but gets the new speciality and channel and a zero count.
func (r *Registry) Register(id domain.StaffID, speciality domain.CapabilitySet, ch domain.Channel) domain.WorkerInfo {
	r.mu.Lock()
	w := &Worker{ID: id, Speciality: speciality, Channel: ch, since: r.now()}
	old, exists := r.workers[id]
	if !exists {
		r.order = append(r.order, id)
	}
	r.workers[id] = w
	info := w.info()
	r.mu.Unlock()

	if exists && old.Channel != ch {
		release(old.Channel)
	}
	return info
}

// Deregister takes id off duty.
func (r *Registry) Deregister(id domain.StaffID) error {
	r.mu.Lock()
	w, ok := r.workers[id]
	if !ok {
		r.mu.Unlock()
		return domain.ErrNotRegistered
	}
	delete(r.workers, id)
	for i, o := range r.order {
		if o == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.mu.Unlock()

	release(w.Channel)
	return nil
}

// SelectLeastLoaded picks the staff member with the given speciality that
// has completed the fewest orders, earliest on duty first among equals, and
// charges it one order before returning.
func (r *Registry) SelectLeastLoaded(speciality domain.Capability) (*Worker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var best *Worker
	for _, id := range r.order {
		w := r.workers[id]
		if !w.Speciality.Has(speciality) {
			continue
		}
		if best == nil || w.completed < best.completed {
			best = w
		}
	}
	if best == nil {
		return nil, domain.ErrNoCapableWorker
	}
	best.completed++
	return best, nil
}

// Lookup returns a snapshot of one staff member.
func (r *Registry) Lookup(id domain.StaffID) (domain.WorkerInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.workers[id]
	if !ok {
		return domain.WorkerInfo{}, false
	}
	return w.info(), true
}

// Snapshot returns every on-duty staff member in registry order.
func (r *Registry) Snapshot() []domain.WorkerInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.WorkerInfo, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.workers[id].info())
	}
	return out
}

// Len returns the number of on-duty staff.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

// Reset takes everyone off duty and returns who was removed.
func (r *Registry) Reset() []domain.StaffID {
	r.mu.Lock()
	removed := r.order
	workers := r.workers
	r.order = nil
	r.workers = make(map[domain.StaffID]*Worker)
	r.mu.Unlock()

	for _, id := range removed {
		release(workers[id].Channel)
	}
	return removed
}

func release(ch domain.Channel) {
	if rel, ok := ch.(domain.Releaser); ok {
		rel.Release()
	}
}
