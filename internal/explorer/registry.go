package explorer

import (
	"context"
	"sync"
	"time"

	"github.com/PabloPavan/data_explorer/internal/telemetry"
	"github.com/PabloPavan/data_explorer/internal/users"
)

type entry struct {
	ctrl     *Controller
	lastSeen time.Time
}

// Registry holds one mounted controller per browser session.
type Registry struct {
	ctx     context.Context
	fetcher Fetcher
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

func NewRegistry(parent context.Context, fetcher Fetcher) *Registry {
	return &Registry{
		ctx:     parent,
		fetcher: fetcher,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// Acquire returns the controller mounted for id. When none exists a new one
// is created from initial and mounted, and created is true.
func (r *Registry) Acquire(ctx context.Context, id string, initial users.ViewState) (ctrl *Controller, created bool, err error) {
	r.mu.Lock()
	if e, ok := r.entries[id]; ok && !e.ctrl.Closed() {
		e.lastSeen = r.now()
		r.mu.Unlock()
		return e.ctrl, false, nil
	}
	if err := r.ctx.Err(); err != nil {
		r.mu.Unlock()
		return nil, false, ErrUnmounted
	}

	// Mount before publishing so no transition can precede the first cycle.
	ctrl = NewController(r.ctx, r.fetcher, initial)
	if _, err := ctrl.Mount(ctx); err != nil {
		r.mu.Unlock()
		return nil, false, err
	}
	r.entries[id] = &entry{ctrl: ctrl, lastSeen: r.now()}
	r.mu.Unlock()

	telemetry.RecordMounted(ctx, 1)
	return ctrl, true, nil
}

// Get returns the controller for id without mounting one.
func (r *Registry) Get(id string) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok || e.ctrl.Closed() {
		return nil, false
	}
	e.lastSeen = r.now()
	return e.ctrl, true
}

// Sweep unmounts controllers not touched for longer than idle and returns
// how many were removed.
func (r *Registry) Sweep(ctx context.Context, idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	var stale []*Controller
	for id, e := range r.entries {
		if e.lastSeen.Before(cutoff) || e.ctrl.Closed() {
			stale = append(stale, e.ctrl)
			delete(r.entries, id)
		}
	}
	r.mu.Unlock()

	for _, ctrl := range stale {
		ctrl.Close()
	}
	if len(stale) > 0 {
		telemetry.RecordMounted(ctx, -int64(len(stale)))
		telemetry.LogInfo(ctx, "idle pages unmounted",
			telemetry.LogString("event", "explorer.registry.sweep"),
			telemetry.LogInt("registry.removed", len(stale)),
		)
	}
	return len(stale)
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval, idle time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx, idle)
		}
	}
}

// Close unmounts every controller.
func (r *Registry) Close() {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*entry)
	r.mu.Unlock()

	for _, e := range entries {
		e.ctrl.Close()
	}
	if len(entries) > 0 {
		telemetry.RecordMounted(context.Background(), -int64(len(entries)))
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
