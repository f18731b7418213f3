package explorer

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/PabloPavan/data_explorer/internal/apperrors"
	"github.com/PabloPavan/data_explorer/internal/telemetry"
	"github.com/PabloPavan/data_explorer/internal/users"
)

// Fetcher loads one page of users. *users.Repository implements it.
type Fetcher interface {
	List(ctx context.Context, q users.Query) (*users.Page, error)
}

const fallbackErrorMessage = "Failed to fetch data"

var (
	ErrNoPrevPage = apperrors.New(apperrors.KindInvalidInput, "already on the first page")
	ErrNoNextPage = apperrors.New(apperrors.KindInvalidInput, "already on the last page")
	ErrUnmounted  = apperrors.New(apperrors.KindUnavailable, "page is no longer mounted")
)

// Cycle is one fetch cycle. Done is closed once its response was applied to
// the page or discarded because a newer cycle was issued.
type Cycle struct {
	Seq  uint64
	done chan struct{}
}

func (c *Cycle) Done() <-chan struct{} {
	return c.done
}

func (c *Cycle) Wait(ctx context.Context) error {
	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Controller owns the view and result state of one mounted users page.
// State changes only through the transition methods; each transition starts
// exactly one fetch cycle. Responses are applied only when they belong to the
// latest cycle.
type Controller struct {
	fetcher Fetcher
	ctx     context.Context
	cancel  context.CancelFunc

	mu      sync.Mutex
	view    users.ViewState
	result  Result
	seq     uint64
	pending *Cycle

	// notifyMu keeps subscriber notifications in state order.
	notifyMu sync.Mutex
	subs     map[uint64]func(Snapshot)
	nextSub  uint64
}

func NewController(parent context.Context, fetcher Fetcher, view users.ViewState) *Controller {
	ctx, cancel := context.WithCancel(parent)
	return &Controller{
		fetcher: fetcher,
		ctx:     ctx,
		cancel:  cancel,
		view:    view.Normalize(),
		result: Result{
			Users:      []users.User{},
			TotalPages: 1,
			Loading:    true,
		},
		subs: make(map[uint64]func(Snapshot)),
	}
}

// Mount runs the initial fetch cycle.
func (c *Controller) Mount(ctx context.Context) (*Cycle, error) {
	return c.transition(ctx, nil)
}

// SetSearch is called for every keystroke; there is no debounce.
func (c *Controller) SetSearch(ctx context.Context, text string) (*Cycle, error) {
	return c.transition(ctx, func(v *users.ViewState, _ Result) error {
		v.Search = text
		v.Page = 1
		return nil
	})
}

func (c *Controller) SetAgeFilter(ctx context.Context, bucket users.AgeBucket) (*Cycle, error) {
	if !bucket.Valid() {
		return nil, apperrors.New(apperrors.KindInvalidInput, "invalid age filter")
	}
	return c.transition(ctx, func(v *users.ViewState, _ Result) error {
		v.AgeFilter = bucket
		v.Page = 1
		return nil
	})
}

// HandleSort toggles the order when key is already the sort key, otherwise
// sorts ascending by key.
func (c *Controller) HandleSort(ctx context.Context, key users.SortKey) (*Cycle, error) {
	if !key.Valid() {
		return nil, apperrors.New(apperrors.KindInvalidInput, "invalid sort key")
	}
	return c.transition(ctx, func(v *users.ViewState, _ Result) error {
		if v.SortKey == key {
			v.SortOrder = v.SortOrder.Toggle()
		} else {
			v.SortKey = key
			v.SortOrder = users.OrderAsc
		}
		v.Page = 1
		return nil
	})
}

// SetPage moves to page n, clamped to [1, TotalPages]. Filters are untouched.
func (c *Controller) SetPage(ctx context.Context, n int) (*Cycle, error) {
	return c.transition(ctx, func(v *users.ViewState, r Result) error {
		v.Page = min(max(n, 1), max(r.TotalPages, 1))
		return nil
	})
}

func (c *Controller) PrevPage(ctx context.Context) (*Cycle, error) {
	return c.transition(ctx, func(v *users.ViewState, _ Result) error {
		if v.Page <= 1 {
			return ErrNoPrevPage
		}
		v.Page--
		return nil
	})
}

func (c *Controller) NextPage(ctx context.Context) (*Cycle, error) {
	return c.transition(ctx, func(v *users.ViewState, r Result) error {
		if v.Page >= r.TotalPages {
			return ErrNoNextPage
		}
		v.Page++
		return nil
	})
}

// ClearFilters restores every default and fetches once.
func (c *Controller) ClearFilters(ctx context.Context) (*Cycle, error) {
	return c.transition(ctx, func(v *users.ViewState, _ Result) error {
		*v = users.DefaultViewState()
		return nil
	})
}

// Reload re-runs the fetch cycle with the current view state. It backs the
// Retry action of the error panel.
func (c *Controller) Reload(ctx context.Context) (*Cycle, error) {
	return c.transition(ctx, nil)
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) View() users.ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Pending returns the latest cycle, or nil before Mount.
func (c *Controller) Pending() *Cycle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Subscribe registers fn to receive a snapshot after every state change.
// fn runs synchronously and must not call back into the controller.
func (c *Controller) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	c.notifyMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.notifyMu.Unlock()

	return func() {
		c.notifyMu.Lock()
		delete(c.subs, id)
		c.notifyMu.Unlock()
	}
}

// Close unmounts the page and cancels in-flight fetches.
func (c *Controller) Close() {
	c.cancel()
}

func (c *Controller) Closed() bool {
	return c.ctx.Err() != nil
}

// Done is closed when the page is unmounted.
func (c *Controller) Done() <-chan struct{} {
	return c.ctx.Done()
}

func (c *Controller) transition(ctx context.Context, mutate func(v *users.ViewState, r Result) error) (*Cycle, error) {
	c.mu.Lock()
	if c.ctx.Err() != nil {
		c.mu.Unlock()
		return nil, ErrUnmounted
	}

	if mutate != nil {
		next := c.view
		if err := mutate(&next, c.result); err != nil {
			c.mu.Unlock()
			return nil, err
		}
		c.view = next
	}

	c.seq++
	c.result.Loading = true
	c.result.Error = ""
	cycle := &Cycle{Seq: c.seq, done: make(chan struct{})}
	c.pending = cycle
	q := users.BuildQuery(c.view)

	c.publishAndUnlock()

	c.launch(ctx, cycle, q)
	return cycle, nil
}

// launch runs the fetch detached from the caller's cancellation but keeping
// its values (trace context). Unmounting cancels it.
func (c *Controller) launch(ctx context.Context, cycle *Cycle, q users.Query) {
	fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(c.ctx, cancel)

	go func() {
		defer close(cycle.done)
		defer stop()
		defer cancel()

		start := time.Now()
		page, err := c.fetcher.List(fctx, q)
		c.complete(fctx, cycle, page, err, time.Since(start))
	}()
}

func (c *Controller) complete(ctx context.Context, cycle *Cycle, page *users.Page, err error, d time.Duration) {
	c.mu.Lock()
	if cycle.Seq != c.seq {
		latest := c.seq
		c.mu.Unlock()

		telemetry.RecordStaleResponse(ctx)
		telemetry.LogInfo(ctx, "stale users response discarded",
			telemetry.LogString("event", "explorer.fetch.stale"),
			telemetry.LogInt64("fetch.seq", int64(cycle.Seq)),
			telemetry.LogInt64("fetch.latest_seq", int64(latest)),
		)
		return
	}

	outcome := "ok"
	if err != nil {
		outcome = "error"
		c.result.Error = ErrorMessage(err)
		c.result.Users = []users.User{}
	} else {
		rows := page.Data
		if rows == nil {
			rows = []users.User{}
		}
		c.result.Users = rows
		c.result.TotalPages = max(page.TotalPages, 1)
		c.result.Total = max(page.Total, 0)
	}
	c.result.Loading = false

	c.publishAndUnlock()

	telemetry.RecordFetchCycle(ctx, outcome, d)
	if err != nil {
		telemetry.LogWarn(ctx, "users fetch failed",
			telemetry.LogString("event", "explorer.fetch.failed"),
			telemetry.LogInt64("fetch.seq", int64(cycle.Seq)),
			telemetry.LogErr(err),
		)
	}
}

// publishAndUnlock releases c.mu and notifies subscribers with the state as
// of the unlock. Caller must hold c.mu.
func (c *Controller) publishAndUnlock() {
	snap := c.snapshotLocked()
	c.notifyMu.Lock()
	c.mu.Unlock()
	defer c.notifyMu.Unlock()

	for _, fn := range c.subs {
		fn(snap)
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	res := c.result
	res.Users = append([]users.User(nil), c.result.Users...)
	if res.Users == nil {
		res.Users = []users.User{}
	}
	return Snapshot{View: c.view, Result: res, Seq: c.seq}
}

// ErrorMessage turns a fetch failure into the text shown in the error panel.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if statusErr, ok := users.IsStatusError(err); ok {
		return statusErr.Error()
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return fallbackErrorMessage
}
