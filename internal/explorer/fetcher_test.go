package explorer

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/PabloPavan/data_explorer/internal/users"
)

type reply struct {
	page *users.Page
	err  error
}

type call struct {
	q     users.Query
	reply chan reply
}

// gateFetcher blocks every List until the test answers it.
type gateFetcher struct {
	mu    sync.Mutex
	calls []*call
	added chan *call
}

func newGateFetcher() *gateFetcher {
	return &gateFetcher{added: make(chan *call, 64)}
}

func (f *gateFetcher) List(ctx context.Context, q users.Query) (*users.Page, error) {
	c := &call{q: q, reply: make(chan reply, 1)}
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
	f.added <- c

	select {
	case r := <-c.reply:
		return r.page, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *gateFetcher) next(t *testing.T) *call {
	t.Helper()
	select {
	case c := <-f.added:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("expected a fetch")
		return nil
	}
}

func (f *gateFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (c *call) ok(page *users.Page) {
	c.reply <- reply{page: page}
}

func (c *call) fail(err error) {
	c.reply <- reply{err: err}
}

// funcFetcher answers immediately.
type funcFetcher func(ctx context.Context, q users.Query) (*users.Page, error)

func (f funcFetcher) List(ctx context.Context, q users.Query) (*users.Page, error) {
	return f(ctx, q)
}

func makeUsers(from, n int) []users.User {
	out := make([]users.User, 0, n)
	for i := 0; i < n; i++ {
		id := from + i
		out = append(out, users.User{ID: id, Username: "user" + strconv.Itoa(id), Name: "User " + strconv.Itoa(id), Email: "u" + strconv.Itoa(id) + "@example.com", Age: 20 + id%40})
	}
	return out
}

func waitCycle(t *testing.T, cycle *Cycle) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := cycle.Wait(ctx); err != nil {
		t.Fatalf("cycle %d did not finish: %v", cycle.Seq, err)
	}
}
