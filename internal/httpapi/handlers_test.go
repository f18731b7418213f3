package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PabloPavan/data_explorer/internal/apperrors"
	"github.com/PabloPavan/data_explorer/internal/explorer"
	"github.com/PabloPavan/data_explorer/internal/session"
	"github.com/PabloPavan/data_explorer/internal/users"
	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fetcherStub records queries and answers with listFn.
type fetcherStub struct {
	mu      sync.Mutex
	queries []users.Query
	listFn  func(q users.Query) (*users.Page, error)
}

func (f *fetcherStub) List(ctx context.Context, q users.Query) (*users.Page, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()
	if f.listFn != nil {
		return f.listFn(q)
	}
	return &users.Page{Data: []users.User{}, TotalPages: 1}, nil
}

func (f *fetcherStub) last() users.Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[len(f.queries)-1]
}

func (f *fetcherStub) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

type pingerStub struct {
	err error
}

func (p pingerStub) Ping(ctx context.Context) error {
	return p.err
}

func pageOf(from, n, total, totalPages int) *users.Page {
	rows := make([]users.User, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, users.User{ID: from + i, Username: "user", Name: "Name", Email: "u@example.com", Age: 30})
	}
	return &users.Page{Data: rows, Total: total, TotalPages: totalPages}
}

type testEnv struct {
	server  *httptest.Server
	client  *http.Client
	fetcher *fetcherStub
}

func newTestEnv(t *testing.T, fetcher *fetcherStub) *testEnv {
	t.Helper()

	registry := explorer.NewRegistry(context.Background(), fetcher)
	t.Cleanup(registry.Close)

	sessions := &session.Manager{Store: session.NewMemoryStore(), TTL: time.Hour}
	app := &App{
		Health: &HealthHandler{Upstream: pingerStub{}},
		Users: &UsersHandler{
			Pages:      registry,
			Sessions:   sessions,
			RenderWait: 2 * time.Second,
		},
		Sessions: sessions,
		Cookie:   session.CookieConfig{Name: "explorer_session"},
	}

	srv := httptest.NewServer(NewRouter(app))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &testEnv{server: srv, client: client, fetcher: fetcher}
}

func (e *testEnv) get(t *testing.T, path string, accept string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, e.server.URL+path, nil)
	require.NoError(t, err)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	res, err := e.client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func (e *testEnv) post(t *testing.T, path string, form url.Values, accept string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, e.server.URL+path, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	res, err := e.client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func (e *testEnv) snapshot(t *testing.T) UsersPageResponse {
	t.Helper()
	res := e.get(t, "/users", "application/json")
	require.Equal(t, http.StatusOK, res.StatusCode)
	var out UsersPageResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	return out
}

func TestUsersPageRendersHTML(t *testing.T) {
	env := newTestEnv(t, &fetcherStub{listFn: func(q users.Query) (*users.Page, error) {
		return pageOf(1, 5, 42, 5), nil
	}})

	res := env.get(t, "/users", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, res.Header.Get("Content-Type"), "text/html")

	doc, err := goquery.NewDocumentFromReader(res.Body)
	require.NoError(t, err)
	assert.Equal(t, 5, doc.Find("tbody tr").Length())
	assert.Equal(t, "Showing 1 to 5 of 42 results", doc.Find("#users-footer .range").Text())
	assert.Equal(t, "Page 1 of 5", doc.Find("#users-footer .page").Text())
	assert.Equal(t, 0, doc.Find("meta[http-equiv=refresh]").Length())
	assert.Equal(t, 1, env.fetcher.count())
}

func TestUsersPageDoesNotRefetch(t *testing.T) {
	env := newTestEnv(t, &fetcherStub{})

	env.snapshot(t)
	env.snapshot(t)
	env.get(t, "/users", "")

	assert.Equal(t, 1, env.fetcher.count())
}

func TestRootRedirects(t *testing.T) {
	env := newTestEnv(t, &fetcherStub{})

	res := env.get(t, "/", "")
	assert.Equal(t, http.StatusFound, res.StatusCode)
	assert.Equal(t, "/users", res.Header.Get("Location"))
}

func TestSearchTransition(t *testing.T) {
	env := newTestEnv(t, &fetcherStub{listFn: func(q users.Query) (*users.Page, error) {
		return pageOf(1, 10, 30, 3), nil
	}})
	env.snapshot(t)

	res := env.post(t, "/users/page", url.Values{"direction": {"next"}}, "application/json")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, 2, env.fetcher.last().Page)

	res = env.post(t, "/users/search", url.Values{"search": {"ann"}}, "")
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/users", res.Header.Get("Location"))

	snap := env.snapshot(t)
	q := env.fetcher.last()
	assert.Equal(t, "ann", q.Search)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, "ann", snap.View.Search)
	assert.True(t, snap.ClearVisible)
	assert.Equal(t, 3, env.fetcher.count())
}

func TestLongSearchStillFetches(t *testing.T) {
	env := newTestEnv(t, &fetcherStub{})
	env.snapshot(t)

	long := strings.Repeat("a", 1024)
	for _, text := range []string{long[:201], long} {
		res := env.post(t, "/users/search", url.Values{"search": {text}}, "application/json")
		require.Equal(t, http.StatusOK, res.StatusCode)

		var out UsersPageResponse
		require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
		assert.Equal(t, text, out.View.Search)
		assert.Equal(t, text, env.fetcher.last().Search)
	}
	assert.Equal(t, 3, env.fetcher.count())
}

func TestSortAndClearJSON(t *testing.T) {
	env := newTestEnv(t, &fetcherStub{listFn: func(q users.Query) (*users.Page, error) {
		return pageOf(1, 10, 30, 3), nil
	}})
	env.snapshot(t)

	var out UsersPageResponse
	res := env.post(t, "/users/sort", url.Values{"key": {"age"}}, "application/json")
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	assert.Equal(t, users.SortByAge, out.View.SortKey)
	assert.Equal(t, users.OrderAsc, out.View.SortOrder)
	assert.Equal(t, "ready", out.Status)

	res = env.post(t, "/users/sort", url.Values{"key": {"age"}}, "application/json")
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	assert.Equal(t, users.OrderDesc, out.View.SortOrder)

	before := env.fetcher.count()
	res = env.post(t, "/users/clear", nil, "application/json")
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	assert.Equal(t, users.DefaultViewState(), out.View)
	assert.False(t, out.ClearVisible)
	assert.Equal(t, before+1, env.fetcher.count())
}

func TestAgeFilterJSONBody(t *testing.T) {
	env := newTestEnv(t, &fetcherStub{})
	env.snapshot(t)

	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/users/age", strings.NewReader(`{"age":"46+"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	res, err := env.client.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, users.Age46AndUp, env.fetcher.last().Age)
}

func TestTransitionValidation(t *testing.T) {
	env := newTestEnv(t, &fetcherStub{})
	env.snapshot(t)

	cases := []struct {
		name string
		path string
		form url.Values
	}{
		{"unknown sort key", "/users/sort", url.Values{"key": {"password"}}},
		{"missing sort key", "/users/sort", url.Values{}},
		{"unknown age", "/users/age", url.Values{"age": {"60-70"}}},
		{"bad direction", "/users/page", url.Values{"direction": {"sideways"}}},
		{"no direction or page", "/users/page", url.Values{}},
		{"prev on first page", "/users/page", url.Values{"direction": {"prev"}}},
		{"next on last page", "/users/page", url.Values{"direction": {"next"}}},
		{"search too long", "/users/search", url.Values{"search": {strings.Repeat("a", 1025)}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := env.post(t, tc.path, tc.form, "application/json")
			assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		})
	}
	assert.Equal(t, 1, env.fetcher.count())
}

func TestSetPageClamps(t *testing.T) {
	env := newTestEnv(t, &fetcherStub{listFn: func(q users.Query) (*users.Page, error) {
		n := 10
		if q.Page == 3 {
			n = 5
		}
		return pageOf((q.Page-1)*10+1, n, 25, 3), nil
	}})
	env.snapshot(t)

	var out UsersPageResponse
	res := env.post(t, "/users/page", url.Values{"page": {"9"}}, "application/json")
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	assert.Equal(t, 3, out.View.Page)
	assert.True(t, out.NextDisabled)
	require.NotNil(t, out.Range)
	assert.Equal(t, RangeResponse{Start: 21, End: 25}, *out.Range)
}

func TestUpstreamErrorAndRetry(t *testing.T) {
	var fail sync.Mutex
	failing := true
	env := newTestEnv(t, &fetcherStub{listFn: func(q users.Query) (*users.Page, error) {
		fail.Lock()
		defer fail.Unlock()
		if failing {
			return nil, &users.StatusError{StatusCode: 500}
		}
		return pageOf(1, 3, 3, 1), nil
	}})

	res := env.get(t, "/users", "")
	doc, err := goquery.NewDocumentFromReader(res.Body)
	require.NoError(t, err)
	assert.Equal(t, "Error Loading Data", doc.Find(".error .title").Text())
	assert.Equal(t, "Error: 500", doc.Find(".error .message").Text())
	assert.Equal(t, 0, doc.Find("tbody tr").Length())

	snap := env.snapshot(t)
	assert.Equal(t, "error", snap.Status)
	assert.Empty(t, snap.Users)

	fail.Lock()
	failing = false
	fail.Unlock()

	var out UsersPageResponse
	res = env.post(t, "/users/reload", nil, "application/json")
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	assert.Equal(t, "ready", out.Status)
	assert.Len(t, out.Users, 3)
}

func TestSlowFetchRendersSpinner(t *testing.T) {
	release := make(chan struct{})
	env := newTestEnv(t, &fetcherStub{listFn: func(q users.Query) (*users.Page, error) {
		<-release
		return pageOf(1, 1, 1, 1), nil
	}})
	t.Cleanup(func() { close(release) })

	// The request deadline cuts the render wait short.
	handler := env.server.Config.Handler
	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	rec := httptest.NewRecorder()
	ctx, cancel := context.WithTimeout(req.Context(), 50*time.Millisecond)
	defer cancel()
	handler.ServeHTTP(rec, req.WithContext(ctx))

	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Find(".spinner").Length())
	assert.Equal(t, "1", doc.Find("meta[http-equiv=refresh]").AttrOr("content", ""))
}

func TestLocaleSelection(t *testing.T) {
	env := newTestEnv(t, &fetcherStub{listFn: func(q users.Query) (*users.Page, error) {
		return pageOf(1, 2, 2, 1), nil
	}})

	res := env.get(t, "/users?lang=pt-BR", "")
	doc, err := goquery.NewDocumentFromReader(res.Body)
	require.NoError(t, err)
	assert.Equal(t, "pt-BR", doc.Find("html").AttrOr("lang", ""))
	assert.Equal(t, "Usuários", doc.Find("h1").Text())

	// The choice is remembered by cookie.
	res = env.get(t, "/users", "")
	doc, err = goquery.NewDocumentFromReader(res.Body)
	require.NoError(t, err)
	assert.Equal(t, "Exibindo 1 a 2 de 2 resultados", doc.Find("#users-footer .range").Text())
}

func TestEventsStreamsSnapshots(t *testing.T) {
	env := newTestEnv(t, &fetcherStub{listFn: func(q users.Query) (*users.Page, error) {
		return pageOf(1, 4, 4, 1), nil
	}})
	env.snapshot(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, env.server.URL+"/users/events", nil)
	require.NoError(t, err)
	res, err := env.client.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, "text/event-stream", res.Header.Get("Content-Type"))

	reader := bufio.NewReader(res.Body)
	first := readEvent(t, reader)
	assert.Equal(t, "ready", first.Status)
	assert.Len(t, first.Users, 4)

	env.post(t, "/users/search", url.Values{"search": {"x"}}, "")

	for {
		ev := readEvent(t, reader)
		if ev.View.Search == "x" && !ev.Loading {
			assert.Equal(t, 1, ev.View.Page)
			break
		}
	}
}

func readEvent(t *testing.T, r *bufio.Reader) UsersPageResponse {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		if data, ok := strings.CutPrefix(line, "data: "); ok {
			var out UsersPageResponse
			require.NoError(t, json.Unmarshal([]byte(data), &out))
			return out
		}
	}
}

func TestHealth(t *testing.T) {
	h := &HealthHandler{Upstream: pingerStub{err: errors.New("down")}, Redis: pingerStub{}}
	rec := httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var out HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.Equal(t, "ok", out.Status)
	assert.Equal(t, "down", out.Upstream)
	assert.Equal(t, "ok", out.Redis)
}

func TestWriteAppError(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{apperrors.New(apperrors.KindInvalidInput, "bad"), http.StatusBadRequest},
		{apperrors.New(apperrors.KindNotFound, ""), http.StatusNotFound},
		{apperrors.New(apperrors.KindUpstream, ""), http.StatusBadGateway},
		{explorer.ErrUnmounted, http.StatusServiceUnavailable},
		{explorer.ErrNoNextPage, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeAppError(rec, httptest.NewRequest(http.MethodPost, "/users/page", nil), tc.err)
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
	}

	rec := httptest.NewRecorder()
	writeAppError(rec, httptest.NewRequest(http.MethodPost, "/users/search", nil), apperrors.RateLimit("slow down", 1500*time.Millisecond))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestWriteAppErrorJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/users/page", nil)
	req.Header.Set("Accept", "application/json")

	rec := httptest.NewRecorder()
	writeAppError(rec, req, explorer.ErrNoPrevPage)

	var out ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "already on the first page", out.Error)
	assert.Equal(t, "invalid_input", out.Kind)

	rec = httptest.NewRecorder()
	writeAppError(rec, req, errors.New("dial tcp 10.0.0.1: refused"))
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.Equal(t, "internal error", out.Error)
}

func TestSwaggerDocs(t *testing.T) {
	env := newTestEnv(t, &fetcherStub{})

	res := env.get(t, "/swagger/doc.json", "")
	require.Equal(t, http.StatusOK, res.StatusCode)

	var doc map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&doc))
	paths, ok := doc["paths"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, paths, "/users/search")
}
