package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/PabloPavan/data_explorer/internal/apperrors"
	"github.com/PabloPavan/data_explorer/internal/explorer"
	"github.com/PabloPavan/data_explorer/internal/i18n"
	"github.com/PabloPavan/data_explorer/internal/ratelimit"
	"github.com/PabloPavan/data_explorer/internal/session"
	"github.com/PabloPavan/data_explorer/internal/telemetry"
	"github.com/PabloPavan/data_explorer/internal/users"
	"github.com/PabloPavan/data_explorer/internal/views"
	"github.com/a-h/templ"
	"go.opentelemetry.io/otel/attribute"
)

// Pages holds the mounted users page of every session.
type Pages interface {
	Acquire(ctx context.Context, id string, initial users.ViewState) (*explorer.Controller, bool, error)
}

type UsersHandler struct {
	Pages    Pages
	Sessions *session.Manager
	Limiter  *ratelimit.Limiter
	// RenderWait bounds how long a response waits for the pending fetch.
	RenderWait time.Duration
}

type RangeResponse struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// UsersPageResponse is the JSON rendition of the users page.
type UsersPageResponse struct {
	Seq          uint64          `json:"seq"`
	Status       string          `json:"status"`
	View         users.ViewState `json:"view"`
	Users        []users.User    `json:"users"`
	Total        int             `json:"total"`
	TotalPages   int             `json:"total_pages"`
	Loading      bool            `json:"loading"`
	Error        string          `json:"error,omitempty"`
	Range        *RangeResponse  `json:"range,omitempty"`
	ClearVisible bool            `json:"clear_visible"`
	PrevDisabled bool            `json:"prev_disabled"`
	NextDisabled bool            `json:"next_disabled"`
}

func newUsersPageResponse(s explorer.Snapshot) UsersPageResponse {
	p := explorer.Present(s)
	resp := UsersPageResponse{
		Seq:          s.Seq,
		Status:       string(p.Status),
		View:         s.View,
		Users:        s.Result.Users,
		Total:        p.Total,
		TotalPages:   p.TotalPages,
		Loading:      s.Result.Loading,
		Error:        p.Error,
		ClearVisible: p.ClearVisible,
		PrevDisabled: p.PrevDisabled,
		NextDisabled: p.NextDisabled,
	}
	if p.FooterVisible {
		resp.Range = &RangeResponse{Start: p.RangeStart, End: p.RangeEnd}
	}
	return resp
}

// Page Users
// @Summary Users page
// @Description Mounts the page for the session on first visit and renders it. Waits up to RENDER_WAIT for a pending fetch.
// @Tags users
// @Produce html
// @Produce json
// @Param lang query string false "language (en-US, pt-BR)"
// @Success 200 {object} UsersPageResponse
// @Failure 500 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /users [get]
func (h *UsersHandler) Page(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ctrl, sess, err := h.acquire(ctx)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	h.wait(ctx, ctrl.Pending())
	snap := ctrl.Snapshot()

	telemetry.LogInfo(ctx, "users page rendered",
		telemetry.LogString("event", "explorer.render"),
		telemetry.LogString("session.id", sess.ID),
		telemetry.LogString("page.status", string(snap.Result.Status())),
		telemetry.LogInt("page.number", snap.View.Page),
	)
	h.respond(w, r, snap)
}

// Search Users
// @Summary Set the search text
// @Description Sets the search text and returns to page 1. Called on every keystroke.
// @Tags users
// @Accept x-www-form-urlencoded
// @Accept json
// @Produce json
// @Param body body SearchDTO true "search"
// @Success 200 {object} UsersPageResponse
// @Success 303
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /users/search [post]
func (h *UsersHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchDTO
	if err := decodeRequest(w, r, &req); err != nil {
		writeAppError(w, r, err)
		return
	}
	h.transition(w, r, "search", func(ctx context.Context, c *explorer.Controller) (*explorer.Cycle, error) {
		return c.SetSearch(ctx, req.Search)
	})
}

// Age Users
// @Summary Set the age filter
// @Tags users
// @Accept x-www-form-urlencoded
// @Accept json
// @Produce json
// @Param body body AgeDTO true "age bucket"
// @Success 200 {object} UsersPageResponse
// @Success 303
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /users/age [post]
func (h *UsersHandler) Age(w http.ResponseWriter, r *http.Request) {
	var req AgeDTO
	if err := decodeRequest(w, r, &req); err != nil {
		writeAppError(w, r, err)
		return
	}
	bucket, err := users.ParseAgeBucket(req.Age)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	h.transition(w, r, "age", func(ctx context.Context, c *explorer.Controller) (*explorer.Cycle, error) {
		return c.SetAgeFilter(ctx, bucket)
	})
}

// Sort Users
// @Summary Sort by a column
// @Description Toggles the order when the column is already the sort key, otherwise sorts ascending by it.
// @Tags users
// @Accept x-www-form-urlencoded
// @Accept json
// @Produce json
// @Param body body SortDTO true "sort key"
// @Success 200 {object} UsersPageResponse
// @Success 303
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /users/sort [post]
func (h *UsersHandler) Sort(w http.ResponseWriter, r *http.Request) {
	var req SortDTO
	if err := decodeRequest(w, r, &req); err != nil {
		writeAppError(w, r, err)
		return
	}
	key, err := users.ParseSortKey(req.Key)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	h.transition(w, r, "sort", func(ctx context.Context, c *explorer.Controller) (*explorer.Cycle, error) {
		return c.HandleSort(ctx, key)
	})
}

// ChangePage Users
// @Summary Change page
// @Description Moves to the previous or next page, or jumps to a page (clamped to the valid range).
// @Tags users
// @Accept x-www-form-urlencoded
// @Accept json
// @Produce json
// @Param body body PageDTO true "direction or page"
// @Success 200 {object} UsersPageResponse
// @Success 303
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /users/page [post]
func (h *UsersHandler) ChangePage(w http.ResponseWriter, r *http.Request) {
	var req PageDTO
	if err := decodeRequest(w, r, &req); err != nil {
		writeAppError(w, r, err)
		return
	}
	h.transition(w, r, "page", func(ctx context.Context, c *explorer.Controller) (*explorer.Cycle, error) {
		switch req.Direction {
		case "prev":
			return c.PrevPage(ctx)
		case "next":
			return c.NextPage(ctx)
		default:
			return c.SetPage(ctx, *req.Page)
		}
	})
}

// Clear Users
// @Summary Clear filters
// @Description Restores search, age filter, sort and page to their defaults.
// @Tags users
// @Produce json
// @Success 200 {object} UsersPageResponse
// @Success 303
// @Failure 429 {object} ErrorResponse
// @Router /users/clear [post]
func (h *UsersHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "clear", func(ctx context.Context, c *explorer.Controller) (*explorer.Cycle, error) {
		return c.ClearFilters(ctx)
	})
}

// Reload Users
// @Summary Retry the fetch
// @Description Re-runs the fetch with the current view state.
// @Tags users
// @Produce json
// @Success 200 {object} UsersPageResponse
// @Success 303
// @Failure 429 {object} ErrorResponse
// @Router /users/reload [post]
func (h *UsersHandler) Reload(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "reload", func(ctx context.Context, c *explorer.Controller) (*explorer.Cycle, error) {
		return c.Reload(ctx)
	})
}

func (h *UsersHandler) transition(w http.ResponseWriter, r *http.Request, name string, run func(ctx context.Context, c *explorer.Controller) (*explorer.Cycle, error)) {
	ctx := r.Context()
	sess, ok := session.FromContext(ctx)
	if !ok {
		writeAppError(w, r, apperrors.New(apperrors.KindInternal, "missing session"))
		return
	}

	if err := h.allow(ctx, sess.ID); err != nil {
		writeAppError(w, r, err)
		return
	}

	ctrl, _, err := h.acquire(ctx)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	ctx, span := telemetry.StartSpan(ctx, "explorer.transition",
		attribute.String("transition", name),
		attribute.String("session.id", sess.ID),
	)
	cycle, err := run(ctx, ctrl)
	span.End()
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	view := ctrl.View()
	if err := h.Sessions.SaveView(ctx, sess, view); err != nil {
		telemetry.LogWarn(ctx, "session view not saved",
			telemetry.LogString("event", "session.save.failed"),
			telemetry.LogString("session.id", sess.ID),
			telemetry.LogErr(err),
		)
	}

	if !wantsJSON(r) {
		http.Redirect(w, r, "/users", http.StatusSeeOther)
		return
	}

	h.wait(ctx, cycle)
	writeJSON(w, http.StatusOK, newUsersPageResponse(ctrl.Snapshot()))
}

func (h *UsersHandler) acquire(ctx context.Context) (*explorer.Controller, *session.Session, error) {
	sess, ok := session.FromContext(ctx)
	if !ok {
		return nil, nil, apperrors.New(apperrors.KindInternal, "missing session")
	}
	ctrl, created, err := h.Pages.Acquire(ctx, sess.ID, sess.View)
	if err != nil {
		return nil, nil, err
	}
	if created {
		telemetry.LogInfo(ctx, "users page mounted",
			telemetry.LogString("event", "explorer.mount"),
			telemetry.LogString("session.id", sess.ID),
		)
	}
	return ctrl, sess, nil
}

func (h *UsersHandler) allow(ctx context.Context, key string) error {
	if !h.Limiter.Enabled() {
		return nil
	}
	ok, retryAfter, err := h.Limiter.Allow(ctx, key)
	if err != nil {
		telemetry.LogWarn(ctx, "rate limiter unavailable",
			telemetry.LogString("event", "ratelimit.failed"),
			telemetry.LogErr(err),
		)
		return nil
	}
	if !ok {
		return apperrors.RateLimit("too many requests", retryAfter)
	}
	return nil
}

// wait blocks until cycle finished or RenderWait elapsed.
func (h *UsersHandler) wait(ctx context.Context, cycle *explorer.Cycle) {
	if cycle == nil || h.RenderWait <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, h.RenderWait)
	defer cancel()
	_ = cycle.Wait(ctx)
}

func (h *UsersHandler) respond(w http.ResponseWriter, r *http.Request, snap explorer.Snapshot) {
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, newUsersPageResponse(snap))
		return
	}

	loc, tag := localizer(r.Context())
	p := explorer.Present(snap)

	var head []templ.Component
	if p.Status == explorer.StatusLoading {
		head = append(head, views.AutoRefresh(1))
	}

	title := i18n.T(loc, "users.title") + " | " + i18n.T(loc, "nav.brand")
	page := views.Page(title, tag.String(), loc, views.UsersPage(p, loc), head...)

	w.Header().Set("Cache-Control", "no-store")
	templ.Handler(page).ServeHTTP(w, r)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
