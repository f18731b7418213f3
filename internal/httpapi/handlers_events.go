package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/PabloPavan/data_explorer/internal/explorer"
	"github.com/PabloPavan/data_explorer/internal/telemetry"
)

const eventsKeepAlive = 15 * time.Second

// Events Users
// @Summary Stream page state
// @Description Server-Sent Events stream; one "snapshot" event per state change of the session's users page.
// @Tags users
// @Produce text/event-stream
// @Success 200 {object} UsersPageResponse
// @Failure 500 {object} ErrorResponse
// @Router /users/events [get]
func (h *UsersHandler) Events(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ctrl, sess, err := h.acquire(ctx)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	rc := http.NewResponseController(w)

	// Latest snapshot wins; the publisher never blocks on a slow client.
	updates := make(chan explorer.Snapshot, 1)
	unsubscribe := ctrl.Subscribe(func(s explorer.Snapshot) {
		select {
		case updates <- s:
		default:
			select {
			case <-updates:
			default:
			}
			updates <- s
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	send := func(s explorer.Snapshot) error {
		payload, err := json.Marshal(newUsersPageResponse(s))
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "id: %d\nevent: snapshot\ndata: %s\n\n", s.Seq, payload); err != nil {
			return err
		}
		return rc.Flush()
	}

	if err := send(ctrl.Snapshot()); err != nil {
		return
	}

	telemetry.RecordEventStream(ctx, 1)
	defer telemetry.RecordEventStream(ctx, -1)
	telemetry.LogInfo(ctx, "users events stream opened",
		telemetry.LogString("event", "explorer.events.open"),
		telemetry.LogString("session.id", sess.ID),
	)

	ticker := time.NewTicker(eventsKeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ctrl.Done():
			return
		case s := <-updates:
			if err := send(s); err != nil {
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}
