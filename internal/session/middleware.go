package session

import (
	"context"
	"errors"
	"net/http"

	"github.com/PabloPavan/data_explorer/internal/identity"
	"github.com/PabloPavan/data_explorer/internal/telemetry"
)

type ctxKey struct{}

func WithSession(ctx context.Context, sess *Session) context.Context {
	ctx = context.WithValue(ctx, ctxKey{}, sess)
	return identity.WithSession(ctx, sess.ID)
}

func FromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(ctxKey{}).(*Session)
	return sess, ok && sess != nil
}

// Middleware attaches the visitor's session to the request. A missing,
// unknown or expired session is replaced by a fresh one with the default view.
func Middleware(mgr *Manager, cookie CookieConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			sess, err := mgr.Load(ctx, cookie.read(r))
			switch {
			case err == nil:
				extended, err := mgr.Touch(ctx, sess)
				if err != nil {
					// The session is still valid; only its extension failed.
					telemetry.LogWarn(ctx, "session touch failed",
						telemetry.LogString("event", "session.touch.failed"),
						telemetry.LogString("session.id", sess.ID),
						telemetry.LogErr(err),
					)
				} else if extended {
					cookie.write(w, sess, mgr.clock())
				}
			case errors.Is(err, ErrNotFound):
				sess, err = mgr.Start(ctx)
				if err != nil {
					telemetry.LogError(ctx, "session start failed",
						telemetry.LogString("event", "session.start.failed"),
						telemetry.LogErr(err),
					)
					http.Error(w, "failed to start session", http.StatusInternalServerError)
					return
				}
				cookie.write(w, sess, mgr.clock())
			default:
				telemetry.LogError(ctx, "session load failed",
					telemetry.LogString("event", "session.load.failed"),
					telemetry.LogErr(err),
				)
				http.Error(w, "failed to load session", http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(ctx, sess)))
		})
	}
}
