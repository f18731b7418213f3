package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/PabloPavan/data_explorer/internal/apperrors"
	"github.com/PabloPavan/data_explorer/internal/telemetry"
)

// ErrorResponse is the JSON body of a failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// writeAppError answers with the status of err's kind, as JSON when the
// client asked for it and as plain text otherwise.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		appErr = apperrors.Wrap(apperrors.KindInternal, "", err)
	}

	status := statusFromKind(appErr.Kind)
	if appErr.Kind == apperrors.KindRateLimited && appErr.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(max(int(appErr.RetryAfter.Seconds()), 1)))
	}
	if status >= http.StatusInternalServerError {
		telemetry.LogError(r.Context(), "request failed",
			telemetry.LogString("event", "http.error"),
			telemetry.LogString("error.kind", string(appErr.Kind)),
			telemetry.LogErr(err),
		)
	}

	msg := publicMessage(appErr)
	if wantsJSON(r) {
		writeJSON(w, status, ErrorResponse{Error: msg, Kind: string(appErr.Kind)})
		return
	}
	http.Error(w, msg, status)
}

func statusFromKind(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindInvalidInput:
		return http.StatusBadRequest
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindRateLimited:
		return http.StatusTooManyRequests
	case apperrors.KindUpstream:
		return http.StatusBadGateway
	case apperrors.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage hides wrapped causes of internal errors.
func publicMessage(appErr *apperrors.Error) string {
	if appErr.Kind == apperrors.KindInternal {
		return "internal error"
	}
	if appErr.Message != "" {
		return appErr.Message
	}
	return http.StatusText(statusFromKind(appErr.Kind))
}
