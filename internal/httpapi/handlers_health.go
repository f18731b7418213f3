package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	Upstream Pinger
	// Redis is nil when sessions are kept in memory.
	Redis Pinger
}

type HealthResponse struct {
	Status   string `json:"status"`
	Upstream string `json:"upstream"`
	Redis    string `json:"redis,omitempty"`
	Time     string `json:"time"`
}

// Get Health
// @Summary Liveness and upstream reachability
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:   "ok",
		Upstream: pingStatus(ctx, h.Upstream),
		Time:     time.Now().UTC().Format(time.RFC3339),
	}
	if h.Redis != nil {
		resp.Redis = pingStatus(ctx, h.Redis)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func pingStatus(ctx context.Context, p Pinger) string {
	if p == nil {
		return "unknown"
	}
	if err := p.Ping(ctx); err != nil {
		return "down"
	}
	return "ok"
}
