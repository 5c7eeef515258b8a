package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/ryanbastic/go-locator/internal/circuitbreaker"
)

// readyTimeout bounds the pings of a single readiness probe.
const readyTimeout = 3 * time.Second

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	backends map[string]Pinger
	breaker  *circuitbreaker.Breaker
	logger   *slog.Logger
}

// NewHealthHandler creates probes over backends. breaker may be nil; when set
// its state is reported alongside the pings.
func NewHealthHandler(backends map[string]Pinger, breaker *circuitbreaker.Breaker, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{backends: backends, breaker: breaker, logger: logger}
}

type backendStatus struct {
	Status    string `json:"status"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
	Error     string `json:"error,omitempty"`
}

type readyzResponse struct {
	Status   string                   `json:"status"`
	Circuit  string                   `json:"circuit,omitempty"`
	Backends map[string]backendStatus `json:"backends,omitempty"`
}

// Livez reports that the process can serve HTTP.
func (h *HealthHandler) Livez(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz pings all backends concurrently and reports per-backend status.
// Any failed ping makes the service unavailable.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	resp := readyzResponse{Status: "ok"}
	if h.breaker != nil {
		resp.Circuit = h.breaker.State().String()
	}

	if len(h.backends) > 0 {
		resp.Backends = h.ping(r.Context())
	}

	healthy := true
	for _, bs := range resp.Backends {
		if bs.Status != "ok" {
			healthy = false
		}
	}

	if !healthy {
		resp.Status = "unavailable"
		h.logger.Warn("readiness check failed", "backends", resp.Backends, "circuit", resp.Circuit)
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HealthHandler) ping(ctx context.Context) map[string]backendStatus {
	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		out = make(map[string]backendStatus, len(h.backends))
	)
	for name, p := range h.backends {
		wg.Go(func() {
			start := time.Now()
			err := p.Ping(ctx)
			bs := backendStatus{Status: "ok", LatencyMs: time.Since(start).Milliseconds()}
			if err != nil {
				bs.Status = "error"
				bs.Error = err.Error()
			}
			mu.Lock()
			out[name] = bs
			mu.Unlock()
		})
	}
	wg.Wait()
	return out
}
