package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// HealthStatus represents the health of the service.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// Check is a named health probe.
type Check struct {
	Name    string
	Probe   func(context.Context) error
	Timeout time.Duration
}

// CheckResult reports the outcome of one probe.
type CheckResult struct {
	Status HealthStatus `json:"status"`
	Error  string       `json:"error,omitempty"`
}

// HealthResponse is the JSON body served on /health.
type HealthResponse struct {
	Status    HealthStatus           `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// HealthChecker runs registered probes on demand.
type HealthChecker struct {
	mu     sync.RWMutex
	checks []Check
}

// NewHealthChecker creates an empty health checker.
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{}
}

// Register adds a probe. A zero timeout defaults to 2 seconds.
func (h *HealthChecker) Register(check Check) {
	if check.Timeout <= 0 {
		check.Timeout = 2 * time.Second
	}
	h.mu.Lock()
	h.checks = append(h.checks, check)
	h.mu.Unlock()
}

// Run executes all probes and aggregates the result.
func (h *HealthChecker) Run(ctx context.Context) HealthResponse {
	h.mu.RLock()
	checks := make([]Check, len(h.checks))
	copy(checks, h.checks)
	h.mu.RUnlock()

	resp := HealthResponse{
		Status:    HealthStatusHealthy,
		Timestamp: time.Now().UTC(),
		Checks:    make(map[string]CheckResult, len(checks)),
	}

	for _, check := range checks {
		probeCtx, cancel := context.WithTimeout(ctx, check.Timeout)
		err := check.Probe(probeCtx)
		cancel()

		result := CheckResult{Status: HealthStatusHealthy}
		if err != nil {
			result = CheckResult{Status: HealthStatusUnhealthy, Error: err.Error()}
			resp.Status = HealthStatusUnhealthy
		}
		resp.Checks[check.Name] = result
	}

	return resp
}

// Handler serves the aggregated health report.
func (h *HealthChecker) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := h.Run(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if resp.Status != HealthStatusHealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// LivenessHandler reports process liveness.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
	}
}
