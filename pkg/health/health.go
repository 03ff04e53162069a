// Package health exposes liveness and readiness endpoints. Checks run on
// demand when the endpoint is hit, each bounded by its own timeout.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc probes one dependency. It returns nil when healthy.
type CheckFunc func(ctx context.Context) error

type check struct {
	name    string
	timeout time.Duration
	probe   CheckFunc
}

// Service answers liveness and readiness probes. The service starts not
// ready; call SetReady(true) once initialization is done.
type Service struct {
	ready atomic.Bool

	mu     sync.RWMutex
	checks []check
}

// New returns a Service with no checks registered.
func New() *Service {
	return &Service{}
}

// AddCheck registers a readiness check. Each probe runs with its own timeout
// when the readiness endpoint is hit.
func (s *Service) AddCheck(name string, timeout time.Duration, probe CheckFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks = append(s.checks, check{name: name, timeout: timeout, probe: probe})
}

// SetReady flips the readiness flag. Readiness also requires all registered
// checks to pass.
func (s *Service) SetReady(ready bool) {
	s.ready.Store(ready)
}

// LiveEndpoint reports process liveness. It always succeeds while the
// process can serve HTTP.
func (s *Service) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, http.StatusOK, "ok", nil)
}

// ReadyEndpoint reports readiness: the ready flag must be set and every
// registered check must pass.
func (s *Service) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	if !s.ready.Load() {
		writeStatus(w, http.StatusServiceUnavailable, "not ready", nil)
		return
	}

	s.mu.RLock()
	checks := make([]check, len(s.checks))
	copy(checks, s.checks)
	s.mu.RUnlock()

	results := make(map[string]string, len(checks))
	failed := false
	for _, c := range checks {
		ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
		err := c.probe(ctx)
		cancel()
		if err != nil {
			failed = true
			results[c.name] = err.Error()
		} else {
			results[c.name] = "ok"
		}
	}

	if failed {
		writeStatus(w, http.StatusServiceUnavailable, "unhealthy", results)
		return
	}
	writeStatus(w, http.StatusOK, "ok", results)
}

func writeStatus(w http.ResponseWriter, code int, status string, checks map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks,omitempty"`
	}{Status: status, Checks: checks})
}
