package web

import (
	"context"
	"net/http"
	"time"
)

// HealthCheck is one dependency probed by /healthz.
type HealthCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(s.health))}
	status := http.StatusOK
	for _, hc := range s.health {
		if err := hc.Ping(ctx); err != nil {
			resp.Checks[hc.Name] = err.Error()
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[hc.Name] = "ok"
	}
	writeJSON(w, r, status, resp)
}
