package core

import (
	"context"
	"net/http"
	"time"
)

// healthCheckTimeout bounds the database ping so the health endpoint stays
// responsive even when the pool is saturated.
const healthCheckTimeout = 2 * time.Second

// HealthStatus is the payload returned by the health endpoint.
type HealthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// HandleHealth reports process liveness and database reachability. It returns
// 200 when the database answers a ping and 503 otherwise. The endpoint is
// public and intended for load balancer health checks.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{Status: "ok", Database: "ok"}
	code := http.StatusOK

	if s.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		if err := s.DB.Ping(ctx); err != nil {
			s.Logger.Error("health check: database ping failed", "error", err)
			status.Status = "degraded"
			status.Database = "unreachable"
			code = http.StatusServiceUnavailable
		}
	}

	JSON(w, r, code, status)
}
