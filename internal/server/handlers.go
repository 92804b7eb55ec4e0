package server

import (
	"net/http"
	"time"

	"tasker/internal/version"
)

// HealthInfo is the body of GET /api/health.
type HealthInfo struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	UptimeSecs int64  `json:"uptime_secs"`
	Database   string `json:"database"`
}

// GET /api/health: Liveness plus a database ping
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	info := HealthInfo{
		Status:     "ok",
		Version:    version.Version,
		UptimeSecs: int64(time.Since(s.app.StartedAt).Seconds()),
		Database:   "ok",
	}
	if err := s.app.DB.PingContext(r.Context()); err != nil {
		s.logger.Warn("HTTP: health check database ping failed: %v", err)
		info.Status = "degraded"
		info.Database = "unreachable"
		WriteJSON(w, http.StatusServiceUnavailable, info)
		return
	}
	WriteSuccess(w, info)
}
