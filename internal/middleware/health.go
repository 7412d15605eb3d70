package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthStatus is the body of the /health endpoint.
type HealthStatus struct {
	Status      string    `json:"status"`
	Database    string    `json:"database"`
	LastChecked time.Time `json:"last_checked"`
	Uptime      string    `json:"uptime"`
	Version     string    `json:"version"`
}

type Pinger interface {
	Ping(ctx context.Context) error
}

const (
	healthCacheDuration = 5 * time.Second
	healthPingTimeout   = 2 * time.Second
)

// HealthChecker reports liveness and database reachability. Results are
// cached for a few seconds so probes do not hammer the database.
type HealthChecker struct {
	db        Pinger
	version   string
	startTime time.Time
	now       func() time.Time

	mu     sync.Mutex
	last   HealthStatus
	cached bool
}

func NewHealthChecker(db Pinger, version string) *HealthChecker {
	return &HealthChecker{
		db:        db,
		version:   version,
		startTime: time.Now(),
		now:       time.Now,
	}
}

func (h *HealthChecker) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		status := h.Check(c.Request.Context())

		code := http.StatusOK
		if status.Status != "ok" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	}
}

func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	if h.cached && now.Sub(h.last.LastChecked) < healthCacheDuration {
		h.last.Uptime = now.Sub(h.startTime).Round(time.Second).String()
		return h.last
	}

	status := HealthStatus{
		Status:      "ok",
		Database:    "ok",
		LastChecked: now,
		Uptime:      now.Sub(h.startTime).Round(time.Second).String(),
		Version:     h.version,
	}

	pingCtx, cancel := context.WithTimeout(ctx, healthPingTimeout)
	defer cancel()
	if err := h.db.Ping(pingCtx); err != nil {
		status.Status = "degraded"
		status.Database = "unreachable"
	}

	h.last = status
	h.cached = true
	return status
}
