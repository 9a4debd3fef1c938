package handlers

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is anything the readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type dependency struct {
	name     string
	pinger   Pinger
	required bool // a failing optional dependency only degrades
}

// HealthHandler serves the liveness, readiness and combined health probes.
type HealthHandler struct {
	deps      []dependency
	startTime time.Time
	version   string
}

// NewHealthHandler checks db always and redis when it is non-nil. Redis only backs rate
// limiting, which fails open, so it never makes the service unready.
func NewHealthHandler(db, redis Pinger, version string) *HealthHandler {
	h := &HealthHandler{
		deps:      []dependency{{name: "database", pinger: db, required: true}},
		startTime: time.Now(),
		version:   version,
	}
	if redis != nil {
		h.deps = append(h.deps, dependency{name: "redis", pinger: redis})
	}
	return h
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version,omitempty"`
	Uptime    string            `json:"uptime,omitempty"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// check pings every dependency and reports whether all required ones answered.
func (h *HealthHandler) check(ctx context.Context) (map[string]string, bool) {
	checks := make(map[string]string, len(h.deps)+1)
	ok := true
	for _, d := range h.deps {
		err := d.pinger.Ping(ctx)
		switch {
		case err == nil:
			checks[d.name] = "healthy"
		case d.required:
			checks[d.name] = "unhealthy: " + err.Error()
			ok = false
		default:
			checks[d.name] = "degraded: " + err.Error()
		}
	}
	return checks, ok
}

// Liveness (k8s liveness probe)
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness reports every dependency plus memory usage.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks, ok := h.check(ctx)

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	checks["memory_alloc_mb"] = fmt.Sprintf("%.2f", float64(m.Alloc)/1024/1024)

	resp := HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}
	code := http.StatusOK
	if !ok {
		resp.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, resp)
}

// Health is the short form for load balancers.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if _, ok := h.check(ctx); !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "database unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": h.version})
}
