package health

import (
	"context"
	"database/sql"
	"net/http"
	"os/exec"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eleven-am/videochat/internal/generation"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

type ComponentStatus struct {
	Status    Status `json:"status"`
	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

type RuntimeStats struct {
	Goroutines         int    `json:"goroutines"`
	MemoryAllocMB      uint64 `json:"memory_alloc_mb"`
	MemoryTotalAllocMB uint64 `json:"memory_total_alloc_mb"`
	MemorySysMB        uint64 `json:"memory_sys_mb"`
	NumGC              uint32 `json:"num_gc"`
}

type RequestStats struct {
	TotalRequests uint64 `json:"total_requests"`
	InFlight      int64  `json:"in_flight"`
}

type ModelStats struct {
	Backend       string `json:"backend"`
	Name          string `json:"name"`
	Ref           string `json:"ref,omitempty"`
	ContextLength int    `json:"context_length,omitempty"`
	Quantization  string `json:"quantization,omitempty"`
}

type Stats struct {
	Model    ModelStats   `json:"model"`
	Requests RequestStats `json:"requests"`
	Runtime  RuntimeStats `json:"runtime"`
}

type HealthResponse struct {
	Status        Status                     `json:"status"`
	Timestamp     time.Time                  `json:"timestamp"`
	Version       string                     `json:"version"`
	UptimeSeconds int64                      `json:"uptime_seconds"`
	Stats         Stats                      `json:"stats"`
	Components    map[string]ComponentStatus `json:"components"`
}

type Config struct {
	DB         *gorm.DB
	Redis      *redis.Client
	Backend    generation.Backend
	Model      generation.ModelInfo
	FFmpegPath string
	Version    string
}

type Handler struct {
	db         *gorm.DB
	redis      *redis.Client
	backend    generation.Backend
	model      generation.ModelInfo
	ffmpegPath string
	version    string
	startTime  time.Time

	totalRequests uint64
	inFlight      int64
}

func NewHandler(cfg Config) *Handler {
	return &Handler{
		db:         cfg.DB,
		redis:      cfg.Redis,
		backend:    cfg.Backend,
		model:      cfg.Model,
		ffmpegPath: cfg.FFmpegPath,
		version:    cfg.Version,
		startTime:  time.Now(),
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Liveness)
	e.GET("/health/ready", h.Readiness)
}

// Middleware counts requests served by e.
func (h *Handler) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			atomic.AddUint64(&h.totalRequests, 1)
			atomic.AddInt64(&h.inFlight, 1)
			defer atomic.AddInt64(&h.inFlight, -1)
			return next(c)
		}
	}
}

func (h *Handler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

func (h *Handler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	components := make(map[string]ComponentStatus)
	var mu sync.Mutex
	var wg sync.WaitGroup

	checks := []struct {
		name  string
		check func(context.Context) ComponentStatus
	}{
		{"database", h.checkDatabase},
		{"redis", h.checkRedis},
		{"model", h.checkModel},
		{"decoder", h.checkDecoder},
	}

	wg.Add(len(checks))
	for _, check := range checks {
		go func(name string, fn func(context.Context) ComponentStatus) {
			defer wg.Done()
			status := fn(ctx)
			mu.Lock()
			components[name] = status
			mu.Unlock()
		}(check.name, check.check)
	}
	wg.Wait()

	overallStatus := h.computeOverallStatus(components)

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	resp := HealthResponse{
		Status:        overallStatus,
		Timestamp:     time.Now().UTC(),
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Stats: Stats{
			Model: ModelStats{
				Backend:       h.model.Backend,
				Name:          h.model.Name,
				Ref:           h.model.Ref,
				ContextLength: h.model.ContextLength,
				Quantization:  h.model.Quantization,
			},
			Requests: RequestStats{
				TotalRequests: atomic.LoadUint64(&h.totalRequests),
				InFlight:      atomic.LoadInt64(&h.inFlight),
			},
			Runtime: RuntimeStats{
				Goroutines:         runtime.NumGoroutine(),
				MemoryAllocMB:      memStats.Alloc / 1024 / 1024,
				MemoryTotalAllocMB: memStats.TotalAlloc / 1024 / 1024,
				MemorySysMB:        memStats.Sys / 1024 / 1024,
				NumGC:              memStats.NumGC,
			},
		},
		Components: components,
	}

	statusCode := http.StatusOK
	if overallStatus == StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	return c.JSON(statusCode, resp)
}

func (h *Handler) checkDatabase(ctx context.Context) ComponentStatus {
	start := time.Now()
	if h.db == nil {
		return unhealthy(start, "database not configured")
	}

	sqlDB, err := h.db.DB()
	if err != nil {
		return unhealthy(start, "failed to get underlying db")
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return unhealthy(start, "ping failed")
	}

	return ComponentStatus{
		Status:    h.evaluateDBStats(sqlDB.Stats()),
		LatencyMs: time.Since(start).Milliseconds(),
	}
}

func (h *Handler) evaluateDBStats(stats sql.DBStats) Status {
	if stats.OpenConnections >= stats.MaxOpenConnections && stats.MaxOpenConnections > 0 {
		return StatusDegraded
	}
	return StatusHealthy
}

func (h *Handler) checkRedis(ctx context.Context) ComponentStatus {
	start := time.Now()
	if h.redis == nil {
		return unhealthy(start, "redis not configured")
	}

	if err := h.redis.Ping(ctx).Err(); err != nil {
		return unhealthy(start, "ping failed")
	}
	return healthy(start)
}

func (h *Handler) checkModel(ctx context.Context) ComponentStatus {
	start := time.Now()
	if h.backend == nil {
		return unhealthy(start, "model backend not configured")
	}

	if err := h.backend.Ping(ctx); err != nil {
		return unhealthy(start, h.backend.Name()+" unreachable")
	}
	return healthy(start)
}

// checkDecoder reports degraded when ffmpeg is missing: only the
// containers decoded in process remain usable.
func (h *Handler) checkDecoder(context.Context) ComponentStatus {
	start := time.Now()
	if h.ffmpegPath == "" {
		return ComponentStatus{Status: StatusDegraded, Error: "ffmpeg not configured"}
	}
	if _, err := exec.LookPath(h.ffmpegPath); err != nil {
		return ComponentStatus{
			Status:    StatusDegraded,
			LatencyMs: time.Since(start).Milliseconds(),
			Error:     "ffmpeg not found",
		}
	}
	return healthy(start)
}

func healthy(start time.Time) ComponentStatus {
	return ComponentStatus{
		Status:    StatusHealthy,
		LatencyMs: time.Since(start).Milliseconds(),
	}
}

func unhealthy(start time.Time, msg string) ComponentStatus {
	return ComponentStatus{
		Status:    StatusUnhealthy,
		LatencyMs: time.Since(start).Milliseconds(),
		Error:     msg,
	}
}

func (h *Handler) computeOverallStatus(components map[string]ComponentStatus) Status {
	criticalComponents := []string{"database", "redis", "model"}

	for _, name := range criticalComponents {
		if status, ok := components[name]; ok && status.Status == StatusUnhealthy {
			return StatusUnhealthy
		}
	}

	for _, status := range components {
		if status.Status != StatusHealthy {
			return StatusDegraded
		}
	}

	return StatusHealthy
}
