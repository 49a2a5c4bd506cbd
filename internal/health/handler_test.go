package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/eleven-am/videochat/internal/generation"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type stubBackend struct {
	pingErr error
}

func (s stubBackend) Name() string { return "stub" }

func (s stubBackend) Load(context.Context) (generation.ModelInfo, error) {
	return generation.ModelInfo{}, nil
}

func (s stubBackend) Generate(context.Context, generation.Request) (string, error) {
	return "", nil
}

func (s stubBackend) Ping(context.Context) error { return s.pingErr }

func newDeps(t *testing.T) (*gorm.DB, *redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	return db, client, mr
}

func readiness(t *testing.T, h *Handler) (int, HealthResponse) {
	t.Helper()
	e := echo.New()
	h.RegisterRoutes(e)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return rec.Code, resp
}

func TestLiveness(t *testing.T) {
	h := NewHandler(Config{})
	e := echo.New()
	h.RegisterRoutes(e)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestReadiness_Healthy(t *testing.T) {
	db, client, _ := newDeps(t)
	h := NewHandler(Config{
		DB:         db,
		Redis:      client,
		Backend:    stubBackend{},
		Model:      generation.ModelInfo{Backend: "stub", Name: "llava"},
		FFmpegPath: "sh",
		Version:    "test",
	})

	code, resp := readiness(t, h)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if resp.Status != StatusHealthy {
		t.Errorf("expected healthy, got %s: %+v", resp.Status, resp.Components)
	}
	if resp.Stats.Model.Name != "llava" || resp.Version != "test" {
		t.Errorf("unexpected stats: %+v", resp.Stats.Model)
	}
}

func TestReadiness_ModelDown(t *testing.T) {
	db, client, _ := newDeps(t)
	h := NewHandler(Config{
		DB:         db,
		Redis:      client,
		Backend:    stubBackend{pingErr: errors.New("refused")},
		FFmpegPath: "sh",
	})

	code, resp := readiness(t, h)
	if code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", code)
	}
	if resp.Components["model"].Error != "stub unreachable" {
		t.Errorf("unexpected model status: %+v", resp.Components["model"])
	}
}

func TestReadiness_RedisDown(t *testing.T) {
	db, client, mr := newDeps(t)
	mr.Close()
	h := NewHandler(Config{DB: db, Redis: client, Backend: stubBackend{}, FFmpegPath: "sh"})

	code, resp := readiness(t, h)
	if code != http.StatusServiceUnavailable || resp.Components["redis"].Status != StatusUnhealthy {
		t.Errorf("expected redis unhealthy, got %d %+v", code, resp.Components["redis"])
	}
}

func TestReadiness_DecoderMissingIsDegraded(t *testing.T) {
	db, client, _ := newDeps(t)
	h := NewHandler(Config{
		DB:         db,
		Redis:      client,
		Backend:    stubBackend{},
		FFmpegPath: "/nonexistent/ffmpeg",
	})

	code, resp := readiness(t, h)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if resp.Status != StatusDegraded {
		t.Errorf("expected degraded, got %s", resp.Status)
	}
}

func TestComputeOverallStatus(t *testing.T) {
	h := NewHandler(Config{})

	tests := []struct {
		name       string
		components map[string]ComponentStatus
		want       Status
	}{
		{"all healthy", map[string]ComponentStatus{"database": {Status: StatusHealthy}, "redis": {Status: StatusHealthy}}, StatusHealthy},
		{"critical down", map[string]ComponentStatus{"database": {Status: StatusUnhealthy}, "redis": {Status: StatusHealthy}}, StatusUnhealthy},
		{"model down", map[string]ComponentStatus{"model": {Status: StatusUnhealthy}}, StatusUnhealthy},
		{"decoder degraded", map[string]ComponentStatus{"redis": {Status: StatusHealthy}, "decoder": {Status: StatusDegraded}}, StatusDegraded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := h.computeOverallStatus(tt.components); got != tt.want {
				t.Errorf("computeOverallStatus() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMiddleware_CountsRequests(t *testing.T) {
	h := NewHandler(Config{})
	e := echo.New()
	e.Use(h.Middleware())
	h.RegisterRoutes(e)

	for i := 0; i < 3; i++ {
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	}
	if h.totalRequests != 3 {
		t.Errorf("expected 3 requests, got %d", h.totalRequests)
	}
}
