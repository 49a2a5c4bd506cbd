package bootstrap

import (
	"github.com/eleven-am/videochat/internal/chat"
	"github.com/eleven-am/videochat/internal/health"
	"github.com/eleven-am/videochat/internal/metrics"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

const version = "1.0.0"

func ProvideHealthHandler(db *gorm.DB, redis *redis.Client, c *chat.Chat, cfg *Config) *health.Handler {
	return health.NewHandler(health.Config{
		DB:         db,
		Redis:      redis,
		Backend:    c.Backend(),
		Model:      c.Model(),
		FFmpegPath: cfg.FFmpegPath,
		Version:    version,
	})
}

func RegisterHealthRoutes(e *echo.Echo, h *health.Handler, recorder *metrics.Recorder) {
	e.Use(h.Middleware())
	h.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(recorder.Handler()))
}

var HealthModule = fx.Options(
	fx.Provide(ProvideHealthHandler),
	fx.Invoke(RegisterHealthRoutes),
)
