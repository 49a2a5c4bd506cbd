package bootstrap

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/eleven-am/videochat/internal/session"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/fx"
)

func ProvideSessionHandler(service *session.Service, cfg *Config, logger *slog.Logger) (*session.Handler, error) {
	if err := os.MkdirAll(cfg.UploadDir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return session.NewHandler(service, session.HandlerConfig{
		UploadDir:      cfg.UploadDir,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}, logger), nil
}

type HandlerParams struct {
	fx.In

	SessionHandler *session.Handler
}

func RegisterRoutes(e *echo.Echo, params HandlerParams) {
	api := e.Group("/v1")
	params.SessionHandler.RegisterRoutes(api)

	e.GET("/swagger/*", echoSwagger.EchoWrapHandler())
}

var HandlersModule = fx.Options(
	fx.Provide(ProvideSessionHandler),
	fx.Invoke(RegisterRoutes),
)
