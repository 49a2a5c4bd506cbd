package bootstrap

import (
	"github.com/eleven-am/videochat/internal/session"
	"github.com/eleven-am/videochat/internal/transcript"
	"github.com/eleven-am/videochat/internal/vision"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideSessionStore(redisClient *redis.Client, cfg *Config) *session.Store {
	return session.NewStore(redisClient, cfg.SessionTTL)
}

func ProvideFrameStore(redisClient *redis.Client, cfg *Config) *vision.Store {
	return vision.NewStore(redisClient, cfg.FrameTTL)
}

func ProvideTranscriptStore(db *gorm.DB) *transcript.Store {
	return transcript.NewStore(db)
}

func RunMigrations(transcriptStore *transcript.Store) error {
	return transcriptStore.Migrate()
}

var StoresModule = fx.Options(
	fx.Provide(
		ProvideSessionStore,
		ProvideFrameStore,
		ProvideTranscriptStore,
	),
	fx.Invoke(RunMigrations),
)
