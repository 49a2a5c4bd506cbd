package transcript

import (
	"context"

	"github.com/eleven-am/videochat/internal/shared"
	"gorm.io/gorm"
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&Turn{})
}

func (s *Store) Record(ctx context.Context, turn *Turn) error {
	if turn.ID == "" {
		turn.ID = shared.NewID("turn_")
	}
	return s.db.WithContext(ctx).Create(turn).Error
}

func (s *Store) ListBySession(ctx context.Context, sessionID string) ([]*Turn, error) {
	var turns []*Turn
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("seq ASC").
		Find(&turns).Error
	return turns, err
}

func (s *Store) CountBySession(ctx context.Context, sessionID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&Turn{}).Where("session_id = ?", sessionID).Count(&n).Error
	return n, err
}

func (s *Store) DeleteBySession(ctx context.Context, sessionID string) error {
	return s.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&Turn{}).Error
}
