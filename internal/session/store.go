package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/eleven-am/videochat/internal/shared"
	"github.com/redis/go-redis/v9"
)

const DefaultTTL = 24 * time.Hour

type Store struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewStore(redisClient *redis.Client, ttl time.Duration) *Store {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &Store{redis: redisClient, ttl: ttl}
}

func (s *Store) CreateSession(ctx context.Context, sess *Session) error {
	if sess.ID == "" {
		sess.ID = shared.NewID("sess_")
	}
	if sess.Status == "" {
		sess.Status = StatusIdle
	}
	now := time.Now()
	sess.CreatedAt = now
	sess.LastActiveAt = now

	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	ok, err := s.redis.SetNX(ctx, sess.RedisKey(), data, s.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return shared.ErrConflict
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, id string) (*Session, error) {
	data, err := s.redis.Get(ctx, redisKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// UpdateSession rewrites the session and restarts its TTL.
func (s *Store) UpdateSession(ctx context.Context, sess *Session) error {
	sess.LastActiveAt = time.Now()
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, sess.RedisKey(), data, s.ttl).Err()
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	n, err := s.redis.Del(ctx, redisKey(id)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return shared.ErrNotFound
	}
	return nil
}
