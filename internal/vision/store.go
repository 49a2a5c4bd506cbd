package vision

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store caches the sampled frames of a clip as a sorted set ordered by
// sample position.
type Store struct {
	redis    *redis.Client
	frameTTL time.Duration
}

func NewStore(redisClient *redis.Client, frameTTL time.Duration) *Store {
	if frameTTL == 0 {
		frameTTL = 24 * time.Hour
	}
	return &Store{
		redis:    redisClient,
		frameTTL: frameTTL,
	}
}

func clipKey(clipID string) string {
	return "clip:" + clipID + ":frames"
}

// StoreFrames replaces the cached frames of a clip.
func (s *Store) StoreFrames(ctx context.Context, clipID string, frames []Frame) error {
	if len(frames) == 0 {
		return fmt.Errorf("no frames for clip %s", clipID)
	}

	key := clipKey(clipID)
	members := make([]redis.Z, len(frames))
	for i, f := range frames {
		members[i] = redis.Z{
			Score:  float64(i),
			Member: encodeMember(f.Index, f.Image),
		}
	}

	pipe := s.redis.TxPipeline()
	pipe.Del(ctx, key)
	pipe.ZAdd(ctx, key, members...)
	pipe.Expire(ctx, key, s.frameTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Store) GetFrames(ctx context.Context, clipID string) ([]StoredFrame, error) {
	results, err := s.redis.ZRangeWithScores(ctx, clipKey(clipID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrClipNotFound, clipID)
	}

	frames := make([]StoredFrame, 0, len(results))
	for _, r := range results {
		data, ok := r.Member.(string)
		if !ok {
			return nil, fmt.Errorf("invalid frame data type")
		}
		frame, err := decodeMember(data)
		if err != nil {
			return nil, fmt.Errorf("clip %s: %w", clipID, err)
		}
		frames = append(frames, frame)
	}
	return frames, nil
}

// Touch extends the cache lifetime of a clip that is still in use.
func (s *Store) Touch(ctx context.Context, clipID string) error {
	return s.redis.Expire(ctx, clipKey(clipID), s.frameTTL).Err()
}

func (s *Store) DeleteFrames(ctx context.Context, clipID string) error {
	return s.redis.Del(ctx, clipKey(clipID)).Err()
}

// Members are prefixed with the source frame index so identical frames stay
// distinct within the set.
func encodeMember(index int, image []byte) string {
	return strconv.Itoa(index) + ":" + string(image)
}

func decodeMember(member string) (StoredFrame, error) {
	raw := []byte(member)
	sep := bytes.IndexByte(raw, ':')
	if sep <= 0 {
		return StoredFrame{}, fmt.Errorf("malformed frame member")
	}
	index, err := strconv.Atoi(string(raw[:sep]))
	if err != nil {
		return StoredFrame{}, fmt.Errorf("malformed frame index: %w", err)
	}
	return StoredFrame{Index: index, Image: raw[sep+1:]}, nil
}
