package session

import (
	"time"

	"github.com/eleven-am/videochat/internal/conversation"
)

type Status string

const (
	StatusIdle  Status = "idle"
	StatusReady Status = "ready"
)

// Session is one chat about at most one video clip. Attaching a new clip
// starts the conversation over.
type Session struct {
	ID           string                     `json:"id"`
	Template     string                     `json:"template"`
	Conversation *conversation.Conversation `json:"conversation"`
	ClipID       string                     `json:"clip_id,omitempty"`
	Frames       int                        `json:"frames"`
	Turns        int                        `json:"turns"`
	Status       Status                     `json:"status"`
	CreatedAt    time.Time                  `json:"created_at"`
	LastActiveAt time.Time                  `json:"last_active_at"`
}

func (s *Session) RedisKey() string {
	return redisKey(s.ID)
}

func redisKey(id string) string {
	return "session:" + id
}
