package transcript

import "time"

// Turn is one committed exchange of a chat session.
type Turn struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	SessionID string    `gorm:"not null;index:idx_transcript_session_seq,priority:1" json:"session_id"`
	Seq       int       `gorm:"not null;index:idx_transcript_session_seq,priority:2" json:"seq"`
	Template  string    `gorm:"not null" json:"template"`
	Model     string    `gorm:"not null" json:"model"`
	ClipID    string    `json:"clip_id,omitempty"`
	Query     string    `gorm:"type:text;not null" json:"query"`
	Reply     string    `gorm:"type:text;not null" json:"reply"`
	Frames    int       `json:"frames"`
	LatencyMs int64     `json:"latency_ms"`
	CreatedAt time.Time `json:"created_at"`
}

func (Turn) TableName() string {
	return "transcript_turns"
}
