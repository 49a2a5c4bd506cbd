package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/eleven-am/videochat/internal/chat"
	"github.com/eleven-am/videochat/internal/transcript"
	"github.com/eleven-am/videochat/internal/vision"
	"github.com/google/uuid"
)

type FrameRestorer interface {
	Restore(ctx context.Context, stored []vision.StoredFrame) ([]vision.Frame, error)
}

type Recorder interface {
	ObserveTurn(template string, err error)
	SessionCreated()
	SessionDeleted()
}

type ServiceConfig struct {
	Chat        *chat.Chat
	Sessions    *Store
	Frames      *vision.Store
	Restorer    FrameRestorer
	Transcripts *transcript.Store
	Recorder    Recorder
	Log         *slog.Logger
}

// Service runs chat turns against sessions kept in Redis.
type Service struct {
	chat        *chat.Chat
	sessions    *Store
	frames      *vision.Store
	restorer    FrameRestorer
	transcripts *transcript.Store
	recorder    Recorder
	locks       *keyedMutex
	log         *slog.Logger
}

func NewService(cfg ServiceConfig) *Service {
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.Recorder == nil {
		cfg.Recorder = noopRecorder{}
	}
	return &Service{
		chat:        cfg.Chat,
		sessions:    cfg.Sessions,
		frames:      cfg.Frames,
		restorer:    cfg.Restorer,
		transcripts: cfg.Transcripts,
		recorder:    cfg.Recorder,
		locks:       newKeyedMutex(),
		log:         cfg.Log.With("component", "session_service"),
	}
}

func (s *Service) Chat() *chat.Chat { return s.chat }

func (s *Service) Create(ctx context.Context, template string) (*Session, error) {
	conv, err := s.chat.NewConversation(template)
	if err != nil {
		return nil, err
	}

	sess := &Session{
		Template:     conv.Template.Name,
		Conversation: conv,
	}
	if err := s.sessions.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.recorder.SessionCreated()
	s.log.Info("session created", "session_id", sess.ID, "template", sess.Template)
	return sess, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	return s.sessions.GetSession(ctx, id)
}

// Delete removes the session and its cached frames. Transcripts are kept.
func (s *Service) Delete(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	sess, err := s.sessions.GetSession(ctx, id)
	if err != nil {
		return err
	}
	if err := s.sessions.DeleteSession(ctx, id); err != nil {
		return err
	}
	if sess.ClipID != "" {
		if err := s.frames.DeleteFrames(ctx, sess.ClipID); err != nil {
			s.log.Warn("failed to delete clip frames", "session_id", id, "clip_id", sess.ClipID, "error", err)
		}
	}

	s.recorder.SessionDeleted()
	s.log.Info("session deleted", "session_id", id)
	return nil
}

// AttachVideo samples the clip at path, caches its frames and starts the
// conversation over around it.
func (s *Service) AttachVideo(ctx context.Context, id, path string) (*Session, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	sess, err := s.sessions.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	frames, err := s.chat.ProcessVideo(ctx, path)
	if err != nil {
		return nil, err
	}

	clipID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("clip id: %w", err)
	}
	if err := s.frames.StoreFrames(ctx, clipID.String(), frames); err != nil {
		return nil, fmt.Errorf("cache frames: %w", err)
	}

	previous := sess.ClipID
	sess.ClipID = clipID.String()
	sess.Frames = len(frames)
	sess.Status = StatusReady
	sess.Conversation.Reset()
	if err := s.sessions.UpdateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}

	if previous != "" {
		if err := s.frames.DeleteFrames(ctx, previous); err != nil {
			s.log.Warn("failed to delete previous clip frames", "session_id", id, "clip_id", previous, "error", err)
		}
	}

	s.log.Info("video attached", "session_id", id, "clip_id", sess.ClipID, "frames", sess.Frames)
	return sess, nil
}

// Answer is a committed exchange.
type Answer struct {
	Reply   string
	Session *Session
	Turn    *transcript.Turn
}

// Ask runs one turn on the session. A failed turn leaves the stored
// conversation as it was.
func (s *Service) Ask(ctx context.Context, id, query string) (*Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	sess, err := s.sessions.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	answer, err := s.ask(ctx, sess, query)
	s.recorder.ObserveTurn(sess.Template, err)
	return answer, err
}

func (s *Service) ask(ctx context.Context, sess *Session, query string) (*Answer, error) {
	frames, err := s.loadFrames(ctx, sess)
	if err != nil {
		return nil, err
	}

	if sess.Conversation.Pending() {
		_ = sess.Conversation.Rollback()
	}

	start := time.Now()
	res, err := s.chat.Generate(ctx, frames, query, sess.Conversation)
	if err != nil {
		if sess.Conversation.Pending() {
			_ = sess.Conversation.Rollback()
		}
		return nil, err
	}
	latency := time.Since(start)

	if err := res.Commit(); err != nil {
		return nil, err
	}
	sess.Turns++
	if err := s.sessions.UpdateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	if sess.ClipID != "" {
		if err := s.frames.Touch(ctx, sess.ClipID); err != nil {
			s.log.Warn("failed to refresh clip ttl", "clip_id", sess.ClipID, "error", err)
		}
	}

	turn := &transcript.Turn{
		SessionID: sess.ID,
		Seq:       sess.Turns,
		Template:  sess.Template,
		Model:     s.chat.Model().Name,
		ClipID:    sess.ClipID,
		Query:     res.Delta.Query,
		Reply:     res.Delta.Reply,
		Frames:    res.Delta.Frames,
		LatencyMs: latency.Milliseconds(),
	}
	if err := s.transcripts.Record(ctx, turn); err != nil {
		s.log.Error("failed to record transcript", "session_id", sess.ID, "seq", turn.Seq, "error", err)
	}

	s.log.Info("turn complete", "session_id", sess.ID, "seq", turn.Seq, "frames", turn.Frames, "latency_ms", turn.LatencyMs)
	return &Answer{Reply: res.Text, Session: sess, Turn: turn}, nil
}

func (s *Service) loadFrames(ctx context.Context, sess *Session) ([]vision.Frame, error) {
	if sess.ClipID == "" {
		return nil, nil
	}
	stored, err := s.frames.GetFrames(ctx, sess.ClipID)
	if errors.Is(err, vision.ErrClipNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrClipExpired, sess.ClipID)
	}
	if err != nil {
		return nil, fmt.Errorf("load frames: %w", err)
	}
	return s.restorer.Restore(ctx, stored)
}

func (s *Service) Transcript(ctx context.Context, id string) ([]*transcript.Turn, error) {
	turns, err := s.transcripts.ListBySession(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(turns) == 0 {
		if _, err := s.sessions.GetSession(ctx, id); err != nil {
			return nil, err
		}
	}
	return turns, nil
}

type noopRecorder struct{}

func (noopRecorder) ObserveTurn(string, error) {}
func (noopRecorder) SessionCreated() {}
func (noopRecorder) SessionDeleted() {}
