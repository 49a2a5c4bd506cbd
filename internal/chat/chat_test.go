package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/eleven-am/videochat/internal/conversation"
	"github.com/eleven-am/videochat/internal/generation"
	"github.com/eleven-am/videochat/internal/vision"
	"github.com/eleven-am/videochat/internal/vision/visiontest"
)

type fakeBackend struct {
	mu       sync.Mutex
	reply    string
	err      error
	loadErr  error
	loads    int
	requests []generation.Request
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Load(context.Context) (generation.ModelInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	return generation.ModelInfo{Backend: "fake", Name: "llava_llama3_8b_video"}, f.loadErr
}

func (f *fakeBackend) Generate(_ context.Context, req generation.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.reply, f.err
}

func (f *fakeBackend) Ping(context.Context) error { return nil }

type recordingObserver struct {
	sampled     int
	generations int
	lastErr     error
}

func (r *recordingObserver) ObserveSampling(_ time.Duration, frames int, err error) {
	r.sampled += frames
	r.lastErr = err
}

func (r *recordingObserver) ObserveGeneration(_ string, _ time.Duration, err error) {
	r.generations++
	r.lastErr = err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestChat(t *testing.T, backend *fakeBackend, obs Observer) *Chat {
	t.Helper()
	sampler := vision.NewSampler(vision.Config{ImageSize: 32}, discardLogger())
	c, err := New(context.Background(), backend, sampler, conversation.NewRegistry(), Config{Observer: obs}, discardLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func testFrames(n int) []vision.Frame {
	frames := make([]vision.Frame, n)
	for i := range frames {
		frames[i] = vision.Frame{Index: i, Image: []byte{byte(i)}}
	}
	return frames
}

func TestNew_LoadsModelOnce(t *testing.T) {
	backend := &fakeBackend{}
	c := newTestChat(t, backend, nil)

	if backend.loads != 1 {
		t.Errorf("expected 1 load, got %d", backend.loads)
	}
	if c.Template() != conversation.DefaultTemplate {
		t.Errorf("expected default template, got %s", c.Template())
	}
	if c.Model().Name != "llava_llama3_8b_video" {
		t.Errorf("unexpected model %+v", c.Model())
	}
}

func TestNew_Errors(t *testing.T) {
	sampler := vision.NewSampler(vision.Config{}, discardLogger())

	_, err := New(context.Background(), &fakeBackend{}, sampler, conversation.NewRegistry(), Config{Template: "nope"}, nil)
	if !errors.Is(err, conversation.ErrUnknownTemplate) {
		t.Errorf("expected ErrUnknownTemplate, got %v", err)
	}

	loadErr := errors.New("weights missing")
	_, err = New(context.Background(), &fakeBackend{loadErr: loadErr}, sampler, conversation.NewRegistry(), Config{}, nil)
	if !errors.Is(err, loadErr) {
		t.Errorf("expected load error, got %v", err)
	}
}

func TestGenerate_NinetyFrameClip(t *testing.T) {
	backend := &fakeBackend{reply: "  The cat falls off the table.<|eot_id|> \n"}
	obs := &recordingObserver{}
	c := newTestChat(t, backend, obs)

	path := visiontest.WriteMJPEG(t, 90, 48, 32)
	frames, err := c.ProcessVideo(context.Background(), path)
	if err != nil {
		t.Fatalf("ProcessVideo failed: %v", err)
	}
	if len(frames) != 30 {
		t.Fatalf("expected 30 frames, got %d", len(frames))
	}

	state, _ := c.NewConversation("")
	result, err := c.Generate(context.Background(), frames, "Describe this clip", state)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if result.Text != "The cat falls off the table." {
		t.Errorf("unexpected text %q", result.Text)
	}
	if strings.Contains(result.Text, "<|eot_id|>") {
		t.Error("stop string left in output")
	}

	req := backend.requests[0]
	if conversation.CountPlaceholders(req.Prompt) != 30 {
		t.Errorf("expected 30 placeholders, got %d", conversation.CountPlaceholders(req.Prompt))
	}
	if !strings.Contains(req.Prompt, strings.Repeat("<image>\n", 30)+"Describe this clip") {
		t.Error("expected placeholders followed by the query")
	}
	if len(req.Images) != 30 {
		t.Errorf("expected 30 images, got %d", len(req.Images))
	}
	if len(req.Stop) != 1 || req.Stop[0] != "<|eot_id|>" {
		t.Errorf("unexpected stop %v", req.Stop)
	}
	if req.Options.MaxNewTokens != 128 || req.Options.Temperature != 0 || !req.Options.UseCache {
		t.Errorf("unexpected decoding options %+v", req.Options)
	}

	if len(state.Turns) != 2 || !state.Pending() {
		t.Fatalf("expected one user turn and one pending assistant turn, got %+v", state.Turns)
	}
	if result.Delta.Query != "Describe this clip" || result.Delta.Frames != 30 {
		t.Errorf("unexpected delta %+v", result.Delta)
	}

	if err := result.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if state.Pending() || state.Turns[1].Text() != "The cat falls off the table." {
		t.Errorf("expected resolved assistant turn, got %+v", state.Turns[1])
	}
	if obs.sampled != 30 || obs.generations != 1 {
		t.Errorf("expected observer to see sampling and generation, got %+v", obs)
	}
}

func TestGenerate_FollowUpDoesNotRepeatPlaceholders(t *testing.T) {
	backend := &fakeBackend{reply: "ok"}
	c := newTestChat(t, backend, nil)
	frames := testFrames(4)

	state, _ := c.NewConversation("vicuna_v1")
	first, err := c.Generate(context.Background(), frames, "What happens?", state)
	if err != nil {
		t.Fatalf("first turn failed: %v", err)
	}
	_ = first.Commit()

	if _, err := c.Generate(context.Background(), frames, "And then?", state); err != nil {
		t.Fatalf("second turn failed: %v", err)
	}

	prompt := backend.requests[1].Prompt
	if conversation.CountPlaceholders(prompt) != 4 {
		t.Errorf("expected placeholders only once, got %d", conversation.CountPlaceholders(prompt))
	}
	if !strings.HasSuffix(prompt, "USER: And then? ASSISTANT:") {
		t.Errorf("unexpected prompt tail %q", prompt)
	}
}

func TestGenerate_RespectsExplicitPlaceholders(t *testing.T) {
	backend := &fakeBackend{reply: "ok"}
	c := newTestChat(t, backend, nil)

	state, _ := c.NewConversation("")
	query := "<image>\n<image>\nCompare"
	if _, err := c.Generate(context.Background(), testFrames(2), query, state); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if state.Turns[0].Text() != query {
		t.Errorf("query was rewritten: %q", state.Turns[0].Text())
	}
}

func TestGenerate_PlaceholderMismatch(t *testing.T) {
	backend := &fakeBackend{reply: "ok"}
	c := newTestChat(t, backend, nil)

	state, _ := c.NewConversation("")
	_, err := c.Generate(context.Background(), testFrames(3), "<image>\nOnly one", state)
	if !errors.Is(err, ErrPromptImageMismatch) {
		t.Fatalf("expected ErrPromptImageMismatch, got %v", err)
	}
	if len(backend.requests) != 0 {
		t.Error("backend should not be called on mismatch")
	}
	if err := state.Rollback(); err != nil {
		t.Errorf("expected pending exchange to roll back: %v", err)
	}
}

func TestGenerate_BackendFailure(t *testing.T) {
	cause := errors.New("connection refused")
	obs := &recordingObserver{}
	c := newTestChat(t, &fakeBackend{err: cause}, obs)

	state, _ := c.NewConversation("")
	_, err := c.Generate(context.Background(), nil, "hello", state)
	if !errors.Is(err, ErrGeneration) || !errors.Is(err, cause) {
		t.Fatalf("expected wrapped ErrGeneration, got %v", err)
	}
	if !state.Pending() {
		t.Error("expected pending exchange to remain for the caller")
	}
	if !errors.Is(obs.lastErr, cause) {
		t.Errorf("expected observer to see failure, got %v", obs.lastErr)
	}
}

func TestGenerate_RejectsPendingState(t *testing.T) {
	backend := &fakeBackend{reply: "ok"}
	c := newTestChat(t, backend, nil)

	state, _ := c.NewConversation("")
	_, _ = c.Generate(context.Background(), nil, "first", state)

	_, err := c.Generate(context.Background(), nil, "second", state)
	if !errors.Is(err, conversation.ErrTurnPending) {
		t.Fatalf("expected ErrTurnPending, got %v", err)
	}
	if len(backend.requests) != 1 {
		t.Errorf("expected a single backend call, got %d", len(backend.requests))
	}
}

func TestProcessVideo_Errors(t *testing.T) {
	obs := &recordingObserver{}
	c := newTestChat(t, &fakeBackend{}, obs)

	_, err := c.ProcessVideo(context.Background(), "/does/not/exist.mjpeg")
	if !errors.Is(err, vision.ErrVideoOpen) {
		t.Fatalf("expected ErrVideoOpen, got %v", err)
	}
	if !errors.Is(obs.lastErr, vision.ErrVideoOpen) {
		t.Errorf("expected observer to see sampling failure, got %v", obs.lastErr)
	}
}

func TestBuildPrompt(t *testing.T) {
	c := newTestChat(t, &fakeBackend{}, nil)
	state, _ := c.NewConversation("llava_v0")
	_, _ = c.AppendTurn("<image>\n<image>\nWhat?", state)

	prompt, err := c.BuildPrompt(state, testFrames(2))
	if err != nil {
		t.Fatalf("BuildPrompt failed: %v", err)
	}
	if !strings.HasSuffix(prompt, "###Human: <image>\n<image>\nWhat?###Assistant:") {
		t.Errorf("unexpected prompt %q", prompt)
	}

	if _, err := c.BuildPrompt(state, testFrames(1)); !errors.Is(err, ErrPromptImageMismatch) {
		t.Errorf("expected ErrPromptImageMismatch, got %v", err)
	}
}
