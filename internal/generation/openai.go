package generation

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/eleven-am/videochat/internal/conversation"
)

const DefaultOpenAIURL = "https://api.openai.com/v1"

type OpenAIConfig struct {
	URL     string
	APIKey  string
	Model   string
	System  string
	Timeout time.Duration
}

// OpenAI sends turns to an OpenAI compatible chat completions API with
// frames attached as image parts.
type OpenAI struct {
	httpClient *http.Client
	cfg        OpenAIConfig
	logger     *slog.Logger
}

func NewOpenAI(cfg OpenAIConfig, logger *slog.Logger) *OpenAI {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.URL == "" {
		cfg.URL = DefaultOpenAIURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 300 * time.Second
	}
	cfg.URL = strings.TrimRight(cfg.URL, "/")
	return &OpenAI{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		logger:     logger.With("component", "openai"),
	}
}

func (c *OpenAI) Name() string { return "openai" }

func (c *OpenAI) Load(ctx context.Context) (ModelInfo, error) {
	if c.cfg.Model == "" {
		return ModelInfo{}, fmt.Errorf("%w: no model configured", ErrInvalidModel)
	}

	resp, err := c.do(ctx, http.MethodGet, "/models/"+c.cfg.Model, nil)
	if err != nil {
		return ModelInfo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ModelInfo{}, fmt.Errorf("%w: %s", ErrModelNotFound, c.cfg.Model)
	}
	if err := checkStatus(resp); err != nil {
		return ModelInfo{}, err
	}

	var model struct {
		ID      string `json:"id"`
		OwnedBy string `json:"owned_by"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&model); err != nil {
		return ModelInfo{}, fmt.Errorf("decode model: %w", err)
	}

	c.logger.Info("model loaded", "model", model.ID, "owned_by", model.OwnedBy)
	return ModelInfo{
		Backend: c.Name(),
		Name:    c.cfg.Model,
		Ref:     model.ID,
		Family:  model.OwnedBy,
	}, nil
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// Generate sends the conversation as chat messages. Images ride on the
// first user message, in frame order, and placeholders are dropped from
// the text.
func (c *OpenAI) Generate(ctx context.Context, req Request) (string, error) {
	msgs := make([]chatMessage, 0, len(req.Messages)+1)
	if c.cfg.System != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: c.cfg.System})
	}

	attached := false
	for _, m := range req.Messages {
		text := stripPlaceholders(m.Content)
		if attached || m.Role != conversation.RoleUser || len(req.Images) == 0 {
			msgs = append(msgs, chatMessage{Role: m.Role, Content: text})
			continue
		}

		parts := make([]contentPart, 0, len(req.Images)+1)
		for _, img := range req.Images {
			parts = append(parts, contentPart{
				Type:     "image_url",
				ImageURL: &imageURL{URL: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(img)},
			})
		}
		parts = append(parts, contentPart{Type: "text", Text: text})
		msgs = append(msgs, chatMessage{Role: m.Role, Content: parts})
		attached = true
	}

	body := map[string]any{
		"model":       c.cfg.Model,
		"messages":    msgs,
		"max_tokens":  req.Options.MaxNewTokens,
		"temperature": req.Options.Temperature,
	}
	if len(req.Stop) > 0 {
		body["stop"] = req.Stop
	}

	resp, err := c.do(ctx, http.MethodPost, "/chat/completions", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return "", err
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode completion: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	c.logger.Debug("completion received",
		"finish_reason", result.Choices[0].FinishReason,
		"prompt_tokens", result.Usage.PromptTokens,
		"completion_tokens", result.Usage.CompletionTokens,
	)
	return result.Choices[0].Message.Content, nil
}

func (c *OpenAI) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	resp, err := c.do(ctx, http.MethodGet, "/models", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

func (c *OpenAI) do(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.URL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai request: %w", err)
	}
	return resp, nil
}

func stripPlaceholders(text string) string {
	text = strings.ReplaceAll(text, conversation.ImagePlaceholder+"\n", "")
	text = strings.ReplaceAll(text, conversation.ImagePlaceholder, "")
	return strings.TrimSpace(text)
}
