package generation

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/eleven-am/videochat/internal/conversation"
)

const DefaultOllamaURL = "http://localhost:11434"

type OllamaConfig struct {
	URL         string
	PullMissing bool
	Timeout     time.Duration
	KeepAlive   string
}

// Ollama drives a local Ollama server in raw prompt mode so the
// conversation template is applied exactly as rendered.
type Ollama struct {
	httpClient *http.Client
	baseURL    string
	spec       ModelSpec
	cfg        OllamaConfig
	logger     *slog.Logger

	numCtx int
}

func NewOllama(cfg OllamaConfig, spec ModelSpec, logger *slog.Logger) *Ollama {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.URL == "" {
		cfg.URL = DefaultOllamaURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Minute
	}
	return &Ollama{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		spec:       spec,
		cfg:        cfg,
		logger:     logger.With("component", "ollama"),
	}
}

func (o *Ollama) Name() string { return "ollama" }

// ModelRef is the Ollama model reference. A quantization flag selects the
// matching tag when the path has none.
func (o *Ollama) ModelRef() string {
	ref := strings.Trim(o.spec.Path, "/")
	if hasTag(ref) {
		return ref
	}
	switch {
	case o.spec.Load8Bit:
		return ref + ":q8_0"
	case o.spec.Load4Bit:
		return ref + ":q4_0"
	}
	return ref
}

func hasTag(ref string) bool {
	return strings.Contains(ref[strings.LastIndex(ref, "/")+1:], ":")
}

type ollamaShowResponse struct {
	Details struct {
		Family            string `json:"family"`
		QuantizationLevel string `json:"quantization_level"`
	} `json:"details"`
	ModelInfo map[string]any `json:"model_info"`
}

func (o *Ollama) Load(ctx context.Context) (ModelInfo, error) {
	if err := o.spec.Validate(); err != nil {
		return ModelInfo{}, err
	}

	ref := o.ModelRef()
	show, err := o.show(ctx, ref)
	if errors.Is(err, ErrModelNotFound) && o.cfg.PullMissing {
		o.logger.Info("pulling model", "model", ref)
		if err := o.pull(ctx, ref); err != nil {
			return ModelInfo{}, err
		}
		show, err = o.show(ctx, ref)
	}
	if err != nil {
		return ModelInfo{}, err
	}

	if o.spec.Base != "" {
		if _, err := o.show(ctx, o.spec.Base); err != nil {
			return ModelInfo{}, fmt.Errorf("%w: base %s: %w", ErrBaseModelRequired, o.spec.Base, err)
		}
	}

	o.numCtx = contextLength(show.ModelInfo)
	info := ModelInfo{
		Backend:       o.Name(),
		Name:          o.spec.ModelName(),
		Ref:           ref,
		Family:        show.Details.Family,
		ContextLength: o.numCtx,
		Quantization:  show.Details.QuantizationLevel,
	}
	o.logger.Info("model loaded", "model", ref, "family", info.Family, "context_length", info.ContextLength)
	return info, nil
}

func contextLength(modelInfo map[string]any) int {
	for key, v := range modelInfo {
		if !strings.HasSuffix(key, ".context_length") {
			continue
		}
		if n, ok := v.(float64); ok {
			return int(n)
		}
	}
	return 0
}

func (o *Ollama) show(ctx context.Context, model string) (*ollamaShowResponse, error) {
	resp, err := o.post(ctx, "/api/show", map[string]any{"model": model})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, model)
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var out ollamaShowResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode show response: %w", err)
	}
	return &out, nil
}

func (o *Ollama) pull(ctx context.Context, model string) error {
	resp, err := o.post(ctx, "/api/pull", map[string]any{"model": model, "stream": false})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

type ollamaGenerateRequest struct {
	Model     string         `json:"model"`
	Prompt    string         `json:"prompt"`
	Images    []string       `json:"images,omitempty"`
	Raw       bool           `json:"raw"`
	Stream    bool           `json:"stream"`
	KeepAlive string         `json:"keep_alive,omitempty"`
	Options   map[string]any `json:"options"`
}

type ollamaGenerateChunk struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

func (o *Ollama) Generate(ctx context.Context, req Request) (string, error) {
	images := make([]string, len(req.Images))
	for i, img := range req.Images {
		images[i] = base64.StdEncoding.EncodeToString(img)
	}

	options := map[string]any{
		"temperature": req.Options.Temperature,
		"num_predict": req.Options.MaxNewTokens,
	}
	if len(req.Stop) > 0 {
		options["stop"] = req.Stop
	}
	numCtx := req.Options.NumCtx
	if numCtx == 0 {
		numCtx = o.numCtx
	}
	if numCtx > 0 {
		options["num_ctx"] = numCtx
	}
	if o.spec.Device == DeviceCPU {
		options["num_gpu"] = 0
	}

	body := ollamaGenerateRequest{
		Model:     o.ModelRef(),
		Prompt:    numberPlaceholders(req.Prompt),
		Images:    images,
		Raw:       true,
		Stream:    true,
		KeepAlive: o.cfg.KeepAlive,
		Options:   options,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	resp, err := o.post(ctx, "/api/generate", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return "", err
	}

	stop := NewKeywordStop(req.Stop...)
	var text strings.Builder
	decoder := json.NewDecoder(resp.Body)
	done := false
	for !done && decoder.More() {
		var chunk ollamaGenerateChunk
		if err := decoder.Decode(&chunk); err != nil {
			return "", fmt.Errorf("decode stream: %w", err)
		}
		if chunk.Error != "" {
			return "", fmt.Errorf("%w: %s", ErrBackendStatus, chunk.Error)
		}

		text.WriteString(chunk.Response)
		if out, ok := stop.Cut(text.String()); ok {
			o.logger.Debug("stop keyword reached", "chars", len(out))
			return out, nil
		}
		done = chunk.Done
	}
	if !done {
		return "", fmt.Errorf("%w: stream ended before done", ErrBackendStatus)
	}

	return text.String(), nil
}

func (o *Ollama) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

func (o *Ollama) post(ctx context.Context, path string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request: %w", err)
	}
	return resp, nil
}

// numberPlaceholders rewrites each image placeholder to the [img-N] form
// Ollama uses to position images in a raw prompt.
func numberPlaceholders(prompt string) string {
	parts := strings.Split(prompt, conversation.ImagePlaceholder)
	if len(parts) == 1 {
		return prompt
	}
	var b strings.Builder
	for i, part := range parts {
		if i > 0 {
			b.WriteString("[img-" + strconv.Itoa(i-1) + "]")
		}
		b.WriteString(part)
	}
	return b.String()
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("%w: status %d: %s", ErrBackendStatus, resp.StatusCode, strings.TrimSpace(string(body)))
}
