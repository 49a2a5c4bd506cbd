package session

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/eleven-am/videochat/internal/chat"
	"github.com/eleven-am/videochat/internal/conversation"
	"github.com/eleven-am/videochat/internal/dto"
	"github.com/eleven-am/videochat/internal/shared"
	"github.com/eleven-am/videochat/internal/transcript"
	"github.com/eleven-am/videochat/internal/vision"
	"github.com/labstack/echo/v4"
)

// Apology is the reply shown when the model could not answer.
const Apology = "Sorry, I could not answer that. Please try again."

const DefaultMaxUploadBytes = 512 << 20

type HandlerConfig struct {
	UploadDir      string
	MaxUploadBytes int64
}

type Handler struct {
	service   *Service
	uploadDir string
	maxUpload int64
	logger    *slog.Logger
}

func NewHandler(service *Service, cfg HandlerConfig, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = os.TempDir()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	return &Handler{
		service:   service,
		uploadDir: cfg.UploadDir,
		maxUpload: cfg.MaxUploadBytes,
		logger:    logger.With("handler", "session"),
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/sessions", h.Create)
	g.GET("/sessions/:id", h.Get)
	g.DELETE("/sessions/:id", h.Delete)
	g.POST("/sessions/:id/video", h.UploadVideo)
	g.POST("/sessions/:id/messages", h.Ask)
	g.GET("/sessions/:id/transcript", h.Transcript)
	g.GET("/templates", h.ListTemplates)
}

// @Summary      Create a chat session
// @Description  Starts an empty conversation from the named template, or the default one
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        request  body      dto.CreateSessionRequest  false  "Template selection"
// @Success      201      {object}  dto.SessionResponse
// @Failure      400      {object}  shared.APIError
// @Failure      500      {object}  shared.APIError
// @Router       /sessions [post]
func (h *Handler) Create(c echo.Context) error {
	var req dto.CreateSessionRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return shared.BadRequest("invalid_request", "invalid request body")
		}
	}

	sess, err := h.service.Create(c.Request().Context(), strings.TrimSpace(req.Template))
	if err != nil {
		return h.mapError(err, "create session")
	}
	return c.JSON(http.StatusCreated, h.toResponse(sess))
}

// @Summary      Get a chat session
// @Description  Returns the session with its committed messages
// @Tags         sessions
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  dto.SessionResponse
// @Failure      404  {object}  shared.APIError
// @Failure      500  {object}  shared.APIError
// @Router       /sessions/{id} [get]
func (h *Handler) Get(c echo.Context) error {
	sess, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.mapError(err, "get session")
	}
	return c.JSON(http.StatusOK, h.toResponse(sess))
}

// @Summary      Delete a chat session
// @Description  Removes the session and its cached frames; transcripts are kept
// @Tags         sessions
// @Param        id   path      string  true  "Session ID"
// @Success      204  "No Content"
// @Failure      404  {object}  shared.APIError
// @Failure      500  {object}  shared.APIError
// @Router       /sessions/{id} [delete]
func (h *Handler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return h.mapError(err, "delete session")
	}
	return c.NoContent(http.StatusNoContent)
}

// @Summary      Attach a video
// @Description  Samples the uploaded clip, caches its frames and restarts the conversation around it
// @Tags         sessions
// @Accept       multipart/form-data
// @Produce      json
// @Param        id     path      string  true  "Session ID"
// @Param        video  formData  file    true  "Video file (.mjpeg, .ivf, or anything ffmpeg reads)"
// @Success      200    {object}  dto.VideoResponse
// @Failure      400    {object}  shared.APIError
// @Failure      404    {object}  shared.APIError
// @Failure      413    {object}  shared.APIError
// @Failure      422    {object}  shared.APIError
// @Failure      500    {object}  shared.APIError
// @Router       /sessions/{id}/video [post]
func (h *Handler) UploadVideo(c echo.Context) error {
	id := c.Param("id")
	if c.Request().ContentLength > h.maxUpload {
		return errVideoTooLarge()
	}
	c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, h.maxUpload)

	file, err := c.FormFile("video")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errVideoTooLarge()
		}
		return shared.BadRequest("missing_video", "multipart field 'video' is required")
	}

	path, err := h.saveUpload(file)
	if err != nil {
		h.logger.Error("failed to save upload", "session_id", id, "error", err)
		return shared.InternalError("upload_failed", "failed to store video")
	}
	defer os.Remove(path)

	sess, err := h.service.AttachVideo(c.Request().Context(), id, path)
	if err != nil {
		return h.mapError(err, "attach video")
	}

	return c.JSON(http.StatusOK, dto.VideoResponse{
		SessionID: sess.ID,
		ClipID:    sess.ClipID,
		Frames:    sess.Frames,
	})
}

// saveUpload copies the upload into the upload dir keeping its extension,
// which selects the frame source.
func (h *Handler) saveUpload(file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(file.Filename))
	dst, err := os.CreateTemp(h.uploadDir, "upload-*"+ext)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", err
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", err
	}
	return dst.Name(), nil
}

// @Summary      Ask about the video
// @Description  Runs one chat turn; model failures answer 502 with an apology
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        id       path      string          true  "Session ID"
// @Param        request  body      dto.AskRequest  true  "Question"
// @Success      200      {object}  dto.AskResponse
// @Failure      400      {object}  shared.APIError
// @Failure      404      {object}  shared.APIError
// @Failure      409      {object}  shared.APIError
// @Failure      502      {object}  shared.APIError
// @Router       /sessions/{id}/messages [post]
func (h *Handler) Ask(c echo.Context) error {
	var req dto.AskRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}

	answer, err := h.service.Ask(c.Request().Context(), c.Param("id"), req.Query)
	if err != nil {
		return h.mapError(err, "ask")
	}

	return c.JSON(http.StatusOK, dto.AskResponse{
		Reply: answer.Reply,
		Turn:  turnToResponse(answer.Turn),
	})
}

// @Summary      Get the transcript
// @Description  Lists the committed turns of a session in order
// @Tags         sessions
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  dto.TranscriptResponse
// @Failure      404  {object}  shared.APIError
// @Failure      500  {object}  shared.APIError
// @Router       /sessions/{id}/transcript [get]
func (h *Handler) Transcript(c echo.Context) error {
	id := c.Param("id")
	turns, err := h.service.Transcript(c.Request().Context(), id)
	if err != nil {
		return h.mapError(err, "get transcript")
	}

	resp := dto.TranscriptResponse{
		SessionID: id,
		Turns:     make([]dto.TurnResponse, len(turns)),
	}
	for i, t := range turns {
		resp.Turns[i] = turnToResponse(t)
	}
	return c.JSON(http.StatusOK, resp)
}

// @Summary      List conversation templates
// @Tags         templates
// @Produce      json
// @Success      200  {object}  dto.TemplateListResponse
// @Router       /templates [get]
func (h *Handler) ListTemplates(c echo.Context) error {
	ch := h.service.Chat()
	templates := ch.Templates()

	resp := dto.TemplateListResponse{
		Default:   ch.Template(),
		Templates: make([]dto.TemplateResponse, len(templates)),
	}
	for i, t := range templates {
		resp.Templates[i] = dto.TemplateResponse{
			Name:     t.Name,
			System:   t.System,
			Roles:    t.Roles,
			SepStyle: t.Style.String(),
			Sep:      t.Sep,
			Sep2:     t.Sep2,
			Stop:     t.StopString(),
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func errVideoTooLarge() error {
	return shared.NewAPIError("video_too_large", "video exceeds the upload limit").ToHTTP(http.StatusRequestEntityTooLarge)
}

func (h *Handler) mapError(err error, op string) error {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return shared.NotFound("session_not_found", "session not found")
	case errors.Is(err, ErrEmptyQuery):
		return shared.BadRequest("empty_query", "query is required")
	case errors.Is(err, conversation.ErrUnknownTemplate):
		return shared.BadRequest("unknown_template", err.Error())
	case errors.Is(err, ErrClipExpired):
		return shared.Conflict("clip_expired", "video frames expired, upload the clip again")
	case errors.Is(err, chat.ErrPromptImageMismatch):
		return shared.BadRequest("image_placeholder_mismatch", "query must not contain "+conversation.ImagePlaceholder+" placeholders")
	case errors.Is(err, conversation.ErrTurnPending):
		return shared.Conflict("turn_pending", "a turn is already in progress")
	case errors.Is(err, vision.ErrFFmpegNotFound):
		h.logger.Error(op+" failed", "error", err)
		return shared.InternalError("decoder_unavailable", "video decoder is not available")
	case errors.Is(err, vision.ErrEmptyVideo):
		return shared.Unprocessable("empty_video", "no frames could be decoded from the video")
	case errors.Is(err, vision.ErrVideoTooLong):
		return shared.Unprocessable("video_too_long", "video has too many frames")
	case errors.Is(err, vision.ErrUnsupportedCodec):
		return shared.Unprocessable("unsupported_codec", "video codec is not supported")
	case errors.Is(err, vision.ErrVideoOpen):
		return shared.Unprocessable("video_unreadable", "video could not be read")
	case errors.Is(err, chat.ErrGeneration):
		h.logger.Error(op+" failed", "error", err)
		return shared.BadGateway("generation_failed", Apology)
	default:
		h.logger.Error(op+" failed", "error", err)
		return shared.InternalError("internal_error", fmt.Sprintf("%s failed", op))
	}
}

func (h *Handler) toResponse(sess *Session) dto.SessionResponse {
	resp := dto.SessionResponse{
		ID:           sess.ID,
		Template:     sess.Template,
		Model:        h.service.Chat().Model().Name,
		ClipID:       sess.ClipID,
		Frames:       sess.Frames,
		Turns:        sess.Turns,
		Status:       string(sess.Status),
		Messages:     []dto.MessageResponse{},
		CreatedAt:    sess.CreatedAt,
		LastActiveAt: sess.LastActiveAt,
	}
	if sess.Conversation != nil {
		for _, m := range sess.Conversation.Messages() {
			resp.Messages = append(resp.Messages, dto.MessageResponse{Role: m.Role, Content: m.Content})
		}
	}
	return resp
}

func turnToResponse(t *transcript.Turn) dto.TurnResponse {
	return dto.TurnResponse{
		Seq:       t.Seq,
		Query:     t.Query,
		Reply:     t.Reply,
		Frames:    t.Frames,
		ClipID:    t.ClipID,
		Model:     t.Model,
		LatencyMs: t.LatencyMs,
		CreatedAt: t.CreatedAt,
	}
}
