// ABOUTME: HTTP adapter exposing the question pipeline over gin
// ABOUTME: POST /v1/ask, POST /v1/ask/voice and GET /healthz
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/harper/content-assistant/internal/core"
	"github.com/harper/content-assistant/internal/logging"
	"github.com/harper/content-assistant/internal/models"
	"github.com/harper/content-assistant/internal/render"
	"github.com/sirupsen/logrus"
)

// maxVoiceBytes caps uploaded voice questions
const maxVoiceBytes = 25 << 20

// Asker answers text and voice questions
type Asker interface {
	Ask(ctx context.Context, userID, question string) (*models.AnswerResult, error)
	AskVoice(ctx context.Context, userID, audioPath string) (*models.AnswerResult, error)
}

// HealthChecker reports whether the chunk store is reachable
type HealthChecker interface {
	Count(ctx context.Context) (int, error)
}

// API provides handlers for the assistant
type API struct {
	asker    Asker
	renderer render.Renderer
	links    render.TextRenderer
	health   HealthChecker
	logger   logrus.FieldLogger
}

// NewAPI creates the handlers. renderer decides whether replies carry speech.
func NewAPI(asker Asker, renderer render.Renderer, links render.TextRenderer, health HealthChecker, logger logrus.FieldLogger) *API {
	if renderer == nil {
		renderer = links
	}
	return &API{
		asker:    asker,
		renderer: renderer,
		links:    links,
		health:   health,
		logger:   logging.OrDefault(logger, "http"),
	}
}

// NewRouter builds a gin engine with all routes registered
func NewRouter(api *API) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(api.logger))
	RegisterRoutes(router, api)
	return router
}

// RegisterRoutes registers all the routes for the assistant
func RegisterRoutes(router *gin.Engine, api *API) {
	router.GET("/healthz", api.HealthHandler)

	v1 := router.Group("/v1")
	{
		v1.POST("/ask", api.AskHandler)
		v1.POST("/ask/voice", api.AskVoiceHandler)
	}
}

type askRequest struct {
	Question string `json:"question" binding:"required"`
	UserID   string `json:"user_id"`
}

type sourceResponse struct {
	Type    models.ContentType `json:"type"`
	Title   string             `json:"title"`
	Locator string             `json:"locator"`
	URL     string             `json:"url,omitempty"`
}

type askResponse struct {
	Question   string           `json:"question"`
	Answer     string           `json:"answer"`
	Text       string           `json:"text"`
	Sources    []sourceResponse `json:"sources"`
	ChunksUsed int              `json:"chunks_used"`
}

// AskHandler handles POST /v1/ask
func (a *API) AskHandler(c *gin.Context) {
	var payload askRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}
	userID := userIDFrom(c, payload.UserID)

	result, err := a.asker.Ask(c.Request.Context(), userID, payload.Question)
	if err != nil {
		a.fail(c, userID, err)
		return
	}
	a.reply(c, result)
}

// AskVoiceHandler handles POST /v1/ask/voice with a multipart "audio" file
func (a *API) AskVoiceHandler(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxVoiceBytes)
	file, err := c.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio file is required"})
		return
	}
	userID := userIDFrom(c, c.PostForm("user_id"))

	dir, err := os.MkdirTemp("", "assistant-voice-")
	if err != nil {
		a.fail(c, userID, err)
		return
	}
	defer func() { _ = os.RemoveAll(dir) }()

	// keep the extension, the transcription API detects format from it
	path := filepath.Join(dir, "question"+filepath.Ext(file.Filename))
	if err := c.SaveUploadedFile(file, path); err != nil {
		a.fail(c, userID, err)
		return
	}

	result, err := a.asker.AskVoice(c.Request.Context(), userID, path)
	if err != nil {
		a.fail(c, userID, err)
		return
	}
	a.reply(c, result)
}

// HealthHandler handles GET /healthz
func (a *API) HealthHandler(c *gin.Context) {
	if a.health == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	n, err := a.health.Count(ctx)
	if err != nil {
		a.logger.WithField("error", err.Error()).Warn("health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "chunks": n})
}

func (a *API) reply(c *gin.Context, result *models.AnswerResult) {
	// speech is only synthesized for clients that can play it
	var renderer render.Renderer = a.links
	wantsAudio := strings.Contains(c.GetHeader("Accept"), "audio/mpeg")
	if wantsAudio {
		renderer = a.renderer
	}

	rendered, err := renderer.Render(c.Request.Context(), result)
	if err != nil {
		a.fail(c, "", err)
		return
	}
	if wantsAudio && rendered.HasAudio() {
		c.Data(http.StatusOK, "audio/mpeg", rendered.Audio)
		return
	}

	sources := make([]sourceResponse, 0, len(result.Sources))
	for _, src := range result.Sources {
		sources = append(sources, sourceResponse{
			Type:    src.Type,
			Title:   src.Title,
			Locator: src.Locator,
			URL:     a.links.URL(src.Locator),
		})
	}
	c.JSON(http.StatusOK, askResponse{
		Question:   result.Question,
		Answer:     result.Answer,
		Text:       rendered.Text,
		Sources:    sources,
		ChunksUsed: result.ChunksUsed,
	})
}

func (a *API) fail(c *gin.Context, userID string, err error) {
	status := statusFor(err)
	a.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"status":  status,
		"error":   err.Error(),
	}).Error("request failed")
	if status == http.StatusServiceUnavailable {
		c.Header("Retry-After", "30")
	}
	c.JSON(status, gin.H{"error": core.UserMessage(err)})
}

func statusFor(err error) int {
	var embErr *core.EmbeddingError
	var genErr *core.GenerationError
	switch {
	case errors.Is(err, core.ErrEmptyQuestion):
		return http.StatusBadRequest
	case errors.As(err, &embErr):
		return http.StatusBadGateway
	case errors.As(err, &genErr):
		if genErr.Retryable() {
			return http.StatusServiceUnavailable
		}
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// userIDFrom prefers the X-User-ID header over the body field
func userIDFrom(c *gin.Context, fallback string) string {
	if id := c.GetHeader("X-User-ID"); id != "" {
		return id
	}
	if fallback != "" {
		return fallback
	}
	return "anonymous"
}

func requestLogger(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
		}).Info("request")
	}
}
