// Package analyze serves case analysis over plain HTTP, Server-Sent Events and
// WebSocket.
package analyze

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/xiaot623/legalflow/internal/domain"
	"github.com/xiaot623/legalflow/internal/service"
)

const version = "1.0.0"

// Handler handles analysis requests.
type Handler struct {
	service  *service.Service
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates a new handler.
func NewHandler(svc *service.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		service: svc,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// RegisterRoutes registers analysis routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Index)
	e.GET("/api/health", h.Health)

	e.POST("/analyze-case", h.AnalyzeCase)
	e.GET("/analyze-case", h.AnalyzeCaseQuery)
	e.POST("/analyze-case-stream", h.AnalyzeCaseStream)
	e.GET("/ws/analyze", h.AnalyzeWebSocket)
}

// Index describes the API.
func (h *Handler) Index(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"message": "Legal Advisor AI Agent API",
		"version": version,
		"endpoints": map[string]string{
			"analyze":        "POST /analyze-case",
			"analyze_get":    "GET /analyze-case?case_description=...",
			"analyze_stream": "POST /analyze-case-stream",
			"analyze_ws":     "GET /ws/analyze",
			"runs":           "GET /v1/runs",
			"health":         "GET /api/health",
			"metrics":        "GET /metrics",
		},
	})
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":    "healthy",
		"version":   version,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// AnalyzeCase runs a case to completion.
func (h *Handler) AnalyzeCase(c echo.Context) error {
	var input domain.CaseInput
	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"detail": "invalid request body"})
	}
	return h.analyze(c, input)
}

// AnalyzeCaseQuery is AnalyzeCase with the case passed as query parameters.
func (h *Handler) AnalyzeCaseQuery(c echo.Context) error {
	return h.analyze(c, domain.CaseInput{
		Description: c.QueryParam("case_description"),
		UserID:      c.QueryParam("user_id"),
	})
}

func (h *Handler) analyze(c echo.Context, input domain.CaseInput) error {
	analysis, err := h.service.SubmitCase(c.Request().Context(), input)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, analysis)
}

func (h *Handler) writeError(c echo.Context, err error) error {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return c.JSON(http.StatusBadRequest, map[string]string{"detail": ve.Message})
	}
	h.logger.Error("analysis failed", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, map[string]string{"detail": "Analysis failed: " + err.Error()})
}
