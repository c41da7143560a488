package analyze

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/xiaot623/legalflow/internal/domain"
)

const writeTimeout = 10 * time.Second

// AnalyzeCaseStream runs a case and streams its UI events as Server-Sent
// Events. A client disconnect cancels the run.
func (h *Handler) AnalyzeCaseStream(c echo.Context) error {
	var input domain.CaseInput
	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"detail": "invalid request body"})
	}

	events, err := h.service.StreamCase(c.Request().Context(), input)
	if err != nil {
		return h.writeError(c, err)
	}

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache")
	w.Header().Set(echo.HeaderConnection, "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	for ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			h.logger.Error("failed to encode stream event", zap.Error(err))
			continue
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			// The client is gone; the request context cancels the run.
			return nil
		}
		w.Flush()
	}
	return nil
}

// AnalyzeWebSocket accepts one JSON case per connection, pushes its UI events
// and closes. Closing the socket early cancels the run.
func (h *Handler) AnalyzeWebSocket(c echo.Context) error {
	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("failed to upgrade websocket", zap.Error(err))
		return nil
	}
	defer ws.Close()

	var input domain.CaseInput
	if err := ws.ReadJSON(&input); err != nil {
		h.writeWS(ws, domain.UIEvent{Type: domain.UIEventError, Message: "invalid case message", Timestamp: time.Now()})
		return nil
	}

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	// Any further read failure means the peer went away.
	go func() {
		defer cancel()
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	events, err := h.service.StreamCase(ctx, input)
	if err != nil {
		msg := err.Error()
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			msg = ve.Message
		}
		h.writeWS(ws, domain.UIEvent{Type: domain.UIEventError, Message: msg, Timestamp: time.Now()})
		h.closeWS(ws)
		return nil
	}

	for ev := range events {
		if !h.writeWS(ws, ev) {
			cancel()
			for range events {
			}
			return nil
		}
	}
	h.closeWS(ws)
	return nil
}

func (h *Handler) writeWS(ws *websocket.Conn, ev domain.UIEvent) bool {
	_ = ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := ws.WriteJSON(ev); err != nil {
		h.logger.Debug("websocket write failed", zap.Error(err))
		return false
	}
	return true
}

func (h *Handler) closeWS(ws *websocket.Conn) {
	_ = ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}
