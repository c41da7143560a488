package analyze

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/legalflow/internal/domain"
	"github.com/xiaot623/legalflow/tests/fixtures"
)

const caseText = "My landlord refuses to return my security deposit two months after the lease ended."

func newTestEcho(t *testing.T) (*echo.Echo, *Handler) {
	t.Helper()
	svc, _ := fixtures.NewMockService(t)
	e := echo.New()
	h := NewHandler(svc, nil)
	h.RegisterRoutes(e)
	return e, h
}

func TestAnalyzeCase(t *testing.T) {
	e, _ := newTestEcho(t)

	body := `{"case_description":"` + caseText + `","user_id":"u1"}`
	req := httptest.NewRequest(http.MethodPost, "/analyze-case", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var analysis domain.Analysis
	if err := json.Unmarshal(rec.Body.Bytes(), &analysis); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	assert.True(t, strings.HasPrefix(analysis.CaseName, "Legal Case Analysis - "))
	assert.Contains(t, analysis.FinalAnswer, "[MOCK] Revised legal opinion")
	assert.Contains(t, analysis.References, "https://www.law.cornell.edu/wex/breach_of_contract")
	assert.Equal(t, 5, analysis.TotalSteps)
	assert.NotEmpty(t, analysis.RunID)
}

func TestAnalyzeCaseRejectsShortDescription(t *testing.T) {
	e, _ := newTestEcho(t)

	req := httptest.NewRequest(http.MethodPost, "/analyze-case", strings.NewReader(`{"case_description":"too short"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	assert.JSONEq(t, `{"detail":"Case description must be at least 50 characters long"}`, rec.Body.String())
}

func TestAnalyzeCaseQuery(t *testing.T) {
	e, _ := newTestEcho(t)

	req := httptest.NewRequest(http.MethodGet, "/analyze-case?case_description="+url.QueryEscape(caseText), nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestIndexAndHealth(t *testing.T) {
	e, _ := newTestEcho(t)

	for _, path := range []string{"/", "/api/health"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestAnalyzeCaseStream(t *testing.T) {
	e, _ := newTestEcho(t)
	srv := httptest.NewServer(e)
	defer srv.Close()

	body := `{"case_description":"` + caseText + `"}`
	resp, err := http.Post(srv.URL+"/analyze-case-stream", echo.MIMEApplicationJSON, strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get(echo.HeaderContentType))

	var events []domain.UIEvent
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev domain.UIEvent
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
		events = append(events, ev)
	}
	require.NoError(t, scanner.Err())

	require.NotEmpty(t, events)
	assert.Equal(t, domain.UIEventStart, events[0].Type)
	last := events[len(events)-1]
	assert.Equal(t, domain.UIEventComplete, last.Type)
	require.NotNil(t, last.Result)
	assert.Equal(t, 5, last.Result.TotalSteps)
}

func TestAnalyzeCaseStreamValidation(t *testing.T) {
	e, _ := newTestEcho(t)

	req := httptest.NewRequest(http.MethodPost, "/analyze-case-stream", strings.NewReader(`{"case_description":"short"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/analyze"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readUntilClosed(t *testing.T, conn *websocket.Conn) []domain.UIEvent {
	t.Helper()
	var events []domain.UIEvent
	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var ev domain.UIEvent
		if err := conn.ReadJSON(&ev); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				t.Fatalf("unexpected read error: %v", err)
			}
			return events
		}
		events = append(events, ev)
	}
}

func TestAnalyzeWebSocket(t *testing.T) {
	e, _ := newTestEcho(t)
	srv := httptest.NewServer(e)
	defer srv.Close()

	conn := dialWS(t, srv)
	require.NoError(t, conn.WriteJSON(domain.CaseInput{Description: caseText, UserID: "ws-user"}))

	events := readUntilClosed(t, conn)
	require.NotEmpty(t, events)
	assert.Equal(t, domain.UIEventStart, events[0].Type)
	assert.Equal(t, domain.UIEventComplete, events[len(events)-1].Type)
}

func TestAnalyzeWebSocketValidation(t *testing.T) {
	e, _ := newTestEcho(t)
	srv := httptest.NewServer(e)
	defer srv.Close()

	conn := dialWS(t, srv)
	require.NoError(t, conn.WriteJSON(domain.CaseInput{Description: "short"}))

	events := readUntilClosed(t, conn)
	require.Len(t, events, 1)
	assert.Equal(t, domain.UIEventError, events[0].Type)
	assert.Equal(t, "Case description must be at least 50 characters long", events[0].Message)
}
