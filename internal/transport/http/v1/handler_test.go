package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/legalflow/internal/domain"
	"github.com/xiaot623/legalflow/internal/service"
	"github.com/xiaot623/legalflow/tests/fixtures"
)

const caseText = "My employer has not paid overtime for six months despite repeated written requests."

func newTestHandler(t *testing.T) (*echo.Echo, *service.Service) {
	t.Helper()
	svc, _ := fixtures.NewMockService(t)
	e := echo.New()
	NewHandler(svc).RegisterRoutes(e)
	return e, svc
}

func TestRunEndpoints(t *testing.T) {
	e, svc := newTestHandler(t)

	analysis, err := svc.SubmitCase(context.Background(), domain.CaseInput{Description: caseText, UserID: "u1"})
	if err != nil {
		t.Fatalf("SubmitCase failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/runs?user_id=u1", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var list struct {
		Runs []domain.Run `json:"runs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(list.Runs) != 1 || list.Runs[0].RunID != analysis.RunID {
		t.Fatalf("unexpected runs: %+v", list.Runs)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/runs/"+analysis.RunID, nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var run domain.Run
	if err := json.Unmarshal(rec.Body.Bytes(), &run); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if run.Status != domain.RunStatusDone {
		t.Fatalf("expected DONE, got %s", run.Status)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/runs/"+analysis.RunID+"/events?types=run_started,run_done", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var events struct {
		Events []domain.Event `json:"events"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &events); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(events.Events) != 2 || events.Events[0].Type != domain.EventTypeRunStarted || events.Events[1].Type != domain.EventTypeRunDone {
		t.Fatalf("unexpected events: %+v", events.Events)
	}
}

func TestRunNotFound(t *testing.T) {
	e, _ := newTestHandler(t)

	for _, path := range []string{"/v1/runs/run_missing", "/v1/runs/run_missing/events"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, rec.Code)
		}
	}
}

func TestListRunsEmpty(t *testing.T) {
	e, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/runs", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != `{"runs":[]}` {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestProjectTrace(t *testing.T) {
	e, _ := newTestHandler(t)

	body := `{"events":[
		{"op":"add","path":"/logs/generate:0/streamed_output/-","value":{"content":"Drafting the opinion"}},
		{"op":"add","path":"/logs/generate:0/streamed_output/-","value":"more drafting"},
		{"op":"add","path":"/logs/websearch:0/streamed_output/-","value":{"error":"timeout"}},
		{"path":"/no-op"}
	]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/trace/project", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Steps      []domain.Step `json:"steps"`
		TotalSteps int           `json:"total_steps"`
		Skipped    []string      `json:"skipped"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.TotalSteps != 2 || len(resp.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %+v", resp)
	}
	if resp.Steps[0].Details != "Drafting the opinion\nmore drafting" {
		t.Fatalf("unexpected details: %q", resp.Steps[0].Details)
	}
	if resp.Steps[1].Details != "Error: timeout" {
		t.Fatalf("unexpected details: %q", resp.Steps[1].Details)
	}
	if len(resp.Skipped) != 1 {
		t.Fatalf("expected 1 skipped event, got %v", resp.Skipped)
	}
}
