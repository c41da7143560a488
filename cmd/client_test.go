package cmd

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/legalflow/internal/domain"
	"github.com/xiaot623/legalflow/internal/transport/http/analyze"
	"github.com/xiaot623/legalflow/tests/fixtures"
)

func newWSServer(t *testing.T) string {
	t.Helper()
	svc, _ := fixtures.NewMockService(t)
	e := echo.New()
	analyze.NewHandler(svc, nil).RegisterRoutes(e)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/analyze"
}

func TestClientAnalyze(t *testing.T) {
	c, err := dialAnalyze(newWSServer(t))
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer c.Close()

	var out bytes.Buffer
	err = c.Analyze(domain.CaseInput{Description: "The seller of my used car concealed flood damage that surfaced a week after purchase."}, &out)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	got := out.String()
	for _, want := range []string{"Legal analysis initiated...", "[1]", "Legal analysis completed successfully!", "References:"} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q:\n%s", want, got)
		}
	}
}

func TestClientAnalyzeValidationError(t *testing.T) {
	c, err := dialAnalyze(newWSServer(t))
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer c.Close()

	var out bytes.Buffer
	err = c.Analyze(domain.CaseInput{Description: "short"}, &out)
	if err == nil || !strings.Contains(err.Error(), "at least 50 characters") {
		t.Fatalf("expected validation failure, got %v", err)
	}
}

func TestReadCase(t *testing.T) {
	got, err := readCase("", []string{"a", "b"}, nil)
	if err != nil || got != "a b" {
		t.Fatalf("readCase args = %q, %v", got, err)
	}

	got, err = readCase("-", nil, strings.NewReader("from stdin"))
	if err != nil || got != "from stdin" {
		t.Fatalf("readCase stdin = %q, %v", got, err)
	}

	if _, err := readCase("", nil, nil); err == nil {
		t.Fatalf("expected error without input")
	}
}

func TestPrintEventsReportsFailure(t *testing.T) {
	events := make(chan domain.UIEvent, 2)
	events <- domain.UIEvent{Type: domain.UIEventStart, Message: "go"}
	events <- domain.UIEvent{Type: domain.UIEventError, Message: "boom"}
	close(events)

	var out bytes.Buffer
	err := printEvents(&out, events)
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected failure, got %v", err)
	}
	if strings.Count(out.String(), "\n") != 2 {
		t.Fatalf("expected one line per event, got %q", out.String())
	}
}
