package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xiaot623/legalflow/tests/fixtures"
)

func TestServerRoutes(t *testing.T) {
	svc, _ := fixtures.NewMockService(t)
	e := NewServer(svc, nil)

	tests := []struct {
		path     string
		contains string
	}{
		{"/api/health", `"status":"healthy"`},
		{"/v1/runs", `"runs"`},
		{"/metrics", "go_goroutines"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", tt.path, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), tt.contains) {
			t.Fatalf("%s: body missing %q", tt.path, tt.contains)
		}
	}
}

func TestServerCORS(t *testing.T) {
	svc, _ := fixtures.NewMockService(t)
	e := NewServer(svc, nil)

	req := httptest.NewRequest(http.MethodOptions, "/analyze-case", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected wildcard CORS origin, got %q", got)
	}
}
