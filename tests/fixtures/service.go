// Package fixtures wires a complete offline stack for transport tests.
package fixtures

import (
	"testing"
	"time"

	"github.com/xiaot623/legalflow/internal/actor"
	"github.com/xiaot623/legalflow/internal/adapter/llm"
	"github.com/xiaot623/legalflow/internal/adapter/search"
	"github.com/xiaot623/legalflow/internal/repository"
	"github.com/xiaot623/legalflow/internal/service"
	"github.com/xiaot623/legalflow/internal/tools"
	"github.com/xiaot623/legalflow/internal/workflow"
	"github.com/xiaot623/legalflow/tests/helpers"
)

// NewMockService builds a service backed by the mock model, the mock search
// provider and an in-memory store.
func NewMockService(t *testing.T) (*service.Service, *repository.SQLiteStore) {
	t.Helper()

	store := helpers.NewTestSQLiteStore(t)
	a, err := actor.New(llm.NewMockClient(), actor.Options{Model: "mock", Stream: true}, nil)
	if err != nil {
		t.Fatalf("failed to create actor: %v", err)
	}
	exec := tools.NewExecutor(search.NewMock(3), nil, 5*time.Second, nil)
	engine := workflow.NewEngine(a, exec, workflow.Config{InitialBackoff: time.Millisecond}, nil)
	return service.New(store, engine, nil, service.Options{TraceEnabled: true}, nil), store
}
