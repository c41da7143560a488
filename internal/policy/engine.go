// Package policy evaluates search queries against an OPA rego policy before
// they are dispatched.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// Decision values returned by the policy.
const (
	DecisionAllow = "allow"
	DecisionBlock = "block"
)

// Decision is the outcome of evaluating one query.
type Decision struct {
	Decision string
	Reason   string
}

// Allowed reports whether the query may be dispatched.
func (d Decision) Allowed() bool {
	return d.Decision != DecisionBlock
}

// Limits are passed to the policy alongside each query.
type Limits struct {
	MaxQueryLength int
	DeniedTerms    []string
}

// Engine is the OPA policy engine.
type Engine struct {
	query  rego.PreparedEvalQuery
	limits Limits
}

// NewEngine prepares the given policy module. The module must define
// data.search_policy.result as {"decision": ..., "reason": ...}.
func NewEngine(ctx context.Context, policyContent string, limits Limits) (*Engine, error) {
	r := rego.New(
		rego.Query("data.search_policy.result"),
		rego.Module("search_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query, limits: limits}, nil
}

// Evaluate checks a single search query.
func (e *Engine) Evaluate(ctx context.Context, query string) (Decision, error) {
	denied := e.limits.DeniedTerms
	if denied == nil {
		denied = []string{}
	}
	input := map[string]any{
		"query":            query,
		"max_query_length": e.limits.MaxQueryLength,
		"denied_terms":     denied,
	}

	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return Decision{}, fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return Decision{Decision: DecisionAllow, Reason: "default"}, nil
	}

	obj, ok := results[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return Decision{}, fmt.Errorf("unexpected policy result type %T", results[0].Expressions[0].Value)
	}
	d := Decision{}
	d.Decision, _ = obj["decision"].(string)
	d.Reason, _ = obj["reason"].(string)
	if d.Decision == "" {
		d.Decision = DecisionAllow
	}
	return d, nil
}

// DefaultPolicy blocks empty queries, overlong queries and queries containing
// a denied term.
const DefaultPolicy = `
package search_policy

result = {"decision": "block", "reason": "empty query"} {
	trim_space(input.query) == ""
} else = {"decision": "block", "reason": "query too long"} {
	input.max_query_length > 0
	count(input.query) > input.max_query_length
} else = {"decision": "block", "reason": "query contains a denied term"} {
	term := input.denied_terms[_]
	term != ""
	contains(lower(input.query), lower(term))
} else = {"decision": "allow", "reason": ""} {
	true
}
`
