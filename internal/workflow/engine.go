// Package workflow runs the generate, research and revise loop for one case.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xiaot623/legalflow/internal/actor"
	"github.com/xiaot623/legalflow/internal/domain"
	"github.com/xiaot623/legalflow/internal/metrics"
)

// Invoker produces one structured draft from the history.
type Invoker interface {
	Invoke(ctx context.Context, history []domain.Message, sink actor.Sink) (domain.ToolInvocation, error)
}

// ToolRunner executes the search queries of a draft.
type ToolRunner interface {
	Run(ctx context.Context, callID string, queries []string) domain.ToolResult
}

// Config bounds the loop.
type Config struct {
	MaxIterations  int
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxIterations <= 0 {
		c.MaxIterations = 1
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 500 * time.Millisecond
	}
	if c.MaxBackoff < c.InitialBackoff {
		c.MaxBackoff = c.InitialBackoff
	}
	return c
}

// Hooks observe a run. Every field is optional. Hooks are called from the
// goroutine executing Run.
type Hooks struct {
	OnState      func(from, to domain.RunState)
	OnLLMStarted func(tool domain.ToolName, attempt int)
	OnLLMDone    func(tool domain.ToolName, attempt int, err error)
	OnToolResult func(result domain.ToolResult)
}

// RunOption configures a single run.
type RunOption func(*run)

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) RunOption {
	return func(r *run) {
		if id != "" {
			r.id = id
		}
	}
}

// WithTraceSink forwards every trace event of the run to sink as it happens.
func WithTraceSink(sink func(domain.TraceEvent)) RunOption {
	return func(r *run) { r.sink = sink }
}

// WithHooks attaches lifecycle hooks.
func WithHooks(h Hooks) RunOption {
	return func(r *run) { r.hooks = h }
}

// Engine drives runs. It holds no per-run state and may be shared.
type Engine struct {
	actor  Invoker
	tools  ToolRunner
	cfg    Config
	logger *zap.Logger
}

// NewEngine creates an engine.
func NewEngine(a Invoker, tools ToolRunner, cfg Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		actor:  a,
		tools:  tools,
		cfg:    cfg.withDefaults(),
		logger: logger,
	}
}

// run is the context object of one submission.
type run struct {
	id        string
	state     domain.RunState
	history   []domain.Message
	trace     []domain.TraceEvent
	draft     domain.Draft
	revisions int
	seq       map[domain.NodeID]int
	sink      func(domain.TraceEvent)
	hooks     Hooks
	logger    *zap.Logger
}

func (r *run) setState(to domain.RunState) {
	from := r.state
	r.state = to
	r.record(domain.TraceEvent{
		Op:    domain.TraceOpReplace,
		Path:  "/state",
		Value: domain.TraceValue{Text: string(to)},
	})
	r.logger.Debug("state changed", zap.String("from", string(from)), zap.String("state", string(to)))
	if r.hooks.OnState != nil {
		r.hooks.OnState(from, to)
	}
}

func (r *run) record(ev domain.TraceEvent) {
	r.trace = append(r.trace, ev)
	if r.sink != nil {
		r.sink(ev)
	}
}

// emit records node output under a stable node id.
func (r *run) emit(node domain.NodeID, value domain.TraceValue) {
	if strings.TrimSpace(value.Text) == "" && value.Err == "" {
		return
	}
	n := r.seq[node]
	r.seq[node] = n + 1
	r.record(domain.TraceEvent{
		Op:    domain.TraceOpAdd,
		Path:  fmt.Sprintf("/logs/%s:%d/streamed_output/-", node, n),
		Node:  node,
		Value: value,
	})
}

// actorSink forwards streamed actor output live and collects it into
// pending. The caller commits pending to the trace only when the attempt
// succeeds.
func (r *run) actorSink(pending *[]domain.TraceEvent) actor.Sink {
	if r.sink == nil {
		return nil
	}
	return func(ev domain.TraceEvent) {
		*pending = append(*pending, ev)
		r.sink(ev)
	}
}

// Run executes the loop for input. A validation failure is returned before
// any collaborator is called. Every other failure is a *domain.WorkflowError.
func (e *Engine) Run(ctx context.Context, input domain.CaseInput, opts ...RunOption) (*domain.WorkflowResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	input = input.Normalized()

	r := &run{
		id:    "run_" + uuid.New().String()[:8],
		state: domain.StateInit,
		seq:   make(map[domain.NodeID]int),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = e.logger.With(zap.String("run_id", r.id))
	started := time.Now()

	r.history = append(r.history, domain.HumanMessage(input.Description))

	r.setState(domain.StateGenerating)
	inv, err := e.invoke(ctx, r)
	if err != nil {
		return nil, e.fail(r, err)
	}
	r.accept(inv, domain.NodeGenerate)

	for len(r.draft.Invocation.SearchQueries) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, e.fail(r, err)
		}
		r.setState(domain.StateResearching)
		result := e.tools.Run(ctx, r.draft.Invocation.ID, r.draft.Invocation.SearchQueries)
		r.history = append(r.history, result.Message())
		for _, o := range result.Outcomes {
			r.emit(domain.NodeWebSearch, summarizeOutcome(o))
		}
		if r.hooks.OnToolResult != nil {
			r.hooks.OnToolResult(result)
		}
		if err := ctx.Err(); err != nil {
			return nil, e.fail(r, err)
		}

		r.setState(domain.StateRevising)
		inv, err := e.invoke(ctx, r)
		if err != nil {
			return nil, e.fail(r, err)
		}
		r.revisions++
		r.accept(inv, domain.NodeReviseAnswer)

		if r.revisions >= e.cfg.MaxIterations {
			break
		}
	}

	r.setState(domain.StateDone)
	r.logger.Info("workflow completed",
		zap.Int("revisions", r.revisions),
		zap.Int("messages", len(r.history)),
	)
	return &domain.WorkflowResult{
		RunID:   r.id,
		Final:   r.draft,
		History: r.history,
		Trace:   r.trace,
		Elapsed: time.Since(started),
	}, nil
}

// accept appends an actor turn and supersedes the current draft.
func (r *run) accept(inv domain.ToolInvocation, node domain.NodeID) {
	r.history = append(r.history, domain.AssistantMessage("", inv))
	r.draft = domain.Draft{Invocation: inv, Revision: r.revisions}
	r.emit(node, domain.TraceValue{Text: inv.Answer})
	r.emit(domain.NodeCritique, domain.TraceValue{Text: inv.Critique})
}

// invoke calls the actor with exponential backoff.
func (e *Engine) invoke(ctx context.Context, r *run) (domain.ToolInvocation, error) {
	tool := actor.ToolFor(r.history)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.cfg.InitialBackoff
	b.MaxInterval = e.cfg.MaxBackoff
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(e.cfg.MaxAttempts-1)), ctx)

	var (
		inv     domain.ToolInvocation
		attempt int
	)
	op := func() error {
		attempt++
		if r.hooks.OnLLMStarted != nil {
			r.hooks.OnLLMStarted(tool, attempt)
		}
		var streamed []domain.TraceEvent
		out, err := e.actor.Invoke(ctx, r.history, r.actorSink(&streamed))
		if r.hooks.OnLLMDone != nil {
			r.hooks.OnLLMDone(tool, attempt, err)
		}
		if err != nil {
			metrics.ActorAttempts.WithLabelValues(string(tool), "error").Inc()
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		metrics.ActorAttempts.WithLabelValues(string(tool), "success").Inc()
		r.trace = append(r.trace, streamed...)
		inv = out
		return nil
	}
	notify := func(err error, wait time.Duration) {
		r.logger.Warn("actor call failed, retrying",
			zap.String("tool", string(tool)),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
	}

	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.ToolInvocation{}, ctxErr
		}
		cause := err
		var mie *domain.ModelInvocationError
		if errors.As(err, &mie) {
			cause = mie.Err
		}
		return domain.ToolInvocation{}, &domain.ModelInvocationError{Tool: tool, Attempt: attempt, Err: cause}
	}
	return inv, nil
}

func (e *Engine) fail(r *run, cause error) error {
	state := r.state
	r.state = domain.StateFailed
	if r.hooks.OnState != nil {
		r.hooks.OnState(state, domain.StateFailed)
	}
	if errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
		r.logger.Info("workflow cancelled", zap.String("state", string(state)), zap.Error(cause))
	} else {
		r.logger.Error("workflow failed", zap.String("state", string(state)), zap.Error(cause))
	}
	return &domain.WorkflowError{RunID: r.id, State: state, Err: cause}
}

func summarizeOutcome(o domain.QueryOutcome) domain.TraceValue {
	if o.Err != nil {
		return domain.TraceValue{Text: o.Query, Err: o.Err.Error()}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Searched: %s", o.Query)
	for _, res := range o.Results {
		fmt.Fprintf(&b, "\n- %s (%s)", res.Title, res.URL)
	}
	return domain.TraceValue{Text: b.String()}
}
