package trace

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xiaot623/legalflow/internal/domain"
)

const (
	// MaxDetailChars caps the details of a projected step.
	MaxDetailChars = 1000
	// MaxStreamDetailChars caps step details sent to streaming clients.
	MaxStreamDetailChars = 1200
	// MaxUpdateChars caps the text of a streaming thinking update.
	MaxUpdateChars = 600
)

var outputPathKeywords = []string{"/streamed_output", "/llm", "/output"}

// Update describes what a single pushed event did to the projection.
type Update struct {
	// Completed is the step closed because the node changed.
	Completed *domain.Step
	// Started is the step opened by this event. Its Details are empty.
	Started *domain.Step
	// Text is the content this event added to the current step.
	Text string
}

// Option configures a Projector.
type Option func(*Projector)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(p *Projector) { p.now = now }
}

// WithDetailLimit overrides MaxDetailChars.
func WithDetailLimit(n int) Option {
	return func(p *Projector) {
		if n > 0 {
			p.maxDetails = n
		}
	}
}

// Projector groups consecutive events of the same node into steps. It is not
// safe for concurrent use; each run owns its own projector.
type Projector struct {
	now        func() time.Time
	maxDetails int

	next    int
	current domain.NodeID
	open    bool
	buf     []string
	steps   []domain.Step
}

// NewProjector creates an empty projector.
func NewProjector(opts ...Option) *Projector {
	p := &Projector{
		now:        time.Now,
		maxDetails: MaxDetailChars,
		next:       1,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Push feeds one event. The boolean is false when the event was skipped as
// irrelevant.
func (p *Projector) Push(ev domain.TraceEvent) (Update, bool) {
	text, ok := content(ev)
	if !ok {
		return Update{}, false
	}
	node := Resolve(ev)

	var u Update
	if !p.open || node != p.current {
		if p.open {
			done := p.flush()
			u.Completed = &done
		}
		meta := Meta(node)
		p.current = node
		p.open = true
		u.Started = &domain.Step{
			Number:      p.next,
			Node:        node,
			Title:       meta.Title,
			Description: meta.Description,
			Timestamp:   p.now(),
		}
	}
	u.Text = text
	p.buf = append(p.buf, text)
	return u, true
}

// Finish closes the open step, if any, and returns it.
func (p *Projector) Finish() *domain.Step {
	if !p.open {
		return nil
	}
	done := p.flush()
	return &done
}

// Current returns the number of the open step, or 0 when none is open.
func (p *Projector) Current() int {
	if !p.open {
		return 0
	}
	return p.next
}

// Steps returns the steps closed so far.
func (p *Projector) Steps() []domain.Step {
	out := make([]domain.Step, len(p.steps))
	copy(out, p.steps)
	return out
}

func (p *Projector) flush() domain.Step {
	meta := Meta(p.current)
	step := domain.Step{
		Number:      p.next,
		Node:        p.current,
		Title:       meta.Title,
		Description: meta.Description,
		Details:     Truncate(strings.Join(p.buf, "\n"), p.maxDetails),
		Timestamp:   p.now(),
	}
	p.steps = append(p.steps, step)
	p.next++
	p.buf = p.buf[:0]
	p.open = false
	return step
}

// Project turns a finished event sequence into steps. When nothing relevant
// was seen the default step sequence is returned instead.
func Project(events []domain.TraceEvent, opts ...Option) []domain.Step {
	p := NewProjector(opts...)
	for _, ev := range events {
		p.Push(ev)
	}
	p.Finish()
	if len(p.steps) == 0 {
		return DefaultSteps(p.now())
	}
	return p.Steps()
}

// content extracts the text an event contributes, or false if it contributes
// nothing.
func content(ev domain.TraceEvent) (string, bool) {
	if ev.Op != domain.TraceOpAdd {
		return "", false
	}
	if ev.Node == "" && !hasOutputPath(ev.Path) {
		return "", false
	}
	if ev.Value.Err != "" {
		return "Error: " + ev.Value.Err, true
	}
	text := strings.TrimSpace(ev.Value.Text)
	if text == "" {
		return "", false
	}
	return text, true
}

func hasOutputPath(path string) bool {
	for _, kw := range outputPathKeywords {
		if strings.Contains(path, kw) {
			return true
		}
	}
	return false
}

// Truncate cuts s to at most n characters, appending "..." when it cuts.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
