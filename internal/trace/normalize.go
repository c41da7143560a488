package trace

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xiaot623/legalflow/internal/domain"
)

// Normalize converts one raw event into the canonical form. It accepts a
// domain.TraceEvent, a decoded JSON object, or raw JSON bytes. Anything else
// yields a *domain.TraceDecodeError.
func Normalize(raw any) (domain.TraceEvent, error) {
	switch v := raw.(type) {
	case domain.TraceEvent:
		return v, nil
	case *domain.TraceEvent:
		if v == nil {
			return domain.TraceEvent{}, &domain.TraceDecodeError{Reason: "nil event"}
		}
		return *v, nil
	case json.RawMessage:
		return normalizeJSON(v)
	case []byte:
		return normalizeJSON(v)
	case string:
		return normalizeJSON([]byte(v))
	case map[string]any:
		return normalizeMap(v)
	case nil:
		return domain.TraceEvent{}, &domain.TraceDecodeError{Reason: "nil event"}
	default:
		return domain.TraceEvent{}, &domain.TraceDecodeError{Reason: fmt.Sprintf("unsupported event type %T", raw)}
	}
}

func normalizeJSON(b []byte) (domain.TraceEvent, error) {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return domain.TraceEvent{}, &domain.TraceDecodeError{Reason: "invalid json", Err: err}
	}
	return normalizeMap(m)
}

func normalizeMap(m map[string]any) (domain.TraceEvent, error) {
	op, ok := m["op"].(string)
	if !ok {
		return domain.TraceEvent{}, &domain.TraceDecodeError{Reason: "missing op"}
	}
	var ev domain.TraceEvent
	ev.Op = domain.TraceOp(op)

	if p, present := m["path"]; present && p != nil {
		s, ok := p.(string)
		if !ok {
			return domain.TraceEvent{}, &domain.TraceDecodeError{Reason: fmt.Sprintf("path must be a string, got %T", p)}
		}
		ev.Path = s
	}
	if n, ok := m["node"].(string); ok {
		ev.Node = domain.NodeID(n)
	}

	value, err := normalizeValue(m["value"])
	if err != nil {
		return domain.TraceEvent{}, err
	}
	ev.Value = value
	return ev, nil
}

// normalizeValue maps the loosely typed value of an event. Strings become
// text; objects keep their structure and contribute text only through an
// explicit "content", "text" or "error" field.
func normalizeValue(v any) (domain.TraceValue, error) {
	switch val := v.(type) {
	case nil:
		return domain.TraceValue{}, nil
	case string:
		return domain.TraceValue{Text: val}, nil
	case map[string]any:
		data, err := json.Marshal(val)
		if err != nil {
			return domain.TraceValue{}, &domain.TraceDecodeError{Reason: "unencodable value", Err: err}
		}
		out := domain.TraceValue{Data: data}
		if s, ok := val["error"].(string); ok && s != "" {
			out.Err = s
		}
		for _, key := range []string{"content", "text"} {
			if s, ok := val[key].(string); ok && strings.TrimSpace(s) != "" {
				out.Text = s
				break
			}
		}
		return out, nil
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return domain.TraceValue{}, &domain.TraceDecodeError{Reason: "unencodable value", Err: err}
		}
		return domain.TraceValue{Data: data}, nil
	}
}

// NormalizeAll normalizes a batch, dropping events that fail to decode. The
// decode errors are returned alongside so callers can log them.
func NormalizeAll(raw []any) ([]domain.TraceEvent, []error) {
	events := make([]domain.TraceEvent, 0, len(raw))
	var errs []error
	for _, r := range raw {
		ev, err := Normalize(r)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		events = append(events, ev)
	}
	return events, errs
}
