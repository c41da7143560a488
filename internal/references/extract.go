// Package references collects the source URLs a run relied on.
package references

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"github.com/xiaot623/legalflow/internal/domain"
)

var urlPattern = regexp.MustCompile(`https?://[^\s<>"\\]+`)

// trailing punctuation picked up from prose, e.g. "see https://x.org/a."
const trailingPunct = ".,;:!?'"

var closers = map[byte]string{')': "(", ']': "[", '}': "{"}

// Extract returns the de-duplicated union of the final invocation's declared
// references and every URL mentioned in the history. Only http(s) URLs are
// kept. Reachability is not checked.
func Extract(final domain.ToolInvocation, history []domain.Message) []string {
	seen := make(map[string]struct{})
	add := func(ref string) {
		if ref = clean(ref); ref != "" {
			seen[ref] = struct{}{}
		}
	}

	for _, ref := range final.References {
		add(strings.TrimSpace(ref))
	}

	scan := func(text string) {
		for _, m := range urlPattern.FindAllString(text, -1) {
			add(m)
		}
	}
	scan(final.Answer)
	for _, msg := range history {
		if msg.Role == domain.RoleTool {
			scanJSON(msg.Content, scan)
		} else {
			scan(msg.Content)
		}
		if msg.Invocation != nil {
			scan(msg.Invocation.Answer)
		}
	}

	out := make([]string, 0, len(seen))
	for ref := range seen {
		out = append(out, ref)
	}
	sort.Strings(out)
	return out
}

// clean strips prose punctuation and unbalanced closing brackets from the end
// of a URL. It returns "" for anything that is not an http(s) URL with a host.
func clean(u string) string {
	for u != "" {
		last := u[len(u)-1]
		if strings.IndexByte(trailingPunct, last) >= 0 {
			u = u[:len(u)-1]
			continue
		}
		if open, ok := closers[last]; ok && strings.Count(u, open) < strings.Count(u, string(last)) {
			u = u[:len(u)-1]
			continue
		}
		break
	}
	rest, ok := strings.CutPrefix(u, "https://")
	if !ok {
		rest, ok = strings.CutPrefix(u, "http://")
	}
	if !ok || rest == "" {
		return ""
	}
	return u
}

// scanJSON scans every string inside a JSON document, so escapes such as \n
// or \u0026 are decoded before matching. Content that is not JSON is scanned
// as is.
func scanJSON(content string, scan func(string)) {
	var doc any
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		scan(content)
		return
	}
	var walk func(v any)
	walk = func(v any) {
		switch v := v.(type) {
		case string:
			scan(v)
		case []any:
			for _, item := range v {
				walk(item)
			}
		case map[string]any:
			for _, item := range v {
				walk(item)
			}
		}
	}
	walk(doc)
}
