// Package trace turns low-level execution events into user-facing thinking
// steps.
package trace

import (
	"strings"

	"github.com/xiaot623/legalflow/internal/domain"
)

// FallbackNode is used when an event cannot be attributed to a known node.
const FallbackNode = domain.NodeAnalyze

// NodeMeta is the presentation of a workflow node.
type NodeMeta struct {
	Title       string
	Description string
}

var nodes = map[domain.NodeID]NodeMeta{
	domain.NodeGenerate:       {"🧠 Initial Legal Analysis", "Analyzing case facts and identifying key legal issues"},
	domain.NodeCritique:       {"🔍 Critical Review", "Reviewing analysis for gaps, inconsistencies, and areas needing research"},
	domain.NodeWebSearch:      {"🔎 Legal Research", "Searching for relevant laws, precedents, and legal authorities"},
	domain.NodeReviseAnswer:   {"✅ Final Synthesis", "Incorporating research findings and finalizing legal opinion"},
	domain.NodeAnswerQuestion: {"📝 Answer Formulation", "Structuring the comprehensive legal analysis"},
	domain.NodeResearch:       {"📚 Research Phase", "Conducting detailed legal research"},
	domain.NodeAnalyze:        {"⚖️ Legal Analysis", "Applying legal principles to case facts"},
}

// Lookup returns the metadata of a registered node.
func Lookup(id domain.NodeID) (NodeMeta, bool) {
	m, ok := nodes[id]
	return m, ok
}

// Meta returns the metadata of id, or of FallbackNode when id is unknown.
func Meta(id domain.NodeID) NodeMeta {
	if m, ok := nodes[id]; ok {
		return m
	}
	return nodes[FallbackNode]
}

// Resolve attributes an event to a node. The explicit node wins; otherwise
// the first "name:..." path segment naming a registered node is used.
func Resolve(ev domain.TraceEvent) domain.NodeID {
	if _, ok := nodes[ev.Node]; ok {
		return ev.Node
	}
	for _, part := range strings.Split(ev.Path, "/") {
		name, _, found := strings.Cut(part, ":")
		if !found {
			continue
		}
		if _, ok := nodes[domain.NodeID(name)]; ok {
			return domain.NodeID(name)
		}
	}
	return FallbackNode
}
