package trace

import (
	"time"

	"github.com/xiaot623/legalflow/internal/domain"
)

// DefaultSteps is the sequence shown when a run produced no usable trace.
func DefaultSteps(now time.Time) []domain.Step {
	steps := []domain.Step{
		{
			Node:        domain.NodeGenerate,
			Title:       "🧠 Case Analysis Initiated",
			Description: "Beginning comprehensive legal analysis of the submitted case",
			Details:     "Parsing case description, identifying parties, key facts, potential legal issues, and applicable areas of law. Determining the scope and complexity of the legal matter.",
		},
		{
			Node:        domain.NodeAnalyze,
			Title:       "⚖️ Legal Framework Assessment",
			Description: "Evaluating applicable laws, regulations, and legal principles",
			Details:     "Identifying relevant statutes, regulations, case law, and legal doctrines that apply to this matter. Analyzing jurisdictional issues and procedural requirements.",
		},
		{
			Node:        domain.NodeWebSearch,
			Title:       "🔍 Research and Precedent Analysis",
			Description: "Conducting comprehensive legal research for supporting authorities",
			Details:     "Searching legal databases for relevant case law, statutory provisions, regulatory guidance, and scholarly commentary. Analyzing precedents and their applicability to the current case.",
		},
		{
			Node:        domain.NodeAnalyze,
			Title:       "📋 Comprehensive Legal Analysis",
			Description: "Synthesizing research findings with case facts",
			Details:     "Applying legal principles to case facts, analyzing strengths and weaknesses, identifying potential defenses or counterarguments, and formulating legal strategy recommendations.",
		},
		{
			Node:        domain.NodeReviseAnswer,
			Title:       "✅ Final Opinion and Recommendations",
			Description: "Finalizing legal assessment and strategic recommendations",
			Details:     "Preparing comprehensive legal opinion with clear conclusions, risk assessment, recommended actions, and next steps for the client.",
		},
	}
	for i := range steps {
		steps[i].Number = i + 1
		steps[i].Timestamp = now
	}
	return steps
}
