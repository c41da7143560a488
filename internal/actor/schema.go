package actor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/xiaot623/legalflow/internal/domain"
)

const answerQuestionSchema = `{
  "type": "object",
  "properties": {
    "answer": {"type": "string", "minLength": 1, "description": "Detailed legal analysis of the case in the required report format."},
    "critique": {"type": "string", "description": "Severe reflection on the answer: what is missing and what is superfluous."},
    "search_queries": {
      "type": "array",
      "items": {"type": "string", "minLength": 1},
      "minItems": 1,
      "maxItems": 3,
      "description": "1-3 web search queries for researching improvements to the answer."
    }
  },
  "required": ["answer", "critique", "search_queries"]
}`

const reviseAnswerSchema = `{
  "type": "object",
  "properties": {
    "answer": {"type": "string", "minLength": 1, "description": "Revised legal analysis with numbered citations and a References section."},
    "critique": {"type": "string", "description": "Severe reflection on the revised answer."},
    "search_queries": {
      "type": "array",
      "items": {"type": "string", "minLength": 1},
      "maxItems": 3,
      "description": "Up to 3 further search queries. Empty when no more research is needed."
    },
    "references": {
      "type": "array",
      "items": {"type": "string"},
      "description": "Citations motivating the revised answer."
    }
  },
  "required": ["answer", "critique", "search_queries", "references"]
}`

var toolDescriptions = map[domain.ToolName]string{
	domain.ToolAnswerQuestion: "Answer the question. Provide an answer, a critique and search queries.",
	domain.ToolReviseAnswer:   "Revise your original answer to the question. Provide an answer, a critique, search queries and references.",
}

// toolSchema is one tool's JSON schema in both of the forms it is used in.
type toolSchema struct {
	params   map[string]any
	compiled *jsonschema.Schema
}

// schemas holds the compiled argument schemas of both actor tools.
type schemas map[domain.ToolName]toolSchema

func compileSchemas() (schemas, error) {
	out := make(schemas, 2)
	for name, src := range map[domain.ToolName]string{
		domain.ToolAnswerQuestion: answerQuestionSchema,
		domain.ToolReviseAnswer:   reviseAnswerSchema,
	} {
		var params map[string]any
		if err := json.Unmarshal([]byte(src), &params); err != nil {
			return nil, fmt.Errorf("decode %s schema: %w", name, err)
		}
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(src))
		if err != nil {
			return nil, fmt.Errorf("decode %s schema: %w", name, err)
		}
		url := string(name) + ".json"
		c := jsonschema.NewCompiler()
		if err := c.AddResource(url, doc); err != nil {
			return nil, fmt.Errorf("add %s schema: %w", name, err)
		}
		compiled, err := c.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("compile %s schema: %w", name, err)
		}
		out[name] = toolSchema{params: params, compiled: compiled}
	}
	return out, nil
}

// validate checks raw tool arguments against the tool's schema.
func (s schemas) validate(name domain.ToolName, arguments string) error {
	ts, ok := s[name]
	if !ok {
		return fmt.Errorf("no schema for tool %s", name)
	}
	inst, err := jsonschema.UnmarshalJSON(strings.NewReader(arguments))
	if err != nil {
		return fmt.Errorf("arguments are not valid JSON: %w", err)
	}
	if err := ts.compiled.Validate(inst); err != nil {
		return fmt.Errorf("arguments do not match %s schema: %w", name, err)
	}
	return nil
}
