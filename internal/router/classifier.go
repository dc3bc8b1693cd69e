// Package router classifies chat messages, dispatches retrieval to the
// vector or graph backend, and synthesizes the final answer.
package router

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kitchenwise/recipechat/internal/llm"
)

// Routing targets.
const (
	TargetVector = "vector"
	TargetGraph  = "graph"
	TargetReply  = "reply"
)

// Decision is the classifier's routing verdict for one message.
type Decision struct {
	Target         string `json:"target"`
	RewrittenQuery string `json:"rewritten_query"`
}

// ErrClassifyParse reports classifier output that could not be turned into
// a valid decision. The router fails fast on it rather than guessing a
// target.
type ErrClassifyParse struct {
	Raw    string
	Reason string
}

func (e ErrClassifyParse) Error() string {
	return fmt.Sprintf("unusable classifier output (%s): %q", e.Reason, e.Raw)
}

const classifyPrompt = `You route user messages for a recipe assistant backed by two retrieval systems.

Pick exactly one target:
- "vector": the message asks about recipe content, cooking steps, descriptions, or general site information. Semantic search over page text answers it best.
- "graph": the message asks about structured relationships or aggregates, such as which recipes contain an ingredient, share a tag, match a skill level, fit a time or servings constraint (like recipes under 20 minutes), or comparisons and counts across recipes.
- "reply": the message needs no retrieval at all, such as a greeting or small talk. Put your direct reply in rewritten_query.

Also rewrite the message into a self-contained query for the chosen target.

Respond with only a JSON object inside a fenced code block:
` + "```json\n{\"target\": \"vector|graph|reply\", \"rewritten_query\": \"...\"}\n```"

// Classify asks the model to route one message. Deterministic by
// construction: temperature zero and a fixed prompt.
func Classify(ctx context.Context, completer llm.Completer, message string) (Decision, error) {
	out, err := completer.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: classifyPrompt},
		{Role: llm.RoleUser, Content: message},
	}, 0)
	if err != nil {
		return Decision{}, fmt.Errorf("classify message: %w", err)
	}

	payload := StripFences(out)
	var decision Decision
	if err := json.Unmarshal([]byte(payload), &decision); err != nil {
		return Decision{}, ErrClassifyParse{Raw: out, Reason: "invalid json"}
	}

	switch decision.Target {
	case TargetVector, TargetGraph, TargetReply:
	default:
		return Decision{}, ErrClassifyParse{Raw: out, Reason: "unknown target"}
	}
	if strings.TrimSpace(decision.RewrittenQuery) == "" {
		return Decision{}, ErrClassifyParse{Raw: out, Reason: "empty rewritten query"}
	}
	return decision, nil
}

// StripFences removes a Markdown code fence wrapper, with or without a
// language tag, from model output.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		// Drop the language tag line.
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
