package router

import (
	"context"
	"fmt"

	"github.com/kitchenwise/recipechat/internal/llm"
)

// synthesisTemperature leaves the final answer some phrasing freedom while
// retrieval and classification stay deterministic.
const synthesisTemperature = 0.7

const synthesisPrompt = `You are a friendly recipe assistant. Answer the user's question using only the retrieved context below.

Rules:
- Ground every claim in the context. If the context does not answer the question, say so instead of inventing recipes.
- When the context carries a recipe link, include it so the user can read the full recipe.
- Keep the tone warm and concise.

Context:
%s`

const emptyContext = "(no documents were retrieved)"

// Synthesize produces the final user-facing answer from the user's original
// question and the retrieved context. The rewritten query drives retrieval
// only; the answer must address what the user actually asked.
func Synthesize(ctx context.Context, completer llm.Completer, question, retrieved string) (string, error) {
	if retrieved == "" {
		retrieved = emptyContext
	}
	answer, err := completer.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: fmt.Sprintf(synthesisPrompt, retrieved)},
		{Role: llm.RoleUser, Content: question},
	}, synthesisTemperature)
	if err != nil {
		return "", fmt.Errorf("synthesize answer: %w", err)
	}
	return answer, nil
}
