package router

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kitchenwise/recipechat/internal/graphstore"
	"github.com/kitchenwise/recipechat/internal/llm"
	"github.com/kitchenwise/recipechat/internal/vectorstore"
)

// searchK is how many nearest neighbors ground a vector-routed answer.
const searchK = 3

// VectorSearcher serves similarity search over the page index.
type VectorSearcher interface {
	Search(ctx context.Context, embedding []float32, k int) ([]vectorstore.Hit, error)
}

// GraphQuerier serves schema introspection and read-only queries.
type GraphQuerier interface {
	Schema(ctx context.Context) (string, error)
	Query(ctx context.Context, cypher string) ([]string, error)
}

// Result is the full outcome of one routed chat message.
type Result struct {
	Target         string `json:"target"`
	RewrittenQuery string `json:"rewritten_query"`
	Context        string `json:"context,omitempty"`
	Response       string `json:"response"`
}

// Router wires the classifier, the two retrieval backends, and the
// synthesizer together.
type Router struct {
	completer llm.Completer
	embedder  llm.Embedder
	vectors   VectorSearcher
	graph     GraphQuerier
	logger    *zap.Logger
}

// New builds a Router.
func New(completer llm.Completer, embedder llm.Embedder, vectors VectorSearcher, graph GraphQuerier, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		completer: completer,
		embedder:  embedder,
		vectors:   vectors,
		graph:     graph,
		logger:    logger,
	}
}

// Chat routes one message end to end.
func (r *Router) Chat(ctx context.Context, message string) (Result, error) {
	decision, err := Classify(ctx, r.completer, message)
	if err != nil {
		return Result{}, err
	}
	r.logger.Info("routed message",
		zap.String("target", decision.Target),
		zap.String("rewritten_query", decision.RewrittenQuery),
	)

	result := Result{Target: decision.Target, RewrittenQuery: decision.RewrittenQuery}

	switch decision.Target {
	case TargetReply:
		// No retrieval needed, the classifier already wrote the reply.
		result.Response = decision.RewrittenQuery
		return result, nil

	case TargetVector:
		retrieved, err := r.retrieveVector(ctx, decision.RewrittenQuery)
		if err != nil {
			return Result{}, err
		}
		result.Context = retrieved

	case TargetGraph:
		retrieved, err := r.retrieveGraph(ctx, decision.RewrittenQuery)
		if err != nil {
			return Result{}, err
		}
		result.Context = retrieved
	}

	answer, err := Synthesize(ctx, r.completer, message, result.Context)
	if err != nil {
		return Result{}, err
	}
	result.Response = answer
	return result, nil
}

func (r *Router) retrieveVector(ctx context.Context, query string) (string, error) {
	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}
	hits, err := r.vectors.Search(ctx, embedding, searchK)
	if err != nil {
		return "", fmt.Errorf("vector search: %w", err)
	}
	texts := make([]string, 0, len(hits))
	for _, hit := range hits {
		texts = append(texts, hit.Text)
	}
	return strings.Join(texts, "\n\n"), nil
}

const cypherPromptFormat = `You translate questions about recipes into Cypher read queries.

Graph schema:
%s

Rules:
- Generate exactly one read-only Cypher query. Never use CREATE, MERGE, SET, DELETE, REMOVE, DROP, FOREACH or LOAD CSV.
- Match text properties with toLower(property) CONTAINS 'term', never with =. Terms must be lowercase.
- Return the properties needed to answer the question, including recipe titles and urls where available.

Respond with only the Cypher query.`

func (r *Router) retrieveGraph(ctx context.Context, query string) (string, error) {
	schema, err := r.graph.Schema(ctx)
	if err != nil {
		return "", fmt.Errorf("graph schema: %w", err)
	}

	out, err := r.completer.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: fmt.Sprintf(cypherPromptFormat, schema)},
		{Role: llm.RoleUser, Content: query},
	}, 0)
	if err != nil {
		return "", fmt.Errorf("generate cypher: %w", err)
	}

	cypher := StripFences(out)
	if err := graphstore.EnsureReadOnly(cypher); err != nil {
		return "", err
	}
	r.logger.Debug("generated cypher", zap.String("cypher", cypher))

	rows, err := r.graph.Query(ctx, cypher)
	if err != nil {
		return "", fmt.Errorf("graph query: %w", err)
	}
	return strings.Join(rows, "\n"), nil
}
