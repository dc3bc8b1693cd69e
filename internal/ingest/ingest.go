// Package ingest turns crawled pages into vector-store documents and graph
// upserts.
package ingest

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kitchenwise/recipechat/internal/crawl"
	"github.com/kitchenwise/recipechat/internal/extract"
	"github.com/kitchenwise/recipechat/internal/llm"
	"github.com/kitchenwise/recipechat/internal/metrics"
	"github.com/kitchenwise/recipechat/internal/vectorstore"
)

// Page document types.
const (
	TypeRecipe      = "recipe"
	TypeInformation = "information"
)

// VectorIndex receives the batched documents at flush time.
type VectorIndex interface {
	Upload(ctx context.Context, docs []vectorstore.Document) (vectorstore.UploadReport, error)
}

// GraphWriter receives one upsert per recipe page at flush time.
type GraphWriter interface {
	UpsertRecipe(ctx context.Context, recipe extract.Recipe, id string) error
}

// Report summarizes one ingest run.
type Report struct {
	Pages       int
	Recipes     int
	Upload      vectorstore.UploadReport
	GraphErrors int
}

type recipeEntry struct {
	recipe extract.Recipe
	id     string
}

// Pipeline accumulates per-page documents during a crawl and writes them
// out in one pass when the crawl finishes. It is driven by a single crawl
// goroutine and is not safe for concurrent use.
type Pipeline struct {
	embedder     llm.Embedder
	index        VectorIndex
	graph        GraphWriter
	recipeMarker string
	logger       *zap.Logger

	docs    []vectorstore.Document
	recipes []recipeEntry
}

// NewPipeline builds a pipeline. recipeMarker is the URL path fragment that
// marks a page as a recipe.
func NewPipeline(embedder llm.Embedder, index VectorIndex, graph GraphWriter, recipeMarker string, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		embedder:     embedder,
		index:        index,
		graph:        graph,
		recipeMarker: recipeMarker,
		logger:       logger,
	}
}

// HandlePage extracts, embeds, and buffers one crawled page. It satisfies
// crawl.Handler.
func (p *Pipeline) HandlePage(ctx context.Context, page crawl.Page) error {
	pageURL := page.URL
	if page.FinalURL != "" {
		pageURL = page.FinalURL
	}

	docType := TypeInformation
	if strings.Contains(pageURL, p.recipeMarker) {
		docType = TypeRecipe
	}

	var text string
	if docType == TypeRecipe {
		recipe, err := extract.ParseRecipe(page.Body, pageURL)
		if err != nil {
			return fmt.Errorf("parse recipe %s: %w", pageURL, err)
		}
		text = recipe.CanonicalText()
		p.recipes = append(p.recipes, recipeEntry{recipe: recipe, id: DocumentID(pageURL)})
	} else {
		generic, err := extract.GenericText(page.Body, pageURL)
		if err != nil {
			return fmt.Errorf("extract page %s: %w", pageURL, err)
		}
		text = generic
	}

	embedding, err := p.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embed %s: %w", pageURL, err)
	}

	p.docs = append(p.docs, vectorstore.Document{
		ID:        DocumentID(pageURL),
		Type:      docType,
		Text:      text,
		Embedding: embedding,
	})
	p.logger.Debug("buffered page",
		zap.String("url", pageURL),
		zap.String("type", docType),
	)
	return nil
}

// Flush bulk-uploads the buffered documents and upserts the buffered
// recipes into the graph. A failed graph upsert is counted and logged but
// does not stop the remaining recipes.
func (p *Pipeline) Flush(ctx context.Context) (Report, error) {
	report := Report{Pages: len(p.docs), Recipes: len(p.recipes)}

	upload, err := p.index.Upload(ctx, p.docs)
	if err != nil {
		metrics.ObserveUpload("error", len(p.docs))
		return report, fmt.Errorf("upload documents: %w", err)
	}
	report.Upload = upload
	metrics.ObserveUpload("succeeded", upload.Succeeded)
	metrics.ObserveUpload("failed", upload.Failed)

	for _, entry := range p.recipes {
		if err := p.graph.UpsertRecipe(ctx, entry.recipe, entry.id); err != nil {
			report.GraphErrors++
			metrics.ObserveGraphUpsert("error")
			p.logger.Warn("graph upsert failed",
				zap.String("id", entry.id),
				zap.Error(err),
			)
			continue
		}
		metrics.ObserveGraphUpsert("ok")
	}

	p.docs = nil
	p.recipes = nil
	return report, nil
}
