// Package app initializes and holds long-lived application services, acting
// as a dependency injection container.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kitchenwise/recipechat/internal/config"
	"github.com/kitchenwise/recipechat/internal/graphstore"
	"github.com/kitchenwise/recipechat/internal/llm"
	"github.com/kitchenwise/recipechat/internal/logging"
	"github.com/kitchenwise/recipechat/internal/metrics"
	"github.com/kitchenwise/recipechat/internal/vectorstore"
)

// App holds the shared services used by the commands. It is built once at
// startup and fails fast if any backend cannot be reached.
type App struct {
	cfg     config.Config
	logger  *zap.Logger
	llm     *llm.Client
	vectors *vectorstore.Store
	graph   *graphstore.Store
}

// Config returns the loaded configuration.
func (a *App) Config() config.Config {
	return a.cfg
}

// Logger returns the shared zap logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// LLM returns the embedding/completion client.
func (a *App) LLM() *llm.Client {
	return a.llm
}

// Vectors returns the vector index store.
func (a *App) Vectors() *vectorstore.Store {
	return a.vectors
}

// Graph returns the graph backend store.
func (a *App) Graph() *graphstore.Store {
	return a.graph
}

// New loads configuration and wires up all backends.
func New(ctx context.Context, configPath string) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	zap.ReplaceGlobals(logger)

	metrics.Init()

	vectors, err := vectorstore.New(cfg.Elastic, logger)
	if err != nil {
		return nil, fmt.Errorf("init vector store: %w", err)
	}

	graph, err := graphstore.New(ctx, cfg.Neo4j, logger)
	if err != nil {
		return nil, fmt.Errorf("init graph store: %w", err)
	}

	logger.Info("application services initialized",
		zap.String("elastic_index", cfg.Elastic.Index),
		zap.String("neo4j_uri", cfg.Neo4j.URI),
	)

	return &App{
		cfg:     cfg,
		logger:  logger,
		llm:     llm.NewClient(cfg.OpenAI),
		vectors: vectors,
		graph:   graph,
	}, nil
}

// Close shuts down all services in the container.
func (a *App) Close(ctx context.Context) {
	if err := a.graph.Close(ctx); err != nil {
		a.logger.Warn("error closing graph driver", zap.Error(err))
	}
	_ = a.logger.Sync()
}
