package crawl

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/kitchenwise/recipechat/internal/metrics"
)

// Engine drives the crawl loop: pop FIFO, fetch, hand the page to the
// handler, discover same-site links. One logical thread of control; the
// frontier is only ever touched here.
type Engine struct {
	cfg      Config
	fetcher  Fetcher
	renderer Renderer
	detector Detector
	frontier *Frontier
	logger   *zap.Logger
	baseHost string
}

// NewEngine constructs an engine seeded with the configured base URL.
func NewEngine(cfg Config, fetcher Fetcher, renderer Renderer, detector Detector, logger *zap.Logger) (*Engine, error) {
	if fetcher == nil && renderer == nil {
		return nil, fmt.Errorf("engine needs a fetcher or a renderer")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	seed, err := Normalize(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("normalize base url: %w", err)
	}

	frontier := NewFrontier()
	frontier.Push(seed)

	return &Engine{
		cfg:      cfg,
		fetcher:  fetcher,
		renderer: renderer,
		detector: detector,
		frontier: frontier,
		logger:   logger,
		baseHost: strings.ToLower(base.Hostname()),
	}, nil
}

// Run processes the frontier until it is empty, the visit cap is reached, or
// the context is canceled. A fetch or handler failure for one URL is logged
// and isolated; the URL stays visited so it is never retried.
func (e *Engine) Run(ctx context.Context, handle Handler) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.frontier.VisitedCount() >= e.cfg.MaxPages {
			e.logger.Info("visit cap reached", zap.Int("max_pages", e.cfg.MaxPages))
			return nil
		}
		canonical, ok := e.frontier.Pop()
		if !ok {
			return nil
		}
		if e.frontier.Visited(canonical) {
			continue
		}
		e.frontier.MarkVisited(canonical)

		e.logger.Info("crawling", zap.String("url", canonical))
		page, err := e.fetchPage(ctx, canonical)
		if err != nil {
			metrics.ObserveCrawlPage("fetch_failed")
			e.logger.Warn("fetch failed", zap.String("url", canonical), zap.Error(err))
			continue
		}

		if err := handle(ctx, page); err != nil {
			metrics.ObserveCrawlPage("handler_failed")
			e.logger.Warn("page handler failed", zap.String("url", canonical), zap.Error(err))
		} else {
			metrics.ObserveCrawlPage("ok")
		}

		e.enqueueLinks(page)
	}
}

// VisitedCount exposes how many URLs the engine has processed.
func (e *Engine) VisitedCount() int {
	return e.frontier.VisitedCount()
}

func (e *Engine) fetchPage(ctx context.Context, canonical string) (Page, error) {
	if e.fetcher == nil {
		return e.renderer.Render(ctx, canonical)
	}

	page, err := e.fetcher.Fetch(ctx, canonical)
	switch {
	case err != nil && e.renderer != nil:
		e.logger.Debug("static fetch failed, promoting to headless",
			zap.String("url", canonical), zap.Error(err))
		return e.renderer.Render(ctx, canonical)
	case err != nil:
		return Page{}, err
	}

	if e.detector != nil && e.renderer != nil && e.detector.NeedsJS(page) {
		e.logger.Debug("promoting to headless render", zap.String("url", canonical))
		rendered, rerr := e.renderer.Render(ctx, canonical)
		if rerr != nil {
			// Keep the static page rather than failing the URL outright.
			e.logger.Warn("headless render failed, keeping static body",
				zap.String("url", canonical), zap.Error(rerr))
			return page, nil
		}
		return rendered, nil
	}
	return page, nil
}

func (e *Engine) enqueueLinks(page Page) {
	links, err := Links(page)
	if err != nil {
		e.logger.Debug("link discovery failed", zap.String("url", page.URL), zap.Error(err))
		return
	}
	for _, link := range links {
		if !SameSite(e.baseHost, link) {
			continue
		}
		e.frontier.Push(link)
	}
}
