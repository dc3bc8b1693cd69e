// Package crawl implements the sequential crawl engine: frontier management,
// URL canonicalization, fetching (static with headless promotion) and
// same-site link discovery.
package crawl

import (
	"context"
	"time"
)

// Config holds the settings for a crawl session. It is decoupled from Viper
// so the engine can be constructed and tested independently.
type Config struct {
	BaseURL           string
	MaxPages          int
	UserAgent         string
	NavTimeout        time.Duration
	DomainQPS         float64
	HeadlessThreshold int
}

// Page is the rendered result of fetching one URL.
type Page struct {
	URL        string
	FinalURL   string
	StatusCode int
	Body       []byte
	UsedJS     bool
}

// Fetcher retrieves a page without JavaScript execution.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Page, error)
}

// Renderer retrieves a page with a headless browser.
type Renderer interface {
	Render(ctx context.Context, rawURL string) (Page, error)
	Close(ctx context.Context) error
}

// Detector decides whether a statically fetched page needs a JS render.
type Detector interface {
	NeedsJS(page Page) bool
}

// Handler consumes each successfully fetched page. A handler error is
// isolated to that page and does not abort the crawl.
type Handler func(ctx context.Context, page Page) error
