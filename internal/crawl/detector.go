package crawl

import (
	"bytes"

	"github.com/PuerkitoBio/goquery"
)

// HeuristicDetector flags statically fetched pages that look JS-rendered:
// tiny bodies, or bodies without any of the content blocks the extractor
// relies on.
type HeuristicDetector struct {
	minBodyBytes int
}

// NewHeuristicDetector builds a detector with the given body-size threshold.
func NewHeuristicDetector(minBodyBytes int) *HeuristicDetector {
	return &HeuristicDetector{minBodyBytes: minBodyBytes}
}

// NeedsJS reports whether the page should be re-fetched with the renderer.
func (d *HeuristicDetector) NeedsJS(page Page) bool {
	if len(page.Body) < d.minBodyBytes {
		return true
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return true
	}
	return doc.Find("h1, h2, h3, p, li").Length() == 0
}
