package crawl

import (
	"bytes"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"
)

// Links extracts the href of every anchor in the page body, resolved against
// the page URL and canonicalized. Unparseable hrefs are skipped.
func Links(page Page) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, fmt.Errorf("parse page body: %w", err)
	}
	pageURL := page.FinalURL
	if pageURL == "" {
		pageURL = page.URL
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}
		canonical, err := Resolve(base, href)
		if err != nil {
			return
		}
		links = append(links, canonical)
	})
	return links, nil
}
