// Package extract turns rendered HTML into the canonical text and structured
// recipes that feed the vector and graph backends.
package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// chromeSelector matches the non-content regions stripped before text
// collection.
const chromeSelector = "header, footer, nav, script, style"

// blockSelector matches the text blocks collected in document order.
const blockSelector = "h1, h2, h3, p, li"

// GenericText builds the canonical text for a non-recipe page: the source
// URL as a prologue line followed by every heading, paragraph and list-item
// text in document order. A page whose content is all chrome yields just the
// prologue, never an error.
func GenericText(body []byte, pageURL string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find(chromeSelector).Remove()

	var lines []string
	doc.Find(blockSelector).Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text != "" {
			lines = append(lines, text)
		}
	})

	return "Link: " + pageURL + "\n" + strings.Join(lines, "\n"), nil
}
