package extract

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Sentinel rendered into canonical text for absent optional fields. The
// embedding model sees this literal, so it must stay stable across runs.
const Sentinel = "N/A"

// Site-specific selectors for recipe detail pages.
const (
	selIngredients  = ".field--name-field-ingredient-fullname"
	selInstructions = "p.coh-paragraph"
	selSkillLevel   = "span.skill-level-value"
	selServings     = "span.serving-value"
	selPrepTime     = "span.stat-prep-time"
	selCookTime     = "span.stat-cook-time"
	selTags         = "div.field__item a"
)

// Recipe is the structured result of extracting one recipe page. It is
// fully constructed here and immutable afterward. Optional fields are nil or
// empty when the page does not carry them.
type Recipe struct {
	Title        string
	URL          string
	Image        string
	Ingredients  []string
	Instructions []string
	SkillLevel   string
	Servings     *int
	TimeMinutes  *int
	Tags         []string
}

// ParseRecipe extracts the structured recipe fields from a recipe page.
func ParseRecipe(body []byte, pageURL string) (Recipe, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Recipe{}, fmt.Errorf("parse html: %w", err)
	}

	r := Recipe{
		Title:        strings.TrimSpace(doc.Find("h1").First().Text()),
		URL:          pageURL,
		Ingredients:  dedupeOrdered(texts(doc, selIngredients)),
		Instructions: dedupeOrdered(texts(doc, selInstructions)),
		SkillLevel:   strings.TrimSpace(doc.Find(selSkillLevel).First().Text()),
		Tags:         texts(doc, selTags),
	}

	if src, ok := doc.Find("meta[property='og:image']").Attr("content"); ok {
		r.Image = src
	}

	if s := strings.TrimSpace(doc.Find(selServings).First().Text()); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			r.Servings = &n
		}
	}

	r.TimeMinutes = totalTime(doc)

	return r, nil
}

// totalTime sums prep and cook minutes when both are present, or takes
// whichever one is, or reports absence with nil.
func totalTime(doc *goquery.Document) *int {
	prep := minutes(doc, selPrepTime)
	cook := minutes(doc, selCookTime)
	switch {
	case prep != nil && cook != nil:
		total := *prep + *cook
		return &total
	case prep != nil:
		return prep
	case cook != nil:
		return cook
	}
	return nil
}

func minutes(doc *goquery.Document, selector string) *int {
	s := strings.TrimSpace(doc.Find(selector).First().Text())
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

func texts(doc *goquery.Document, selector string) []string {
	var out []string
	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			out = append(out, text)
		}
	})
	return out
}

// dedupeOrdered drops repeated items while preserving first-seen order. It
// guards against duplicated DOM fragments, which the site's pages carry.
func dedupeOrdered(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	var out []string
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

// CanonicalText renders the fixed-order text template fed to the embedding
// model. Absent optional fields render as the literal sentinel.
func (r Recipe) CanonicalText() string {
	var b strings.Builder
	b.WriteString("Recipe: " + r.Title + "\n\n")
	b.WriteString("Ingredients:\n" + strings.Join(r.Ingredients, "\n") + "\n\n")
	b.WriteString("Instructions:\n" + strings.Join(r.Instructions, "\n") + "\n\n")
	b.WriteString("Skill Level: " + orSentinel(r.SkillLevel) + "\n")
	b.WriteString("Servings: " + intOrSentinel(r.Servings) + "\n")
	b.WriteString("Time: " + intOrSentinel(r.TimeMinutes) + "\n")
	b.WriteString("Link: " + orSentinel(r.URL) + "\n")
	b.WriteString("Tags: " + tagsOrSentinel(r.Tags))
	return b.String()
}

func orSentinel(s string) string {
	if s == "" {
		return Sentinel
	}
	return s
}

func intOrSentinel(n *int) string {
	if n == nil {
		return Sentinel
	}
	return strconv.Itoa(*n)
}

func tagsOrSentinel(tags []string) string {
	if len(tags) == 0 {
		return Sentinel
	}
	return strings.Join(tags, ", ")
}
