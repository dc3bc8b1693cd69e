package extract

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ParsedIngredient is the name/quantity split of one raw ingredient line.
// Quantity carries the sentinel when no leading numeric token is found.
type ParsedIngredient struct {
	Name     string
	Quantity string
}

// Leading quantity: digits, spaces, slashes, periods and vulgar fractions,
// optionally followed by a unit word.
var quantityPattern = regexp.MustCompile(`^([\d\s/.½¼¾]+(?:[a-z]+)?)\s+(.+)$`)

var specialWhitespace = strings.NewReplacer(
	"​", " ", // zero-width space
	" ", " ", // no-break space
	" ", " ", // narrow no-break space
	"　", " ", // ideographic space
)

var whitespaceRuns = regexp.MustCompile(`\s+`)

// NormalizeASCII decomposes the input, drops non-ASCII remnants, collapses
// exotic whitespace and runs of whitespace to single spaces, lowercases and
// trims. Best effort; it never fails.
func NormalizeASCII(s string) string {
	s = specialWhitespace.Replace(s)
	s = norm.NFKD.String(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 128 {
			b.WriteRune(r)
		}
	}

	s = whitespaceRuns.ReplaceAllString(b.String(), " ")
	return strings.ToLower(strings.TrimSpace(s))
}

// ParseIngredient splits a raw ingredient line into a normalized name and a
// quantity token. A line with no leading quantity keeps the whole normalized
// string as the name and gets the sentinel quantity. Malformed input falls
// through to the no-match branch; this never errors.
func ParseIngredient(raw string) ParsedIngredient {
	normalized := NormalizeASCII(raw)

	if m := quantityPattern.FindStringSubmatch(normalized); m != nil {
		return ParsedIngredient{
			Name:     strings.TrimSpace(m[2]),
			Quantity: strings.TrimSpace(m[1]),
		}
	}
	return ParsedIngredient{Name: normalized, Quantity: Sentinel}
}
