// Package slug derives URL-safe identifiers from titles and names.
package slug

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fallback is used when a candidate has no alphanumeric characters
const Fallback = "n-a"

var (
	slugRegex  = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	nonAlnum   = regexp.MustCompile(`[^a-z0-9]+`)
	foldTable  = strings.NewReplacer("ß", "ss", "æ", "ae", "Æ", "ae", "ø", "o", "Ø", "o", "đ", "d", "Đ", "d", "ł", "l", "Ł", "l", "œ", "oe", "Œ", "oe", "&", " and ", "@", " at ")
)

// ExistsFunc reports whether slug is already taken by a record other than
// excludeID. An empty excludeID excludes nothing.
type ExistsFunc func(ctx context.Context, slug, excludeID string) (bool, error)

// Slugify lowercases and ASCII-folds text and joins its alphanumeric runs
// with single hyphens.
func Slugify(text string) string {
	folded := foldTable.Replace(text)

	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if out, _, err := transform.String(t, folded); err == nil {
		folded = out
	}

	s := nonAlnum.ReplaceAllString(strings.ToLower(folded), "-")
	return strings.Trim(s, "-")
}

// Valid reports whether s is already a well-formed slug
func Valid(s string) bool {
	return slugRegex.MatchString(s)
}

// GenerateUnique slugifies candidate and appends -1, -2, ... until exists
// reports the slug as free.
func GenerateUnique(ctx context.Context, candidate, excludeID string, exists ExistsFunc) (string, error) {
	base := Slugify(candidate)
	if base == "" {
		base = Fallback
	}

	slug := base
	for n := 1; ; n++ {
		taken, err := exists(ctx, slug, excludeID)
		if err != nil {
			return "", fmt.Errorf("check slug %q: %w", slug, err)
		}
		if !taken {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, n)
	}
}
