package database

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// CacheKey folds a search query so that case and Unicode composition
// variants ("Amélie", "AMÉLIE") share one cache row.
func CacheKey(query string) string {
	s := norm.NFC.String(query)
	// a Caser is stateful and must not be shared between goroutines
	s = cases.Fold().String(s)
	return strings.Join(strings.Fields(s), " ")
}
