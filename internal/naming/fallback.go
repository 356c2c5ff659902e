package naming

import (
	"iter"
	"strings"
)

// Candidates yields the fallback search queries for a normalized title, most
// specific first: the full title, then the title with its last word dropped,
// and so on down to the first word alone.
//
//	"Movie Title Extended Cut" -> "Movie Title Extended Cut", "Movie Title Extended", "Movie Title", "Movie"
//
// A title with no words yields nothing.
func Candidates(title string) iter.Seq[string] {
	words := strings.Fields(title)
	return func(yield func(string) bool) {
		for n := len(words); n > 0; n-- {
			if !yield(strings.Join(words[:n], " ")) {
				return
			}
		}
	}
}

// Expand returns every candidate from Candidates as a slice. The slice is
// empty, never nil, when the title has no words.
func Expand(title string) []string {
	queries := make([]string, 0, len(strings.Fields(title)))
	for q := range Candidates(title) {
		queries = append(queries, q)
	}
	return queries
}
