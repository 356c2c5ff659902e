package resolver

import (
	"context"

	"github.com/Nomadcxx/jellyscout/internal/naming"
)

// Item is the metadata record returned by a lookup
type Item struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	OriginalTitle string `json:"original_title,omitempty"`
	Year          string `json:"year,omitempty"`
	Overview      string `json:"overview,omitempty"`
}

// Lookup is the external search capability. It returns the best match for a
// single query, or nil when there is none.
type Lookup interface {
	Search(ctx context.Context, query string, kind naming.MediaKind) (*Item, error)
}

// LookupFunc adapts a plain function to Lookup
type LookupFunc func(ctx context.Context, query string, kind naming.MediaKind) (*Item, error)

// Search calls f
func (f LookupFunc) Search(ctx context.Context, query string, kind naming.MediaKind) (*Item, error) {
	return f(ctx, query, kind)
}

// Attempt records one probe of the lookup
type Attempt struct {
	Query string `json:"query"`
	Found bool   `json:"found"`
	Err   error  `json:"-"`
}

// MatchResult is the outcome of resolving one title
type MatchResult struct {
	Found        bool             `json:"found"`
	Item         *Item            `json:"item,omitempty"`
	MatchedQuery string           `json:"matched_query,omitempty"`
	Kind         naming.MediaKind `json:"kind"`
	Attempts     []Attempt        `json:"attempts"`
}

// Outcome classifies a MatchResult
type Outcome int

const (
	OutcomeMatched      Outcome = iota // A candidate produced an item
	OutcomeNoCandidates                // Title had no words, nothing was searched
	OutcomeNoMatch                     // Every candidate was probed without a hit
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMatched:
		return "matched"
	case OutcomeNoCandidates:
		return "no-candidates"
	case OutcomeNoMatch:
		return "no-match"
	default:
		return "unknown"
	}
}

// Outcome reports how the resolution ended
func (r MatchResult) Outcome() Outcome {
	switch {
	case r.Found:
		return OutcomeMatched
	case len(r.Attempts) == 0:
		return OutcomeNoCandidates
	default:
		return OutcomeNoMatch
	}
}

// Failures returns the attempts whose lookup returned an error
func (r MatchResult) Failures() []Attempt {
	var failed []Attempt
	for _, a := range r.Attempts {
		if a.Err != nil {
			failed = append(failed, a)
		}
	}
	return failed
}
