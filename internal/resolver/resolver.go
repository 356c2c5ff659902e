// Package resolver matches a normalized title against a metadata lookup using
// the trailing-word fallback search: the full title is tried first, then ever
// shorter prefixes, and the first hit wins.
package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/Nomadcxx/jellyscout/internal/naming"
)

// Resolver drives the fallback search against a Lookup
type Resolver struct {
	lookup  Lookup
	observe func(kind naming.MediaKind, a Attempt)
}

// Option configures a Resolver
type Option func(*Resolver)

// WithObserver registers a callback invoked after every probe, in order.
func WithObserver(fn func(kind naming.MediaKind, a Attempt)) Option {
	return func(r *Resolver) {
		r.observe = fn
	}
}

// New creates a Resolver backed by lookup
func New(lookup Lookup, opts ...Option) *Resolver {
	r := &Resolver{lookup: lookup}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve searches for title with a one-off Resolver
func Resolve(ctx context.Context, title string, kind naming.MediaKind, lookup Lookup) (MatchResult, error) {
	return New(lookup).Resolve(ctx, title, kind)
}

// Resolve probes the candidates of title one at a time and stops at the first
// one the lookup returns an item for. A lookup error counts as no result for
// that candidate. The only error returned is for an invalid kind.
func (r *Resolver) Resolve(ctx context.Context, title string, kind naming.MediaKind) (MatchResult, error) {
	if !kind.Valid() {
		return MatchResult{}, fmt.Errorf("resolve %q: %w: %d", title, naming.ErrUnknownMediaKind, int(kind))
	}
	if r.lookup == nil {
		return MatchResult{}, errors.New("resolver has no lookup")
	}

	result := MatchResult{Kind: kind, Attempts: []Attempt{}}
	for query := range naming.Candidates(title) {
		if ctx.Err() != nil {
			break
		}

		item, err := r.lookup.Search(ctx, query, kind)
		attempt := Attempt{Query: query, Found: err == nil && item != nil, Err: err}
		result.Attempts = append(result.Attempts, attempt)
		if r.observe != nil {
			r.observe(kind, attempt)
		}

		if attempt.Found {
			result.Found = true
			result.Item = item
			result.MatchedQuery = query
			return result, nil
		}
	}

	return result, nil
}
