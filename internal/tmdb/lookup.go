package tmdb

import (
	"context"
	"fmt"

	"github.com/Nomadcxx/jellyscout/internal/naming"
	"github.com/Nomadcxx/jellyscout/internal/resolver"
)

var _ resolver.Lookup = (*Client)(nil)

// Search returns the first TMDb result for query in the category selected by
// kind, or nil when the search came back empty.
func (c *Client) Search(ctx context.Context, query string, kind naming.MediaKind) (*resolver.Item, error) {
	var (
		resp *SearchResponse
		err  error
	)
	switch kind {
	case naming.MediaKindMovie:
		resp, err = c.SearchMovie(ctx, query)
	case naming.MediaKindSeries:
		resp, err = c.SearchTV(ctx, query)
	default:
		return nil, fmt.Errorf("%w: %d", naming.ErrUnknownMediaKind, int(kind))
	}
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}

	return toItem(resp.Results[0]), nil
}

func toItem(r Result) *resolver.Item {
	original := r.OriginalTitle
	if original == "" {
		original = r.OriginalName
	}
	return &resolver.Item{
		ID:            r.ID,
		Title:         r.DisplayTitle(),
		OriginalTitle: original,
		Year:          r.Year(),
		Overview:      r.Overview,
	}
}

// ItemURL returns the public TMDb page for an item
func ItemURL(kind naming.MediaKind, id int64) string {
	switch kind {
	case naming.MediaKindMovie:
		return fmt.Sprintf("%s/movie/%d", websiteURL, id)
	case naming.MediaKindSeries:
		return fmt.Sprintf("%s/tv/%d", websiteURL, id)
	default:
		return ""
	}
}
