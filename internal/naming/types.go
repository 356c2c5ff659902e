package naming

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMediaKind is returned when a media kind value or name is not recognised.
var ErrUnknownMediaKind = errors.New("unknown media kind")

// MediaKind selects which TMDb search category a title is resolved against.
// It is fixed for a whole scan run.
type MediaKind int

const (
	MediaKindMovie  MediaKind = iota // Files and folders under a movie root
	MediaKindSeries                  // Series folders under a TV root
)

// String returns the canonical lowercase name of the kind
func (k MediaKind) String() string {
	switch k {
	case MediaKindMovie:
		return "movie"
	case MediaKindSeries:
		return "series"
	default:
		return "unknown"
	}
}

// Valid reports whether k is one of the defined kinds
func (k MediaKind) Valid() bool {
	return k == MediaKindMovie || k == MediaKindSeries
}

// MarshalText implements encoding.TextMarshaler
func (k MediaKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMediaKind, int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *MediaKind) UnmarshalText(text []byte) error {
	parsed, err := ParseMediaKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseMediaKind converts a user supplied name into a MediaKind.
// "serie" is accepted for compatibility with existing seen-file tooling.
func ParseMediaKind(s string) (MediaKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie", "movies", "film":
		return MediaKindMovie, nil
	case "series", "serie", "tv", "show":
		return MediaKindSeries, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMediaKind, s)
	}
}
