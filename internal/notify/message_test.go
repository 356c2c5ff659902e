package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatter_English(t *testing.T) {
	f, err := NewFormatter(FormatterConfig{})
	require.NoError(t, err)

	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{
			name:  "movie",
			event: Event{Type: EventMovieAdded, Title: "Heat", URL: "https://www.themoviedb.org/movie/949"},
			want:  "Heat (https://www.themoviedb.org/movie/949) has been added to the movie list.",
		},
		{
			name:  "season",
			event: Event{Type: EventSeasonAdded, Title: "Dark", URL: "u", Season: 2, HasSeason: true},
			want:  `Season 2 of "Dark" (u) has been fully added to the TV list.`,
		},
		{
			name:  "season zero uses bare word",
			event: Event{Type: EventSeasonAdded, Title: "Dark", URL: "u", Season: 0, HasSeason: true},
			want:  `Season of "Dark" (u) has been fully added to the TV list.`,
		},
		{
			name:  "series",
			event: Event{Type: EventSeriesAdded, Title: "Dark", URL: "u"},
			want:  `"Dark" (u) has been added to the TV list.`,
		},
		{
			name:  "no match",
			event: Event{Type: EventNoMatch, Query: "Xyzzy Plugh"},
			want:  "No results found for 'Xyzzy Plugh' after searching.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.Format(tt.event)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatter_DutchWithRequestLink(t *testing.T) {
	f, err := NewFormatter(FormatterConfig{Language: "nl", RequestLink: "https://example.com/wens"})
	require.NoError(t, err)

	got, err := f.Format(Event{Type: EventSeasonAdded, Title: "Dark", URL: "u", Season: 3, HasSeason: true})
	require.NoError(t, err)
	assert.Equal(t, "Seizoen 3 van \"Dark\" (u) is volledig toegevoegd aan de tv-lijst.\n\n"+
		"Voor verdere wensen naar tv series kun je hier in Telegram of hier (https://example.com/wens) een bericht achterlaten.", got)

	got, err = f.Format(Event{Type: EventNoMatch, Query: "Onbekend"})
	require.NoError(t, err)
	assert.Equal(t, "Geen resultaten gevonden voor 'Onbekend' na zoeken.", got)
}

func TestFormatter_Override(t *testing.T) {
	f, err := NewFormatter(FormatterConfig{
		Overrides: map[EventType]string{EventMovieAdded: "New: {{.Title}} #{{.TMDbID}}"},
	})
	require.NoError(t, err)

	got, err := f.Format(Event{Type: EventMovieAdded, Title: "Heat", TMDbID: 949})
	require.NoError(t, err)
	assert.Equal(t, "New: Heat #949", got)

	// untouched events keep the preset
	got, err = f.Format(Event{Type: EventNoMatch, Query: "x"})
	require.NoError(t, err)
	assert.Contains(t, got, "No results found")
}

func TestFormatter_Errors(t *testing.T) {
	_, err := NewFormatter(FormatterConfig{Language: "de"})
	assert.Error(t, err)

	_, err = NewFormatter(FormatterConfig{Overrides: map[EventType]string{EventNoMatch: "{{.Query"}})
	assert.Error(t, err)

	f, err := NewFormatter(FormatterConfig{})
	require.NoError(t, err)
	_, err = f.Format(Event{Type: EventType(42)})
	assert.Error(t, err)
}
