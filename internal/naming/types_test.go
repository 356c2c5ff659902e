package naming

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMediaKind(t *testing.T) {
	tests := []struct {
		input string
		want  MediaKind
	}{
		{"movie", MediaKindMovie},
		{"Movies", MediaKindMovie},
		{"serie", MediaKindSeries},
		{"series", MediaKindSeries},
		{" TV ", MediaKindSeries},
	}
	for _, tt := range tests {
		got, err := ParseMediaKind(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}

	_, err := ParseMediaKind("person")
	assert.True(t, errors.Is(err, ErrUnknownMediaKind))
}

func TestMediaKind_TextRoundTrip(t *testing.T) {
	text, err := MediaKindSeries.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "series", string(text))

	var k MediaKind
	require.NoError(t, k.UnmarshalText([]byte("movie")))
	assert.Equal(t, MediaKindMovie, k)

	_, err = MediaKind(9).MarshalText()
	assert.ErrorIs(t, err, ErrUnknownMediaKind)
	assert.False(t, MediaKind(9).Valid())
	assert.Equal(t, "unknown", MediaKind(9).String())
}
