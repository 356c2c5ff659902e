package tmdb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Nomadcxx/jellyscout/internal/naming"
	"github.com/Nomadcxx/jellyscout/internal/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(Config{APIKey: " key "})

	if client.baseURL != DefaultBaseURL {
		t.Fatalf("baseURL = %q, want %q", client.baseURL, DefaultBaseURL)
	}
	if client.httpClient.Timeout != 10*time.Second {
		t.Fatalf("timeout = %v, want %v", client.httpClient.Timeout, 10*time.Second)
	}
	if client.apiKey != "key" {
		t.Fatalf("apiKey = %q, want %q", client.apiKey, "key")
	}
}

func TestSearch_MovieEndpointAndParams(t *testing.T) {
	var gotPath string
	var gotQuery map[string]string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		q := r.URL.Query()
		gotQuery = map[string]string{
			"api_key":       q.Get("api_key"),
			"query":         q.Get("query"),
			"include_adult": q.Get("include_adult"),
			"language":      q.Get("language"),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(SearchResponse{
			Page: 1,
			Results: []Result{
				{ID: 603, Title: "The Matrix", OriginalTitle: "The Matrix", ReleaseDate: "1999-03-30"},
				{ID: 604, Title: "The Matrix Reloaded"},
			},
		})
	}))
	defer ts.Close()

	client := NewClient(Config{APIKey: "secret", BaseURL: ts.URL + "/", Language: "nl-NL"})
	item, err := client.Search(context.Background(), "The Matrix", naming.MediaKindMovie)
	require.NoError(t, err)
	require.NotNil(t, item)

	assert.Equal(t, "/search/movie", gotPath)
	assert.Equal(t, "secret", gotQuery["api_key"])
	assert.Equal(t, "The Matrix", gotQuery["query"])
	assert.Equal(t, "false", gotQuery["include_adult"])
	assert.Equal(t, "nl-NL", gotQuery["language"])

	assert.Equal(t, &resolver.Item{ID: 603, Title: "The Matrix", OriginalTitle: "The Matrix", Year: "1999"}, item)
}

func TestSearch_SeriesUsesTVEndpointAndName(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"page":1,"results":[{"id":1396,"name":"Breaking Bad","original_name":"Breaking Bad","first_air_date":"2008-01-20"}]}`))
	}))
	defer ts.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: ts.URL})
	item, err := client.Search(context.Background(), "Breaking Bad", naming.MediaKindSeries)
	require.NoError(t, err)

	assert.Equal(t, "/search/tv", gotPath)
	assert.Equal(t, "Breaking Bad", item.Title)
	assert.Equal(t, "2008", item.Year)
}

func TestSearch_EmptyResultsIsNil(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"page":1,"results":[]}`))
	}))
	defer ts.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: ts.URL})
	item, err := client.Search(context.Background(), "Nothing", naming.MediaKindMovie)
	require.NoError(t, err)
	assert.Nil(t, item)
}

func TestSearch_HTTPErrorIncludesStatusMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status_code":7,"status_message":"Invalid API key"}`))
	}))
	defer ts.Close()

	client := NewClient(Config{APIKey: "bad", BaseURL: ts.URL})
	_, err := client.SearchMovie(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid API key")
	assert.Contains(t, err.Error(), "401")
}

func TestSearch_RequiresKeyAndQuery(t *testing.T) {
	client := NewClient(Config{})
	_, err := client.SearchMovie(context.Background(), "x")
	assert.Error(t, err)

	client = NewClient(Config{APIKey: "k"})
	_, err = client.SearchTV(context.Background(), "   ")
	assert.Error(t, err)
}

func TestSearch_InvalidKind(t *testing.T) {
	client := NewClient(Config{APIKey: "k"})
	_, err := client.Search(context.Background(), "x", naming.MediaKind(5))
	assert.ErrorIs(t, err, naming.ErrUnknownMediaKind)
}

func TestPing(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/configuration" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: ts.URL})
	assert.NoError(t, client.Ping(context.Background()))
}

func TestItemURL(t *testing.T) {
	assert.Equal(t, "https://www.themoviedb.org/movie/603", ItemURL(naming.MediaKindMovie, 603))
	assert.Equal(t, "https://www.themoviedb.org/tv/1396", ItemURL(naming.MediaKindSeries, 1396))
	assert.Empty(t, ItemURL(naming.MediaKind(3), 1))
}

func TestResolveThroughClient(t *testing.T) {
	var queries []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("query")
		queries = append(queries, q)
		if q == "Dune Part Two" {
			_, _ = w.Write([]byte(`{"results":[{"id":693134,"title":"Dune: Part Two","release_date":"2024-02-27"}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer ts.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: ts.URL})
	title := naming.Normalize("Dune.Part.Two.IMAX.2024.1080p.WEB-DL.mkv")
	result, err := resolver.Resolve(context.Background(), title, naming.MediaKindMovie, client)
	require.NoError(t, err)

	assert.True(t, result.Found)
	assert.Equal(t, "Dune Part Two", result.MatchedQuery)
	assert.Equal(t, []string{"Dune Part Two IMAX", "Dune Part Two"}, queries)
}
