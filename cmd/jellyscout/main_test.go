package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/Nomadcxx/jellyscout/internal/paths"
	"github.com/Nomadcxx/jellyscout/internal/scanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns everything it printed
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// isolate points the app directory at a fresh temp dir
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv(paths.HomeEnv, home)
	t.Setenv("JELLYSCOUT_TMDB_API_KEY", "")
	return home
}

func writeConfig(t *testing.T, home, body string) string {
	t.Helper()
	path := filepath.Join(home, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func fakeTMDb(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/search/movie" && r.URL.Query().Get("query") == "Heat" {
			fmt.Fprint(w, `{"page":1,"results":[{"id":949,"title":"Heat","release_date":"1995-12-15"}]}`)
			return
		}
		fmt.Fprint(w, `{"page":1,"results":[]}`)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "jellyscout dev\n", out)
}

func TestNormalizeCmd(t *testing.T) {
	out, err := execute(t, "normalize", "Show.Name.S01.1080p.BluRay.x264-GROUP")
	require.NoError(t, err)
	assert.Equal(t, "Show Name\n", out)

	out, err = execute(t, "normalize", "Movie Title (2020) [YTS.MX].mkv", "Heat.1995.1080p.mkv")
	require.NoError(t, err)
	assert.Contains(t, out, "│ Movie Title ")
	assert.Contains(t, out, "│ Heat ")
}

func TestCandidatesCmd(t *testing.T) {
	out, err := execute(t, "candidates", "Movie.Title.Extended.Cut.2019.1080p.mkv")
	require.NoError(t, err)
	assert.Equal(t, "Movie Title Extended Cut\nMovie Title Extended\nMovie Title\nMovie\n", out)

	out, err = execute(t, "candidates", "--raw", "Heat.1995")
	require.NoError(t, err)
	assert.Equal(t, "Heat.1995\n", out)
}

func TestSeasonCmd(t *testing.T) {
	out, err := execute(t, "season", "Season 2", "/tv/Show/S05", "Extras")
	require.NoError(t, err)
	assert.Regexp(t, `Season 2\s+2\n`, out)
	assert.Regexp(t, `/tv/Show/S05\s+5\n`, out)
	assert.Regexp(t, `Extras\s+none\n`, out)
}

func TestConfigInitShowCheck(t *testing.T) {
	home := isolate(t)

	out, err := execute(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(home, "config.toml"))

	_, err = execute(t, "config", "init")
	assert.ErrorContains(t, err, "already exists")

	_, err = execute(t, "config", "check")
	assert.ErrorContains(t, err, "api_key")

	writeConfig(t, home, "[tmdb]\napi_key = \"abcdef123456\"\n")
	out, err = execute(t, "config", "show")
	require.NoError(t, err)
	assert.NotContains(t, out, "abcdef123456")
	assert.Contains(t, out, "3456")

	out, err = execute(t, "config", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "valid")
}

func TestConfigPath(t *testing.T) {
	home := isolate(t)

	out, err := execute(t, "config", "path", "--db", "/data/seen.db")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(home, "config.toml"))
	assert.Contains(t, out, "/data/seen.db.lock")
}

func TestScanEndToEnd(t *testing.T) {
	home := isolate(t)
	server := fakeTMDb(t)
	writeConfig(t, home, fmt.Sprintf("[tmdb]\napi_key = \"k\"\nbase_url = %q\n", server.URL))

	movies := t.TempDir()
	heat := filepath.Join(movies, "Heat.1995.1080p.mkv")
	require.NoError(t, os.WriteFile(heat, nil, 0644))

	out, err := execute(t, "scan", movies)
	require.NoError(t, err)
	assert.Contains(t, out, "Heat (1995)")
	assert.Contains(t, out, "new 1, matched 1")

	out, err = execute(t, "scan", movies)
	require.NoError(t, err)
	assert.Contains(t, out, "new 0")

	out, err = execute(t, "seen", "count")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`movie\s+1\n`), out)

	out, err = execute(t, "seen", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Heat")

	out, err = execute(t, "seen", "runs")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "completed"))

	out, err = execute(t, "seen", "forget", heat)
	require.NoError(t, err)
	assert.Contains(t, out, "Forgot")

	out, err = execute(t, "seen", "forget", heat)
	require.NoError(t, err)
	assert.Contains(t, out, "was not recorded")
}

func TestScanJSONDryRun(t *testing.T) {
	home := isolate(t)
	server := fakeTMDb(t)
	writeConfig(t, home, fmt.Sprintf("[tmdb]\napi_key = \"k\"\nbase_url = %q\n[logging]\nlevel = \"error\"\n", server.URL))

	movies := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(movies, "Heat.1995.1080p.mkv"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(movies, "Unknown.Film.2001.mkv"), nil, 0644))

	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"scan", "--dry-run", "--json", movies})
	require.NoError(t, cmd.Execute())

	var summaries []scanner.Summary
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &summaries))
	require.Len(t, summaries, 1)
	assert.True(t, summaries[0].DryRun)
	assert.Equal(t, 2, summaries[0].New)
	assert.Equal(t, 1, summaries[0].Matched)
	assert.Equal(t, 1, summaries[0].Unmatched)

	out, err := execute(t, "seen", "count")
	require.NoError(t, err)
	assert.Regexp(t, `total\s+0\n`, out)
}

func TestScanErrors(t *testing.T) {
	home := isolate(t)

	_, err := execute(t, "scan", t.TempDir())
	assert.ErrorContains(t, err, "api_key")

	writeConfig(t, home, "[tmdb]\napi_key = \"k\"\n")

	_, err = execute(t, "scan", "--all")
	assert.ErrorContains(t, err, "no scan folders configured")

	_, err = execute(t, "scan", "--type", "music", t.TempDir())
	assert.ErrorContains(t, err, "unknown media kind")

	_, err = execute(t, "scan")
	assert.Error(t, err)
}

func TestResolveCmd(t *testing.T) {
	home := isolate(t)
	server := fakeTMDb(t)
	writeConfig(t, home, fmt.Sprintf("[tmdb]\napi_key = \"k\"\nbase_url = %q\n", server.URL))

	out, err := execute(t, "resolve", "--no-cache", "Heat.Directors.Cut.1995.mkv")
	require.NoError(t, err)
	assert.Contains(t, out, "Title: Heat Directors Cut")
	assert.Contains(t, out, "Match: Heat (1995)")
	assert.Contains(t, out, "https://www.themoviedb.org/movie/949")

	out, err = execute(t, "resolve", "Unknown.Film.2001")
	require.NoError(t, err)
	assert.Contains(t, out, "no match after 2 queries")
}

// sentMessages collects sendMessage payloads received by the fake Bot API
type sentMessages struct {
	mu       sync.Mutex
	payloads []map[string]any
}

func (s *sentMessages) add(payload map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = append(s.payloads, payload)
}

func (s *sentMessages) all() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]any(nil), s.payloads...)
}

func fakeTelegram(t *testing.T, sent *sentMessages) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			fmt.Fprint(w, `{"ok":true,"result":[
				{"update_id":1,"message":{"message_id":1,"chat":{"id":42,"type":"private","username":"alice"}}},
				{"update_id":2,"channel_post":{"message_id":2,"chat":{"id":-100123,"type":"channel","title":"New on Jellyfin"}}},
				{"update_id":3,"message":{"message_id":3,"chat":{"id":42,"type":"private","username":"alice"}}}
			]}`)
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			fmt.Fprint(w, `{"ok":true,"result":{"id":7,"username":"scout_bot"}}`)
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			var payload map[string]any
			_ = json.NewDecoder(r.Body).Decode(&payload)
			sent.add(payload)
			fmt.Fprint(w, `{"ok":true,"result":{"message_id":99,"chat":{"id":42,"type":"private"}}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"ok":false,"error_code":404,"description":"Not Found"}`)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestTelegramChats(t *testing.T) {
	home := isolate(t)
	sent := &sentMessages{}
	server := fakeTelegram(t, sent)

	_, err := execute(t, "telegram", "chats")
	assert.ErrorContains(t, err, "bot_token")

	writeConfig(t, home, fmt.Sprintf("[telegram]\nbot_token = \"123:abc\"\napi_url = %q\n", server.URL))
	out, err := execute(t, "telegram", "chats")
	require.NoError(t, err)
	assert.Regexp(t, `42\s+private\s+@alice\n`, out)
	assert.Regexp(t, `-100123\s+channel\s+New on Jellyfin\n`, out)
	assert.Equal(t, 1, strings.Count(out, "@alice"))
}

func TestTelegramTest(t *testing.T) {
	home := isolate(t)
	sent := &sentMessages{}
	server := fakeTelegram(t, sent)

	writeConfig(t, home, fmt.Sprintf("[telegram]\nbot_token = \"123:abc\"\napi_url = %q\n", server.URL))
	_, err := execute(t, "telegram", "test")
	assert.ErrorContains(t, err, "chat_id")

	writeConfig(t, home, fmt.Sprintf("[telegram]\nbot_token = \"123:abc\"\nchat_id = \"42\"\napi_url = %q\n", server.URL))
	out, err := execute(t, "telegram", "test", "-m", "hello")
	require.NoError(t, err)
	assert.Contains(t, out, "Sent message 99")
	payloads := sent.all()
	require.Len(t, payloads, 1)
	assert.Equal(t, "hello", payloads[0]["text"])
	assert.Equal(t, "42", payloads[0]["chat_id"])
}
