package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Nomadcxx/jellyscout/internal/database"
	"github.com/Nomadcxx/jellyscout/internal/logging"
	"github.com/Nomadcxx/jellyscout/internal/naming"
	"github.com/Nomadcxx/jellyscout/internal/resolver"
	"github.com/Nomadcxx/jellyscout/internal/scanner"
	"github.com/Nomadcxx/jellyscout/internal/tmdb"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ServerConfig holds the dependencies of the HTTP API. Scanner and Lookup
// may be nil; the endpoints needing them then answer 503.
type ServerConfig struct {
	Addr    string
	Scanner *scanner.PeriodicScanner
	Store   *database.Store
	Lookup  resolver.Lookup
	Logger  *logging.Logger
}

type Server struct {
	httpServer *http.Server
	scanner    *scanner.PeriodicScanner
	store      *database.Store
	lookup     resolver.Lookup
	startTime  time.Time
	mu         sync.RWMutex
	healthy    bool
	logger     *logging.Logger
}

type HealthResponse struct {
	Status        string                 `json:"status"`
	Uptime        string                 `json:"uptime"`
	Timestamp     time.Time              `json:"timestamp"`
	ScannerStatus *scanner.ScannerStatus `json:"scanner,omitempty"`
}

type StatusResponse struct {
	HealthResponse
	Seen       map[string]int `json:"seen"`
	RecentRuns []RunResponse  `json:"recent_runs"`
}

type RunResponse struct {
	ID         string    `json:"id"`
	Root       string    `json:"root"`
	Kind       string    `json:"kind"`
	Status     string    `json:"status"`
	DryRun     bool      `json:"dry_run"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	New        int       `json:"new"`
	Matched    int       `json:"matched"`
	Unmatched  int       `json:"unmatched"`
	Error      string    `json:"error,omitempty"`
}

type NormalizeResponse struct {
	Name       string   `json:"name"`
	Title      string   `json:"title"`
	Candidates []string `json:"candidates,omitempty"`
}

type SeasonResponse struct {
	Name   string `json:"name"`
	Season int    `json:"season"`
	Found  bool   `json:"found"`
}

type ResolveResponse struct {
	Name    string               `json:"name"`
	Title   string               `json:"title"`
	Outcome string               `json:"outcome"`
	URL     string               `json:"url,omitempty"`
	Result  resolver.MatchResult `json:"result"`
}

type SeenResponse struct {
	Path   string    `json:"path"`
	Kind   string    `json:"kind"`
	Title  string    `json:"title,omitempty"`
	TMDbID int64     `json:"tmdb_id,omitempty"`
	Season *int      `json:"season,omitempty"`
	SeenAt time.Time `json:"seen_at"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewServer(cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	s := &Server{
		scanner:   cfg.Scanner,
		store:     cfg.Store,
		lookup:    cfg.Lookup,
		startTime: time.Now(),
		healthy:   true,
		logger:    logger,
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the router
func (s *Server) Handler() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Get("/status", s.handleStatus)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.SetHeader("Content-Type", "application/json"))
		r.Get("/normalize", s.handleNormalize)
		r.Get("/candidates", s.handleCandidates)
		r.Get("/season", s.handleSeason)
		r.Get("/resolve", s.handleResolve)
		r.Get("/seen", s.handleSeen)
	})

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("server", "Request",
			logging.F("method", r.Method),
			logging.F("path", r.URL.Path),
			logging.F("status", ww.Status()),
			logging.F("duration_ms", time.Since(start).Milliseconds()),
			logging.F("request_id", middleware.GetReqID(r.Context())))
	})
}

func (s *Server) Start() error {
	s.logger.Info("server", "HTTP server starting", logging.F("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) SetHealthy(healthy bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthy = healthy
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) health() (HealthResponse, int) {
	s.mu.RLock()
	healthy := s.healthy
	s.mu.RUnlock()

	scannerHealthy := true
	var scannerStatus *scanner.ScannerStatus
	if s.scanner != nil {
		status := s.scanner.Status()
		scannerHealthy = status.Healthy
		scannerStatus = &status
	}

	response := HealthResponse{
		Uptime:        time.Since(s.startTime).Round(time.Second).String(),
		Timestamp:     time.Now(),
		ScannerStatus: scannerStatus,
	}

	switch {
	case healthy && scannerHealthy:
		response.Status = "healthy"
		return response, http.StatusOK
	case healthy:
		// degraded but still serving
		response.Status = "degraded"
		return response, http.StatusOK
	default:
		response.Status = "unhealthy"
		return response, http.StatusServiceUnavailable
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response, code := s.health()
	writeJSON(w, code, response)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	healthy := s.healthy
	s.mu.RUnlock()

	if healthy {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("not ready"))
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	health, code := s.health()
	response := StatusResponse{
		HealthResponse: health,
		Seen:           map[string]int{},
		RecentRuns:     []RunResponse{},
	}

	if s.store != nil {
		counts, err := s.store.CountSeen()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		for kind, n := range counts {
			response.Seen[kind.String()] = n
		}

		runs, err := s.store.RecentScanRuns(10)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		for _, run := range runs {
			response.RecentRuns = append(response.RecentRuns, RunResponse{
				ID:         run.ID,
				Root:       run.Root,
				Kind:       run.Kind.String(),
				Status:     run.Status,
				DryRun:     run.DryRun,
				StartedAt:  run.StartedAt,
				FinishedAt: run.FinishedAt,
				New:        run.New,
				Matched:    run.Matched,
				Unmatched:  run.Unmatched,
				Error:      run.Error,
			})
		}
	}

	writeJSON(w, code, response)
}

// names returns every non-empty ?name= value
func names(r *http.Request) []string {
	var out []string
	for _, n := range r.URL.Query()["name"] {
		if strings.TrimSpace(n) != "" {
			out = append(out, n)
		}
	}
	return out
}

func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	list := names(r)
	if len(list) == 0 {
		writeError(w, http.StatusBadRequest, "missing name parameter")
		return
	}

	response := make([]NormalizeResponse, 0, len(list))
	for _, name := range list {
		response = append(response, NormalizeResponse{Name: name, Title: naming.Normalize(name)})
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleCandidates(w http.ResponseWriter, r *http.Request) {
	list := names(r)
	if len(list) == 0 {
		writeError(w, http.StatusBadRequest, "missing name parameter")
		return
	}

	response := make([]NormalizeResponse, 0, len(list))
	for _, name := range list {
		title := naming.Normalize(name)
		response = append(response, NormalizeResponse{
			Name:       name,
			Title:      title,
			Candidates: naming.Expand(title),
		})
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleSeason(w http.ResponseWriter, r *http.Request) {
	list := names(r)
	if len(list) == 0 {
		writeError(w, http.StatusBadRequest, "missing name parameter")
		return
	}

	response := make([]SeasonResponse, 0, len(list))
	for _, name := range list {
		season, ok := naming.ExtractSeason(name)
		response = append(response, SeasonResponse{Name: name, Season: season, Found: ok})
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	if s.lookup == nil {
		writeError(w, http.StatusServiceUnavailable, "no lookup configured")
		return
	}

	name := r.URL.Query().Get("name")
	if strings.TrimSpace(name) == "" {
		writeError(w, http.StatusBadRequest, "missing name parameter")
		return
	}
	kind := naming.MediaKindMovie
	if k := r.URL.Query().Get("kind"); k != "" {
		parsed, err := naming.ParseMediaKind(k)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		kind = parsed
	}

	title := naming.Normalize(name)
	result, err := resolver.Resolve(r.Context(), title, kind, s.lookup)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response := ResolveResponse{
		Name:    name,
		Title:   title,
		Outcome: result.Outcome().String(),
		Result:  result,
	}
	if result.Found {
		response.URL = tmdb.ItemURL(kind, result.Item.ID)
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleSeen(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "no database configured")
		return
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	items, err := s.store.ListSeen(r.URL.Query().Get("kind"), limit)
	if errors.Is(err, naming.ErrUnknownMediaKind) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response := make([]SeenResponse, 0, len(items))
	for _, item := range items {
		entry := SeenResponse{
			Path:   item.Path,
			Kind:   item.Kind.String(),
			Title:  item.Title,
			TMDbID: item.TMDbID,
			SeenAt: item.SeenAt,
		}
		if item.HasSeason {
			season := item.Season
			entry.Season = &season
		}
		response = append(response, entry)
	}
	writeJSON(w, http.StatusOK, response)
}
