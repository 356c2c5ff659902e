// Package notify announces scan results to chat services such as Telegram.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Nomadcxx/jellyscout/internal/logging"
	"github.com/Nomadcxx/jellyscout/internal/naming"
)

// EventType is what happened to a scanned entry
type EventType int

const (
	EventMovieAdded EventType = iota
	EventSeasonAdded
	EventSeriesAdded
	EventNoMatch
)

func (e EventType) String() string {
	switch e {
	case EventMovieAdded:
		return "movie_added"
	case EventSeasonAdded:
		return "season_added"
	case EventSeriesAdded:
		return "series_added"
	case EventNoMatch:
		return "no_match"
	default:
		return "unknown"
	}
}

// Event describes one newly seen entry. Title, TMDbID and URL are empty for
// EventNoMatch; Query then holds the normalized name that was searched.
type Event struct {
	Type      EventType
	Kind      naming.MediaKind
	Path      string
	Title     string
	Query     string
	TMDbID    int64
	URL       string
	Season    int
	HasSeason bool
}

// NotifyResult represents the result of a notification attempt
type NotifyResult struct {
	Service   string
	Success   bool
	MessageID int64
	Error     error
	Duration  time.Duration
}

// ErrNoResult is recorded when a notifier returns a nil result
var ErrNoResult = errors.New("notifier returned no result")

// Notifier is the interface that notification providers must implement
type Notifier interface {
	// Name returns the name of the notification service
	Name() string

	// Notify sends a message about the event
	Notify(ctx context.Context, event Event) *NotifyResult

	// Ping checks if the service is reachable
	Ping(ctx context.Context) error

	// Enabled returns whether this notifier is enabled
	Enabled() bool
}

// Manager handles multiple notification providers
type Manager struct {
	notifiers []Notifier
	mu        sync.RWMutex
	async     bool
	results   chan *NotifyResult
	pending   sync.WaitGroup
	logger    *logging.Logger
}

// NewManager creates a new notification manager
func NewManager(async bool, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.Nop()
	}
	m := &Manager{
		notifiers: make([]Notifier, 0),
		async:     async,
		logger:    logger,
	}
	if async {
		m.results = make(chan *NotifyResult, 100)
	}
	return m
}

// Register adds a notifier to the manager; disabled notifiers are ignored
func (m *Manager) Register(n Notifier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n.Enabled() {
		m.notifiers = append(m.notifiers, n)
		m.logger.Info("notify", "Registered notifier", logging.F("name", n.Name()))
	}
}

// Notify sends the event to all registered providers. In async mode it
// returns nil immediately; results arrive on Results().
func (m *Manager) Notify(ctx context.Context, event Event) []*NotifyResult {
	m.mu.RLock()
	notifiers := make([]Notifier, len(m.notifiers))
	copy(notifiers, m.notifiers)
	m.mu.RUnlock()

	if len(notifiers) == 0 {
		return nil
	}

	if m.async {
		m.pending.Add(1)
		go func() {
			defer m.pending.Done()
			m.notifyAsync(context.WithoutCancel(ctx), notifiers, event)
		}()
		return nil
	}

	return m.notifySync(ctx, notifiers, event)
}

func (m *Manager) notifySync(ctx context.Context, notifiers []Notifier, event Event) []*NotifyResult {
	results := make([]*NotifyResult, 0, len(notifiers))

	for _, n := range notifiers {
		result := m.send(ctx, n, event)
		results = append(results, result)
	}

	return results
}

func (m *Manager) notifyAsync(ctx context.Context, notifiers []Notifier, event Event) {
	var wg sync.WaitGroup

	for _, n := range notifiers {
		wg.Add(1)
		go func(notifier Notifier) {
			defer wg.Done()

			result := m.send(ctx, notifier, event)
			select {
			case m.results <- result:
			default:
				m.logger.Warn("notify", "Result channel full, discarding", logging.F("name", notifier.Name()))
			}
		}(n)
	}

	wg.Wait()
}

// send delivers one event and logs the outcome. A nil result from the
// notifier becomes a failed result carrying ErrNoResult.
func (m *Manager) send(ctx context.Context, n Notifier, event Event) *NotifyResult {
	result := n.Notify(ctx, event)
	if result == nil {
		result = &NotifyResult{Service: n.Name(), Error: ErrNoResult}
	}
	m.logResult(n.Name(), event, result)
	return result
}

func (m *Manager) logResult(name string, event Event, result *NotifyResult) {
	if result == nil {
		return
	}
	if result.Success {
		m.logger.Info("notify", "Notification sent",
			logging.F("name", name),
			logging.F("event", event.Type.String()),
			logging.F("path", event.Path))
		return
	}
	m.logger.Error("notify", "Notification failed", result.Error,
		logging.F("name", name),
		logging.F("event", event.Type.String()),
		logging.F("path", event.Path))
}

// Results returns the async results channel (nil if sync mode)
func (m *Manager) Results() <-chan *NotifyResult {
	return m.results
}

// Drain hands every async result to fn until ctx is done or Close has
// released the channel. It returns at once in sync mode.
func (m *Manager) Drain(ctx context.Context, fn func(*NotifyResult)) {
	if m.results == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case result, ok := <-m.results:
			if !ok {
				return
			}
			if fn != nil {
				fn(result)
			}
		}
	}
}

// Async reports whether Notify delivers in the background
func (m *Manager) Async() bool {
	return m.async
}

// PingAll checks connectivity to all registered notifiers
func (m *Manager) PingAll(ctx context.Context) map[string]error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make(map[string]error)
	for _, n := range m.notifiers {
		results[n.Name()] = n.Ping(ctx)
	}
	return results
}

// NotifierCount returns the number of registered notifiers
func (m *Manager) NotifierCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.notifiers)
}

// Wait blocks until every async notification has been delivered or failed
func (m *Manager) Wait() {
	m.pending.Wait()
}

// Close waits for pending notifications and releases the results channel
func (m *Manager) Close() {
	m.pending.Wait()
	if m.results != nil {
		close(m.results)
	}
}
