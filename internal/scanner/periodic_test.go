package scanner

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Nomadcxx/jellyscout/internal/logging"
	"github.com/Nomadcxx/jellyscout/internal/naming"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodicScanner_IsHealthy_DefaultTrue(t *testing.T) {
	s := NewPeriodicScanner(PeriodicConfig{})
	assert.True(t, s.IsHealthy())
}

func TestPeriodicScanner_Status_ReturnsCorrectState(t *testing.T) {
	now := time.Now()
	s := &PeriodicScanner{
		healthy:      true,
		lastScan:     now,
		lastSuccess:  now,
		skippedTicks: 5,
		roots:        []Root{{Path: "/media/movies"}},
	}

	status := s.Status()
	assert.True(t, status.Healthy)
	assert.Equal(t, int64(5), status.SkippedTicks)
	assert.False(t, status.Scanning)
	assert.Equal(t, 1, status.Roots)
}

func TestPeriodicScanner_SkipsWhenBusy(t *testing.T) {
	s := &PeriodicScanner{
		scanning: true,
		logger:   logging.Nop(),
	}

	s.tick(context.Background())
	assert.Equal(t, int64(1), s.skippedTicks)
}

func TestPeriodicScanner_StartRejectsZeroInterval(t *testing.T) {
	s := NewPeriodicScanner(PeriodicConfig{})
	assert.Error(t, s.Start(context.Background()))
}

func TestPeriodicScanner_StartStopsOnContextCancel(t *testing.T) {
	s := NewPeriodicScanner(PeriodicConfig{
		Interval: 100 * time.Millisecond,
		Logger:   logging.Nop(),
	})

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)

	var startErr error
	go func() {
		defer wg.Done()
		startErr = s.Start(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	wg.Wait()

	assert.NoError(t, startErr, "expected nil error on clean shutdown")
}

func TestPeriodicScanner_TickScansAllRoots(t *testing.T) {
	movies := movieTree(t)
	tv := seriesTree(t)

	lookup := movieLookup()
	for k, v := range seriesLookup().items {
		lookup.items[k] = v
	}
	sc, _, rec := newTestScanner(t, lookup, false)

	s := NewPeriodicScanner(PeriodicConfig{
		Interval: time.Hour,
		Roots: []Root{
			{Path: movies, Kind: naming.MediaKindMovie},
			{Path: tv, Kind: naming.MediaKindSeries},
		},
		Scanner: sc,
	})

	s.tick(context.Background())

	status := s.Status()
	assert.True(t, status.Healthy)
	assert.False(t, status.LastSuccess.IsZero())
	assert.Equal(t, 7, status.LastNew)
	assert.Equal(t, 7, status.LastAnnounced)
	assert.Len(t, rec.events, 7)
}

func TestPeriodicScanner_ScanRootFailureMarksUnhealthy(t *testing.T) {
	sc, _, _ := newTestScanner(t, movieLookup(), false)
	s := NewPeriodicScanner(PeriodicConfig{Interval: time.Hour, Scanner: sc})

	err := s.ScanRoot(context.Background(), Root{Path: filepath.Join(t.TempDir(), "gone"), Kind: naming.MediaKindMovie})
	require.Error(t, err)

	status := s.Status()
	assert.False(t, status.Healthy)
	assert.Contains(t, status.LastError, "gone")
}
