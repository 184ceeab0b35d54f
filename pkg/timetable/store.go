package timetable

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// Loader produces a complete timetable snapshot from some source
type Loader interface {
	Load(ctx context.Context) (*Snapshot, error)
}

type LoaderFunc func(ctx context.Context) (*Snapshot, error)

func (f LoaderFunc) Load(ctx context.Context) (*Snapshot, error) {
	return f(ctx)
}

// Store holds the current snapshot. Reloads swap the whole snapshot so
// searches already running keep a consistent view.
type Store struct {
	current atomic.Pointer[Snapshot]
}

func NewStore(snapshot *Snapshot) *Store {
	store := &Store{}
	store.current.Store(snapshot)
	return store
}

func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// Swap installs a new snapshot and returns the previous one
func (s *Store) Swap(snapshot *Snapshot) *Snapshot {
	return s.current.Swap(snapshot)
}

// Reload loads a fresh snapshot and swaps it in. The current snapshot is kept on error.
func (s *Store) Reload(ctx context.Context, loader Loader) error {
	startTime := time.Now()

	snapshot, err := loader.Load(ctx)
	if err != nil {
		return err
	}

	previous := s.Swap(snapshot)

	logger := log.Info().
		Str("version", snapshot.Version()).
		Int("stations", snapshot.StationCount()).
		Int("runs", len(snapshot.Runs())).
		Str("latency", time.Since(startTime).String())
	if previous != nil {
		logger = logger.Str("previous", previous.Version())
	}
	logger.Msg("Timetable snapshot loaded")

	return nil
}

// Refresh reloads the timetable every interval until ctx is cancelled
func (s *Store) Refresh(ctx context.Context, loader Loader, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Reload(ctx, loader); err != nil {
				log.Error().Err(err).Msg("Failed to refresh timetable, keeping previous snapshot")
			}
		}
	}
}
