package memory

import (
	"context"
	"sync"
	"time"

	"geoquiz/internal/domain"
)

// LeaderboardStore is an in-memory leaderboard.Store for tests and
// single-process runs without Redis.
type LeaderboardStore struct {
	mu        sync.RWMutex
	entries   []domain.LeaderboardEntry
	lastReset time.Time
	hasReset  bool
}

func NewLeaderboardStore() *LeaderboardStore {
	return &LeaderboardStore{}
}

func (s *LeaderboardStore) Load(_ context.Context) ([]domain.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.LeaderboardEntry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

func (s *LeaderboardStore) Save(_ context.Context, entries []domain.LeaderboardEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make([]domain.LeaderboardEntry, len(entries))
	copy(s.entries, entries)
	return nil
}

func (s *LeaderboardStore) LastReset(_ context.Context) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastReset, s.hasReset, nil
}

func (s *LeaderboardStore) SetLastReset(_ context.Context, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastReset = t
	s.hasReset = true
	return nil
}
