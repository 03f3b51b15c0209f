package leaderboard

import (
	"context"
	"sort"
	"strings"
	"time"

	"geoquiz/internal/domain"
)

const (
	// MaxEntries caps the persisted top list.
	MaxEntries = 10
	// MaxNameLen caps submitted names, counted in runes.
	MaxNameLen = 10
)

// Store persists the top list and the weekly reset marker. Implementations
// must treat unparsable stored data as absent, never as an error the caller
// sees.
type Store interface {
	Load(ctx context.Context) ([]domain.LeaderboardEntry, error)
	Save(ctx context.Context, entries []domain.LeaderboardEntry) error
	LastReset(ctx context.Context) (time.Time, bool, error)
	SetLastReset(ctx context.Context, t time.Time) error
}

// Service implements the leaderboard decisions (high-score check, submit,
// weekly reset) over any Store.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return NewServiceWithClock(store, time.Now)
}

// NewServiceWithClock is test-only for deterministic boundaries.
func NewServiceWithClock(store Store, now func() time.Time) *Service {
	return &Service{store: store, now: now}
}

// Entries runs the weekly reset check and returns the current top list.
// Store failures degrade to an empty list.
func (s *Service) Entries(ctx context.Context) []domain.LeaderboardEntry {
	_ = s.CheckWeeklyReset(ctx)
	entries, err := s.store.Load(ctx)
	if err != nil {
		return nil
	}
	return entries
}

// CheckWeeklyReset clears all entries when the stored reset marker predates
// the most recent Monday 00:00 local time, then stamps the marker with now.
func (s *Service) CheckWeeklyReset(ctx context.Context) error {
	boundary := lastMonday(s.now())

	last, ok, err := s.store.LastReset(ctx)
	if err != nil {
		return err
	}
	if ok && !last.Before(boundary) {
		return nil
	}
	if err := s.store.Save(ctx, nil); err != nil {
		return err
	}
	return s.store.SetLastReset(ctx, s.now())
}

// IsHighScore reports whether score would earn a spot on the board. Scores
// of zero or less never qualify.
func (s *Service) IsHighScore(ctx context.Context, score int) bool {
	if score <= 0 {
		return false
	}
	entries, err := s.store.Load(ctx)
	if err != nil {
		return true
	}
	if len(entries) < MaxEntries {
		return true
	}
	return score > entries[len(entries)-1].Score
}

// Submit appends a new entry, re-sorts descending by score (stable, so an
// equal new score ranks below existing ones), truncates to the cap, and
// persists. The resulting list is returned.
func (s *Service) Submit(ctx context.Context, name string, score int) ([]domain.LeaderboardEntry, error) {
	_ = s.CheckWeeklyReset(ctx)

	entries, err := s.store.Load(ctx)
	if err != nil {
		entries = nil
	}

	name = strings.TrimSpace(name)
	// Truncate by runes so multibyte names are never cut mid-character.
	if r := []rune(name); len(r) > MaxNameLen {
		name = string(r[:MaxNameLen])
	}
	entries = append(entries, domain.LeaderboardEntry{
		Name:      name,
		Score:     score,
		Timestamp: s.now().UnixMilli(),
	})

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	if len(entries) > MaxEntries {
		entries = entries[:MaxEntries]
	}

	if err := s.store.Save(ctx, entries); err != nil {
		return entries, err
	}
	return entries, nil
}

// lastMonday returns the most recent Monday 00:00 in t's location.
func lastMonday(t time.Time) time.Time {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(t.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	return midnight.AddDate(0, 0, -offset)
}
