package redis

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"geoquiz/internal/domain"
	"github.com/redis/go-redis/v9"
)

// LeaderboardStore persists the top list as a JSON array under one key and
// the weekly reset marker as epoch milliseconds under another. Unparsable
// stored data reads as empty; corruption never surfaces.
type LeaderboardStore struct {
	client *redis.Client
	prefix string
}

func NewLeaderboardStore(client *redis.Client, prefix string) *LeaderboardStore {
	if prefix == "" {
		prefix = "geoquiz"
	}
	return &LeaderboardStore{client: client, prefix: prefix}
}

func (s *LeaderboardStore) Load(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	raw, err := s.client.Get(ctx, s.entriesKey()).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var entries []domain.LeaderboardEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, nil
	}
	return entries, nil
}

func (s *LeaderboardStore) Save(ctx context.Context, entries []domain.LeaderboardEntry) error {
	if len(entries) == 0 {
		return s.client.Del(ctx, s.entriesKey()).Err()
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.entriesKey(), raw, 0).Err()
}

func (s *LeaderboardStore) LastReset(ctx context.Context) (time.Time, bool, error) {
	raw, err := s.client.Get(ctx, s.resetKey()).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false, nil
	}
	return time.UnixMilli(ms), true, nil
}

func (s *LeaderboardStore) SetLastReset(ctx context.Context, t time.Time) error {
	return s.client.Set(ctx, s.resetKey(), strconv.FormatInt(t.UnixMilli(), 10), 0).Err()
}

func (s *LeaderboardStore) entriesKey() string {
	return s.prefix + ":leaderboard:top"
}

func (s *LeaderboardStore) resetKey() string {
	return s.prefix + ":leaderboard:last_reset"
}
