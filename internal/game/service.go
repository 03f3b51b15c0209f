package game

import (
	"context"

	"geoquiz/internal/domain"
)

// SessionRepository abstracts how game sessions are stored (in-memory,
// redis-backed, etc). Sessions are keyed by player ID.
type SessionRepository interface {
	GetOrCreate(playerID string, create func() *Session) *Session
	Get(playerID string) (*Session, bool)
	DeleteIfIdle(playerID string)
}

// BankRepository loads the question bank (from cache/backing store).
type BankRepository interface {
	GetBank(ctx context.Context, bankID string) (domain.Bank, error)
}

// LeaderboardService is the slice of the leaderboard the game core needs.
type LeaderboardService interface {
	HighScoreJudge
	Entries(ctx context.Context) []domain.LeaderboardEntry
	Submit(ctx context.Context, name string, score int) ([]domain.LeaderboardEntry, error)
}

// Service contains the game use cases: it owns session creation and routes
// presentation intents into the state machine.
type Service struct {
	sessions    SessionRepository
	banks       BankRepository
	leaderboard LeaderboardService
	bankID      string
	cfg         Config
}

func NewService(sessions SessionRepository, banks BankRepository, leaderboard LeaderboardService, bankID string, cfg Config) *Service {
	return &Service{
		sessions:    sessions,
		banks:       banks,
		leaderboard: leaderboard,
		bankID:      bankID,
		cfg:         cfg,
	}
}

// Join attaches a player, creating a fresh session at the start screen if
// none exists. The bank is loaded up front; players cannot join without one.
func (s *Service) Join(ctx context.Context, playerID string) (domain.Snapshot, error) {
	bank, err := s.banks.GetBank(ctx, s.bankID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	session := s.sessions.GetOrCreate(playerID, func() *Session {
		return NewSession(playerID, bank.Questions, s.cfg, s.leaderboard, nil)
	})
	return session.Snapshot(), nil
}

// Subscribe returns a channel that receives a snapshot after every state
// change. The caller must invoke the returned cancel function to avoid leaks.
func (s *Service) Subscribe(_ context.Context, playerID string) (<-chan domain.Snapshot, func(), error) {
	session, ok := s.sessions.Get(playerID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.Subscribe()
	return ch, cancel, nil
}

// Leave drops the session once its last subscriber is gone.
func (s *Service) Leave(_ context.Context, playerID string) {
	if _, ok := s.sessions.Get(playerID); !ok {
		return
	}
	s.sessions.DeleteIfIdle(playerID)
}

func (s *Service) SelectMode(_ context.Context, playerID string, mode domain.GameMode) error {
	return s.withSession(playerID, func(sess *Session) error { return sess.SelectMode(mode) })
}

func (s *Service) SelectDifficulty(_ context.Context, playerID string, level int) error {
	return s.withSession(playerID, func(sess *Session) error { return sess.SelectDifficulty(level) })
}

func (s *Service) Answer(_ context.Context, playerID, optionID string) error {
	return s.withSession(playerID, func(sess *Session) error { return sess.SelectOption(optionID) })
}

func (s *Service) Hint(_ context.Context, playerID string) error {
	return s.withSession(playerID, func(sess *Session) error { return sess.UseHint() })
}

func (s *Service) TogglePause(_ context.Context, playerID string) error {
	return s.withSession(playerID, func(sess *Session) error { return sess.TogglePause() })
}

func (s *Service) RequestExit(_ context.Context, playerID string) error {
	return s.withSession(playerID, func(sess *Session) error { return sess.RequestExit() })
}

func (s *Service) ConfirmExit(_ context.Context, playerID string) error {
	return s.withSession(playerID, func(sess *Session) error { return sess.ConfirmExit() })
}

func (s *Service) CancelExit(_ context.Context, playerID string) error {
	return s.withSession(playerID, func(sess *Session) error { return sess.CancelExit() })
}

func (s *Service) Restart(_ context.Context, playerID string) error {
	return s.withSession(playerID, func(sess *Session) error { return sess.Restart() })
}

// Tick drives the per-question countdown; the transport calls it once per
// second per connected player.
func (s *Service) Tick(_ context.Context, playerID string) error {
	return s.withSession(playerID, func(sess *Session) error { return sess.Tick() })
}

// Advance moves to the next question ahead of the scheduled reveal delay.
func (s *Service) Advance(_ context.Context, playerID string) error {
	return s.withSession(playerID, func(sess *Session) error { return sess.Advance() })
}

// SubmitName records the finished score on the leaderboard under the given
// name and switches the session to the leaderboard view.
func (s *Service) SubmitName(ctx context.Context, playerID, name string) error {
	session, ok := s.sessions.Get(playerID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	if session.Status() != domain.StatusFinished {
		return domain.ErrInvalidTransition
	}
	entries, err := s.leaderboard.Submit(ctx, name, session.Score())
	if err != nil {
		return err
	}
	return session.ShowLeaderboard(entries)
}

// ViewLeaderboard switches to the leaderboard view with current entries.
func (s *Service) ViewLeaderboard(ctx context.Context, playerID string) error {
	session, ok := s.sessions.Get(playerID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	return session.ShowLeaderboard(s.leaderboard.Entries(ctx))
}

// Snapshot returns the current session view.
func (s *Service) Snapshot(_ context.Context, playerID string) (domain.Snapshot, error) {
	session, ok := s.sessions.Get(playerID)
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}
	return session.Snapshot(), nil
}

func (s *Service) withSession(playerID string, fn func(*Session) error) error {
	session, ok := s.sessions.Get(playerID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	return fn(session)
}
