package game

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"geoquiz/internal/domain"
)

// Config tunes session pacing. Zero values fall back to the defaults in
// rules.go.
type Config struct {
	QuestionSeconds int
	SessionSize     int
	RegionQuota     int
	RevealDelay     time.Duration
}

func (c Config) withDefaults() Config {
	if c.QuestionSeconds <= 0 {
		c.QuestionSeconds = DefaultSeconds
	}
	if c.SessionSize <= 0 {
		c.SessionSize = SessionSize
	}
	if c.RegionQuota <= 0 {
		c.RegionQuota = RegionQuota
	}
	if c.RevealDelay <= 0 {
		c.RevealDelay = RevealDelayMS * time.Millisecond
	}
	return c
}

// HighScoreJudge decides whether a finished score qualifies for the
// leaderboard prompt. Implemented by the leaderboard service.
type HighScoreJudge interface {
	IsHighScore(ctx context.Context, score int) bool
}

// Session owns one player's game state. Every transition runs to completion
// under the mutex and ends by broadcasting a fresh snapshot, so subscribers
// never observe a partial update. The 1-second tick is driven externally
// (transport, or tests calling Tick directly); the only timer a session arms
// itself is the post-reveal advance, which carries a generation guard so a
// reset invalidates it.
type Session struct {
	id        string
	cfg       Config
	bank      []domain.Question
	judge     HighScoreJudge
	rnd       *rand.Rand
	now       func() time.Time
	createdAt time.Time
	schedule  func(d time.Duration, f func())

	mu          sync.RWMutex
	status      domain.GameStatus
	mode        domain.GameMode
	difficulty  int
	questions   []domain.Question
	idx         int
	timeLeft    int
	score       int
	combo       int
	oppScore    int
	oppCombo    int
	selected    string
	revealed    bool
	paused      bool
	hintUsed    bool
	exitPrompt  bool
	faulted     bool
	opponent    *Opponent
	generation  uint64
	leaderboard []domain.LeaderboardEntry
	eligible    bool

	subscribers map[chan domain.Snapshot]struct{}
}

func NewSession(id string, bank []domain.Question, cfg Config, judge HighScoreJudge, rnd *rand.Rand) *Session {
	return newSessionWithClock(id, bank, cfg, judge, rnd, time.Now, func(d time.Duration, f func()) {
		time.AfterFunc(d, f)
	})
}

// newSessionWithClock allows deterministic timestamps and scheduling in tests.
func newSessionWithClock(id string, bank []domain.Question, cfg Config, judge HighScoreJudge, rnd *rand.Rand, now func() time.Time, schedule func(time.Duration, func())) *Session {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Session{
		id:          id,
		cfg:         cfg.withDefaults(),
		bank:        bank,
		judge:       judge,
		rnd:         rnd,
		now:         now,
		createdAt:   now(),
		schedule:    schedule,
		status:      domain.StatusStart,
		subscribers: make(map[chan domain.Snapshot]struct{}),
	}
}

// SelectMode starts a single-player game immediately or moves to difficulty
// selection for pve.
func (s *Session) SelectMode(mode domain.GameMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != domain.StatusStart {
		return domain.ErrInvalidTransition
	}
	switch mode {
	case domain.ModeSingle:
		s.mode = mode
		s.startGameLocked()
	case domain.ModePVE:
		s.mode = mode
		s.status = domain.StatusDifficultySelect
	default:
		return domain.ErrInvalidTransition
	}
	s.broadcastLocked()
	return nil
}

func (s *Session) SelectDifficulty(level int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != domain.StatusDifficultySelect || level < 1 || level > 4 {
		return domain.ErrInvalidTransition
	}
	s.difficulty = level
	s.startGameLocked()
	s.broadcastLocked()
	return nil
}

// startGameLocked builds a fresh question list and resets every per-game
// counter. Bumping the generation retires any advance still scheduled from a
// previous game.
func (s *Session) startGameLocked() {
	s.generation++
	s.questions = SelectQuestions(s.bank, s.cfg.SessionSize, s.cfg.RegionQuota, s.rnd)
	s.idx = 0
	s.score, s.combo = 0, 0
	s.oppScore, s.oppCombo = 0, 0
	s.eligible = false
	s.leaderboard = nil
	s.faulted = false
	s.exitPrompt = false
	s.resetQuestionLocked()

	if len(s.questions) == 0 {
		s.finishLocked()
		return
	}
	s.status = domain.StatusPlaying
}

func (s *Session) resetQuestionLocked() {
	s.timeLeft = s.cfg.QuestionSeconds
	s.selected = ""
	s.revealed = false
	s.paused = false
	s.hintUsed = false
	if s.mode == domain.ModePVE {
		if s.opponent == nil || s.idx == 0 {
			s.opponent = NewOpponent(s.difficulty, s.rnd)
		}
		s.opponent.Arm(s.cfg.QuestionSeconds)
	}
}

// Tick advances the countdown by one second. It is a no-op outside active
// play (revealed, paused, exit prompt open, or faulted). The opponent trigger
// is evaluated exactly once per tick.
func (s *Session) Tick() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != domain.StatusPlaying || s.revealed || s.paused || s.exitPrompt || s.faulted {
		return nil
	}
	if _, ok := s.currentQuestionLocked(); !ok {
		s.faulted = true
		s.broadcastLocked()
		return domain.ErrMissingQuestion
	}

	s.timeLeft--

	if s.mode == domain.ModePVE && s.timeLeft > 0 && s.opponent.ShouldAnswer(s.timeLeft) {
		s.oppScore, s.oppCombo = ApplyOutcome(s.oppScore, s.oppCombo, s.opponent.Answer(), false)
	}

	if s.timeLeft <= 0 {
		s.resolveTimeoutLocked()
	}
	s.broadcastLocked()
	return nil
}

func (s *Session) resolveTimeoutLocked() {
	if s.mode == domain.ModePVE && !s.opponent.Answered() {
		s.opponent.ForceWrong()
		s.oppScore, s.oppCombo = ApplyOutcome(s.oppScore, s.oppCombo, false, false)
	}
	s.score, s.combo = ApplyOutcome(s.score, s.combo, false, false)
	s.selected = ""
	s.revealLocked()
}

// SelectOption resolves the current question with the player's choice. Both
// parties finalize together: an opponent that has not fired yet answers in
// the same update.
func (s *Session) SelectOption(optionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != domain.StatusPlaying || s.revealed || s.paused || s.exitPrompt || s.faulted {
		return domain.ErrInvalidTransition
	}
	q, ok := s.currentQuestionLocked()
	if !ok {
		s.faulted = true
		s.broadcastLocked()
		return domain.ErrMissingQuestion
	}

	var chosen *domain.Option
	for i := range q.Options {
		if q.Options[i].ID == optionID {
			chosen = &q.Options[i]
			break
		}
	}
	if chosen == nil {
		return domain.ErrOptionNotFound
	}

	s.selected = optionID
	s.score, s.combo = ApplyOutcome(s.score, s.combo, chosen.Correct, s.hintUsed)
	if s.mode == domain.ModePVE && !s.opponent.Answered() {
		s.oppScore, s.oppCombo = ApplyOutcome(s.oppScore, s.oppCombo, s.opponent.Answer(), false)
	}
	s.revealLocked()
	s.broadcastLocked()
	return nil
}

// revealLocked marks the question resolved and schedules the advance. The
// captured generation makes a stale timer harmless after any reset.
func (s *Session) revealLocked() {
	s.revealed = true
	gen := s.generation
	s.schedule(s.cfg.RevealDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.generation != gen {
			return
		}
		s.advanceLocked()
		s.broadcastLocked()
	})
}

// UseHint deducts the flat hint cost immediately and suppresses this
// question's answer award. Once per question.
func (s *Session) UseHint() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != domain.StatusPlaying || s.revealed || s.paused || s.exitPrompt || s.faulted || s.hintUsed {
		return domain.ErrInvalidTransition
	}
	s.score -= HintCost
	s.hintUsed = true
	s.broadcastLocked()
	return nil
}

func (s *Session) TogglePause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != domain.StatusPlaying || s.revealed || s.exitPrompt || s.faulted {
		return domain.ErrInvalidTransition
	}
	s.paused = !s.paused
	s.broadcastLocked()
	return nil
}

func (s *Session) RequestExit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != domain.StatusPlaying || s.exitPrompt {
		return domain.ErrInvalidTransition
	}
	s.exitPrompt = true
	s.broadcastLocked()
	return nil
}

func (s *Session) ConfirmExit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.exitPrompt {
		return domain.ErrInvalidTransition
	}
	s.resetToStartLocked()
	s.broadcastLocked()
	return nil
}

func (s *Session) CancelExit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.exitPrompt {
		return domain.ErrInvalidTransition
	}
	s.exitPrompt = false
	s.broadcastLocked()
	return nil
}

// Restart returns to the start screen from a finished game or the
// leaderboard view.
func (s *Session) Restart() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != domain.StatusFinished && s.status != domain.StatusLeaderboard {
		return domain.ErrInvalidTransition
	}
	s.resetToStartLocked()
	s.broadcastLocked()
	return nil
}

// resetToStartLocked discards the in-progress question set and every counter.
func (s *Session) resetToStartLocked() {
	s.generation++
	s.status = domain.StatusStart
	s.mode = ""
	s.difficulty = 0
	s.questions = nil
	s.idx = 0
	s.timeLeft = 0
	s.score, s.combo = 0, 0
	s.oppScore, s.oppCombo = 0, 0
	s.selected = ""
	s.revealed = false
	s.paused = false
	s.hintUsed = false
	s.exitPrompt = false
	s.faulted = false
	s.opponent = nil
	s.leaderboard = nil
	s.eligible = false
}

// Advance moves to the next question (or finishes) once the current one is
// revealed. Exposed for the transport test hook; normal play reaches it via
// the scheduled post-reveal timer.
func (s *Session) Advance() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != domain.StatusPlaying || !s.revealed {
		return domain.ErrInvalidTransition
	}
	s.advanceLocked()
	s.broadcastLocked()
	return nil
}

func (s *Session) advanceLocked() {
	if s.status != domain.StatusPlaying || !s.revealed {
		return
	}
	s.idx++
	if s.idx >= len(s.questions) {
		s.finishLocked()
		return
	}
	s.resetQuestionLocked()
}

func (s *Session) finishLocked() {
	s.status = domain.StatusFinished
	if s.judge != nil {
		s.eligible = s.judge.IsHighScore(context.Background(), s.score)
	}
}

// ShowLeaderboard switches to the leaderboard view with the given entries.
// Valid from the start screen or a finished game.
func (s *Session) ShowLeaderboard(entries []domain.LeaderboardEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != domain.StatusStart && s.status != domain.StatusFinished {
		return domain.ErrInvalidTransition
	}
	s.status = domain.StatusLeaderboard
	s.leaderboard = entries
	s.broadcastLocked()
	return nil
}

// Score returns the player's current score.
func (s *Session) Score() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.score
}

// Status returns the current top-level state.
func (s *Session) Status() domain.GameStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// HighScoreEligible reports whether the finished score earned a name prompt.
func (s *Session) HighScoreEligible() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.eligible
}

// Snapshot returns the full presentation view of the session.
func (s *Session) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Session) currentQuestionLocked() (domain.Question, bool) {
	if s.idx < 0 || s.idx >= len(s.questions) {
		return domain.Question{}, false
	}
	q := s.questions[s.idx]
	if _, ok := q.CorrectOption(); !ok {
		return domain.Question{}, false
	}
	return q, true
}

func (s *Session) snapshotLocked() domain.Snapshot {
	snap := domain.Snapshot{
		Status:            s.status,
		Mode:              s.mode,
		Difficulty:        s.difficulty,
		Score:             s.score,
		OpponentScore:     s.oppScore,
		Combo:             s.combo,
		OpponentCombo:     s.oppCombo,
		QuestionIndex:     s.idx,
		TotalQuestions:    len(s.questions),
		TimeLeft:          s.timeLeft,
		SelectedOption:    s.selected,
		Revealed:          s.revealed,
		Paused:            s.paused,
		HintUsed:          s.hintUsed,
		ExitPrompt:        s.exitPrompt,
		HighScoreEligible: s.eligible,
	}
	if s.status == domain.StatusPlaying && !s.faulted {
		if q, ok := s.currentQuestionLocked(); ok {
			snap.Question = &q
		}
	}
	if s.status == domain.StatusLeaderboard {
		snap.Leaderboard = s.leaderboard
	}
	return snap
}

// Subscribe returns a channel receiving a snapshot after every transition,
// primed with the current state. The caller must invoke cancel to avoid
// leaks.
func (s *Session) Subscribe() (<-chan domain.Snapshot, func()) {
	ch := make(chan domain.Snapshot, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	initial := s.snapshotLocked()
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// HasSubscribers reports whether any presentation client is attached.
func (s *Session) HasSubscribers() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers) > 0
}

func (s *Session) broadcastLocked() {
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// Drop the stale update so a slow client never blocks the tick.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}
