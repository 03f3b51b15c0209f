package game

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"geoquiz/internal/domain"
)

// manualTimer captures scheduled callbacks so tests fire the post-reveal
// advance deterministically.
type manualTimer struct {
	pending []func()
}

func (m *manualTimer) schedule(_ time.Duration, f func()) {
	m.pending = append(m.pending, f)
}

func (m *manualTimer) fire() {
	fns := m.pending
	m.pending = nil
	for _, f := range fns {
		f()
	}
}

type stubJudge struct {
	eligible bool
	gotScore int
	calls    int
}

func (j *stubJudge) IsHighScore(_ context.Context, score int) bool {
	j.calls++
	j.gotScore = score
	return j.eligible
}

func newManualSession(bank []domain.Question, cfg Config, judge HighScoreJudge, seed int64) (*Session, *manualTimer) {
	timer := &manualTimer{}
	rnd := rand.New(rand.NewSource(seed))
	s := newSessionWithClock("p1", bank, cfg, judge, rnd, time.Now, timer.schedule)
	return s, timer
}

// correctOption reads the current question's correct option off the snapshot.
func correctOption(t *testing.T, s *Session) string {
	t.Helper()
	snap := s.Snapshot()
	if snap.Question == nil {
		t.Fatalf("no current question in snapshot: %+v", snap)
	}
	for _, opt := range snap.Question.Options {
		if opt.Correct {
			return opt.ID
		}
	}
	t.Fatalf("question %s has no correct option", snap.Question.ID)
	return ""
}

func wrongOption(t *testing.T, s *Session) string {
	t.Helper()
	snap := s.Snapshot()
	if snap.Question == nil {
		t.Fatalf("no current question in snapshot")
	}
	for _, opt := range snap.Question.Options {
		if !opt.Correct {
			return opt.ID
		}
	}
	t.Fatalf("question %s has no wrong option", snap.Question.ID)
	return ""
}

func TestPerfectSingleGameScoresSixThousandSevenFifty(t *testing.T) {
	judge := &stubJudge{eligible: true}
	s, timer := newManualSession(makeBankQuestions(25, 12), Config{}, judge, 1)

	if err := s.SelectMode(domain.ModeSingle); err != nil {
		t.Fatalf("select mode: %v", err)
	}
	if got := s.Snapshot(); got.Status != domain.StatusPlaying || got.TotalQuestions != 20 {
		t.Fatalf("expected playing with 20 questions, got %+v", got)
	}

	for i := 0; i < 20; i++ {
		if err := s.SelectOption(correctOption(t, s)); err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
		timer.fire()
	}

	snap := s.Snapshot()
	if snap.Status != domain.StatusFinished {
		t.Fatalf("expected finished, got %s", snap.Status)
	}
	// sum over k=0..19 of (100 + 25k)
	if snap.Score != 6750 {
		t.Fatalf("expected 6750, got %d", snap.Score)
	}
	if snap.Combo != 20 {
		t.Fatalf("expected combo 20, got %d", snap.Combo)
	}
	if judge.calls != 1 || judge.gotScore != 6750 {
		t.Fatalf("judge consulted wrong: calls=%d score=%d", judge.calls, judge.gotScore)
	}
	if !snap.HighScoreEligible {
		t.Fatalf("expected high-score prompt")
	}
}

func TestWrongAnswerBreaksCombo(t *testing.T) {
	s, timer := newManualSession(makeBankQuestions(25, 12), Config{}, nil, 2)
	if err := s.SelectMode(domain.ModeSingle); err != nil {
		t.Fatalf("select mode: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := s.SelectOption(correctOption(t, s)); err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
		timer.fire()
	}
	snap := s.Snapshot()
	if snap.Score != 375 || snap.Combo != 3 {
		t.Fatalf("expected 375/combo 3 after streak, got %d/%d", snap.Score, snap.Combo)
	}

	if err := s.SelectOption(wrongOption(t, s)); err != nil {
		t.Fatalf("wrong answer: %v", err)
	}
	snap = s.Snapshot()
	if snap.Score != 325 {
		t.Fatalf("expected 325 after penalty, got %d", snap.Score)
	}
	if snap.Combo != 0 {
		t.Fatalf("expected combo reset, got %d", snap.Combo)
	}
}

func TestHintedCorrectAnswerNetsMinusHundred(t *testing.T) {
	s, _ := newManualSession(makeBankQuestions(25, 12), Config{}, nil, 3)
	if err := s.SelectMode(domain.ModeSingle); err != nil {
		t.Fatalf("select mode: %v", err)
	}

	if err := s.UseHint(); err != nil {
		t.Fatalf("hint: %v", err)
	}
	if snap := s.Snapshot(); snap.Score != -100 || !snap.HintUsed {
		t.Fatalf("expected -100 with hint flag, got %+v", snap)
	}

	// Second hint on the same question is rejected.
	if err := s.UseHint(); err != domain.ErrInvalidTransition {
		t.Fatalf("expected invalid transition, got %v", err)
	}

	if err := s.SelectOption(correctOption(t, s)); err != nil {
		t.Fatalf("answer: %v", err)
	}
	snap := s.Snapshot()
	if snap.Score != -100 {
		t.Fatalf("hinted correct answer must not add points, got %d", snap.Score)
	}
	if snap.Combo != 0 {
		t.Fatalf("hint must break the streak, got combo %d", snap.Combo)
	}
}

func TestTimeoutPenalizesAndAdvances(t *testing.T) {
	cfg := Config{QuestionSeconds: 3}
	s, timer := newManualSession(makeBankQuestions(25, 12), cfg, nil, 4)
	if err := s.SelectMode(domain.ModeSingle); err != nil {
		t.Fatalf("select mode: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := s.Tick(); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}
	snap := s.Snapshot()
	if !snap.Revealed {
		t.Fatalf("expected reveal on timeout")
	}
	if snap.Score != -50 || snap.Combo != 0 {
		t.Fatalf("expected timeout penalty, got %d/%d", snap.Score, snap.Combo)
	}
	if snap.SelectedOption != "" {
		t.Fatalf("timeout must not select an option, got %q", snap.SelectedOption)
	}

	// Ticks after reveal are no-ops.
	if err := s.Tick(); err != nil {
		t.Fatalf("post-reveal tick: %v", err)
	}
	if got := s.Snapshot().TimeLeft; got != 0 {
		t.Fatalf("time must not move after reveal, got %d", got)
	}

	timer.fire()
	snap = s.Snapshot()
	if snap.QuestionIndex != 1 || snap.Revealed || snap.TimeLeft != 3 {
		t.Fatalf("expected fresh question 1, got %+v", snap)
	}
}

func TestAnswerIgnoredAfterRevealPauseAndExitPrompt(t *testing.T) {
	s, timer := newManualSession(makeBankQuestions(25, 12), Config{}, nil, 5)
	if err := s.SelectMode(domain.ModeSingle); err != nil {
		t.Fatalf("select mode: %v", err)
	}

	if err := s.TogglePause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := s.SelectOption("A"); err != domain.ErrInvalidTransition {
		t.Fatalf("paused answer should be ignored, got %v", err)
	}
	if err := s.Tick(); err != nil {
		t.Fatalf("paused tick: %v", err)
	}
	if got := s.Snapshot().TimeLeft; got != DefaultSeconds {
		t.Fatalf("paused tick must not decrement, got %d", got)
	}
	if err := s.TogglePause(); err != nil {
		t.Fatalf("unpause: %v", err)
	}

	if err := s.RequestExit(); err != nil {
		t.Fatalf("exit request: %v", err)
	}
	if err := s.SelectOption("A"); err != domain.ErrInvalidTransition {
		t.Fatalf("exit-prompt answer should be ignored, got %v", err)
	}
	if err := s.TogglePause(); err != domain.ErrInvalidTransition {
		t.Fatalf("pause during exit prompt should be rejected, got %v", err)
	}
	if err := s.CancelExit(); err != nil {
		t.Fatalf("cancel exit: %v", err)
	}

	opt := correctOption(t, s)
	if err := s.SelectOption(opt); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if err := s.SelectOption(opt); err != domain.ErrInvalidTransition {
		t.Fatalf("second answer after reveal should be ignored, got %v", err)
	}
	if err := s.TogglePause(); err != domain.ErrInvalidTransition {
		t.Fatalf("pause after reveal should be rejected, got %v", err)
	}
	timer.fire()
}

func TestConfirmExitInvalidatesScheduledAdvance(t *testing.T) {
	s, timer := newManualSession(makeBankQuestions(25, 12), Config{}, nil, 6)
	if err := s.SelectMode(domain.ModeSingle); err != nil {
		t.Fatalf("select mode: %v", err)
	}

	if err := s.SelectOption(correctOption(t, s)); err != nil {
		t.Fatalf("answer: %v", err)
	}
	// Exit while the advance is still pending.
	if err := s.RequestExit(); err != nil {
		t.Fatalf("exit request: %v", err)
	}
	if err := s.ConfirmExit(); err != nil {
		t.Fatalf("confirm exit: %v", err)
	}
	snap := s.Snapshot()
	if snap.Status != domain.StatusStart || snap.Score != 0 || snap.TotalQuestions != 0 {
		t.Fatalf("expected clean start state, got %+v", snap)
	}

	// The stale timer fires into the new generation and must change nothing.
	timer.fire()
	if got := s.Snapshot(); got.Status != domain.StatusStart || got.QuestionIndex != 0 {
		t.Fatalf("stale advance corrupted state: %+v", got)
	}

	// A fresh game starts cleanly afterwards.
	if err := s.SelectMode(domain.ModeSingle); err != nil {
		t.Fatalf("restart game: %v", err)
	}
	if got := s.Snapshot(); got.Status != domain.StatusPlaying || got.QuestionIndex != 0 || got.Score != 0 {
		t.Fatalf("expected fresh game, got %+v", got)
	}
}

func TestPVEOpponentForcedWhenPlayerAnswersFirst(t *testing.T) {
	// One-question bank: a single forced opponent resolution yields either
	// +100 or -50, never zero.
	s, timer := newManualSession(makeBankQuestions(1, 0), Config{}, nil, 7)

	if err := s.SelectMode(domain.ModePVE); err != nil {
		t.Fatalf("select mode: %v", err)
	}
	if got := s.Snapshot().Status; got != domain.StatusDifficultySelect {
		t.Fatalf("expected difficulty select, got %s", got)
	}
	if err := s.SelectDifficulty(1); err != nil {
		t.Fatalf("select difficulty: %v", err)
	}

	// Difficulty 1 waits at least 6 seconds; answering immediately forces
	// the opponent in the same update.
	if err := s.SelectOption(correctOption(t, s)); err != nil {
		t.Fatalf("answer: %v", err)
	}
	snap := s.Snapshot()
	if snap.OpponentScore == 0 {
		t.Fatalf("opponent must have been forced to answer, score still 0")
	}
	if snap.OpponentScore != 100 && snap.OpponentScore != -50 {
		t.Fatalf("unexpected opponent score %d", snap.OpponentScore)
	}

	timer.fire()
	if got := s.Snapshot().Status; got != domain.StatusFinished {
		t.Fatalf("expected finished, got %s", got)
	}
}

func TestPVEOpponentAnswersViaTrigger(t *testing.T) {
	// Difficulty 4 fires within 2-4 elapsed seconds, so 5 ticks guarantee a
	// resolution before the 20s timeout.
	s, _ := newManualSession(makeBankQuestions(1, 0), Config{}, nil, 8)
	if err := s.SelectMode(domain.ModePVE); err != nil {
		t.Fatalf("select mode: %v", err)
	}
	if err := s.SelectDifficulty(4); err != nil {
		t.Fatalf("select difficulty: %v", err)
	}

	for i := 0; i < 5; i++ {
		if err := s.Tick(); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}
	snap := s.Snapshot()
	if snap.OpponentScore != 100 && snap.OpponentScore != -50 {
		t.Fatalf("opponent should have answered by now, score %d", snap.OpponentScore)
	}
	if snap.Revealed {
		t.Fatalf("player question must still be open")
	}
}

func TestMissingQuestionDataIsFatalGuard(t *testing.T) {
	bank := makeBankQuestions(3, 0)
	// Corrupt the bank: no correct option anywhere.
	for i := range bank {
		for j := range bank[i].Options {
			bank[i].Options[j].Correct = false
		}
	}
	s, _ := newManualSession(bank, Config{}, nil, 9)
	if err := s.SelectMode(domain.ModeSingle); err != nil {
		t.Fatalf("select mode: %v", err)
	}

	if err := s.Tick(); err != domain.ErrMissingQuestion {
		t.Fatalf("expected missing-question guard, got %v", err)
	}
	snap := s.Snapshot()
	if snap.Question != nil {
		t.Fatalf("faulted session must render no question")
	}
	if snap.QuestionIndex != 0 {
		t.Fatalf("faulted session must not advance, got index %d", snap.QuestionIndex)
	}

	// Everything else is inert now.
	if err := s.Tick(); err != nil {
		t.Fatalf("faulted tick should be a no-op, got %v", err)
	}
	if err := s.SelectOption("A"); err != domain.ErrInvalidTransition {
		t.Fatalf("faulted answer should be ignored, got %v", err)
	}
}

func TestRestartResetsEverything(t *testing.T) {
	s, timer := newManualSession(makeBankQuestions(2, 0), Config{}, nil, 10)
	if err := s.SelectMode(domain.ModeSingle); err != nil {
		t.Fatalf("select mode: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := s.SelectOption(correctOption(t, s)); err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
		timer.fire()
	}
	if got := s.Snapshot().Status; got != domain.StatusFinished {
		t.Fatalf("expected finished, got %s", got)
	}

	if err := s.Restart(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	snap := s.Snapshot()
	if snap.Status != domain.StatusStart || snap.Score != 0 || snap.Combo != 0 || snap.Mode != "" {
		t.Fatalf("restart must carry nothing over, got %+v", snap)
	}
}

func TestShowLeaderboardFromStartAndFinish(t *testing.T) {
	entries := []domain.LeaderboardEntry{{Name: "ace", Score: 900, Timestamp: 1}}

	s, _ := newManualSession(makeBankQuestions(2, 0), Config{}, nil, 11)
	if err := s.ShowLeaderboard(entries); err != nil {
		t.Fatalf("show leaderboard: %v", err)
	}
	snap := s.Snapshot()
	if snap.Status != domain.StatusLeaderboard || len(snap.Leaderboard) != 1 {
		t.Fatalf("expected leaderboard view, got %+v", snap)
	}

	// Not reachable mid-game.
	if err := s.Restart(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if err := s.SelectMode(domain.ModeSingle); err != nil {
		t.Fatalf("select mode: %v", err)
	}
	if err := s.ShowLeaderboard(entries); err != domain.ErrInvalidTransition {
		t.Fatalf("leaderboard during play should be rejected, got %v", err)
	}
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	s, _ := newManualSession(makeBankQuestions(25, 12), Config{}, nil, 12)
	ch, cancel := s.Subscribe()
	defer cancel()

	first := <-ch
	if first.Status != domain.StatusStart {
		t.Fatalf("expected initial start snapshot, got %s", first.Status)
	}

	if err := s.SelectMode(domain.ModeSingle); err != nil {
		t.Fatalf("select mode: %v", err)
	}
	update := <-ch
	if update.Status != domain.StatusPlaying || update.Question == nil {
		t.Fatalf("expected playing snapshot with question, got %+v", update)
	}
}
