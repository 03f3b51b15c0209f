package game

import "math/rand"

// delayRange is the elapsed-seconds window in which the opponent acts.
type delayRange struct {
	min, max float64
}

var opponentDelays = map[int]delayRange{
	1: {6, 10},
	2: {5, 8},
	3: {3.5, 6},
	4: {2, 4},
}

var opponentAccuracy = map[int]float64{
	1: 0.50,
	2: 0.65,
	3: 0.75,
	4: 0.85,
}

// Opponent simulates the computer player in pve mode. It is armed once per
// question and guarantees at most one answer per question: the trigger fires
// on the first tick where remaining time crosses the threshold, or the
// session forces resolution when the question ends first.
type Opponent struct {
	difficulty int
	rnd        *rand.Rand

	answered  bool
	triggerAt float64 // remaining-seconds threshold
}

func NewOpponent(difficulty int, rnd *rand.Rand) *Opponent {
	if difficulty < 1 {
		difficulty = 1
	}
	if difficulty > 4 {
		difficulty = 4
	}
	return &Opponent{difficulty: difficulty, rnd: rnd}
}

// Arm resets the opponent for a new question of questionSeconds length and
// draws a fresh answer delay.
func (o *Opponent) Arm(questionSeconds int) {
	r := opponentDelays[o.difficulty]
	delay := r.min + o.rnd.Float64()*(r.max-r.min)
	o.triggerAt = float64(questionSeconds) - delay
	o.answered = false
}

// ShouldAnswer reports whether the trigger fires at the given remaining time.
// Called at most once per tick; it does not consume the trigger.
func (o *Opponent) ShouldAnswer(timeLeft int) bool {
	return !o.answered && float64(timeLeft) <= o.triggerAt
}

// Answer draws the opponent's correctness for this question and marks it as
// answered. Callers must check Answered first; a second call per question is
// a programming error kept harmless by the flag.
func (o *Opponent) Answer() bool {
	o.answered = true
	return o.rnd.Float64() < opponentAccuracy[o.difficulty]
}

// ForceWrong resolves the opponent through the timeout path: answered, and
// scored as incorrect.
func (o *Opponent) ForceWrong() {
	o.answered = true
}

// Answered reports whether the opponent already resolved this question.
func (o *Opponent) Answered() bool {
	return o.answered
}
