package game

// Scoring and pacing constants. Timing values have config overrides; the
// arithmetic below does not.
const (
	BaseAward      = 100 // correct answer without a hint
	ComboStep      = 25  // extra per consecutive correct answer
	WrongPenalty   = 50  // deducted on an incorrect answer or timeout
	HintCost       = 100 // deducted the moment a hint is requested
	DefaultSeconds = 20  // countdown per question
	RevealDelayMS  = 1500
	SessionSize    = 20
	RegionQuota    = 10
	RegionEastAsia = "EastAsia"
)

// ApplyOutcome computes the next (score, combo) pair for one resolved
// question. A hint zeroes the streak and forfeits the award even when the
// answer is correct; the flat hint deduction has already been taken at
// activation time. Scores have no floor.
func ApplyOutcome(score, combo int, correct, hintUsed bool) (int, int) {
	if !correct {
		return score - WrongPenalty, 0
	}
	if hintUsed {
		return score, 0
	}
	return score + BaseAward + ComboStep*combo, combo + 1
}
