package domain

import "time"

// GameStatus is the top-level lifecycle state of a session.
type GameStatus string

const (
	StatusStart            GameStatus = "start"
	StatusDifficultySelect GameStatus = "difficulty_select"
	StatusPlaying          GameStatus = "playing"
	StatusFinished         GameStatus = "finished"
	StatusLeaderboard      GameStatus = "leaderboard"
)

// GameMode selects solo play or play against the simulated opponent.
type GameMode string

const (
	ModeSingle GameMode = "single"
	ModePVE    GameMode = "pve"
)

// Option is one of a question's four answer choices. IDs are single letters.
type Option struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question is an immutable bank entry with exactly one correct option.
type Question struct {
	ID         string   `json:"id"`
	Country    string   `json:"country"`
	Capital    string   `json:"capital"`
	FlagURL    string   `json:"flagUrl"`
	Prompt     string   `json:"prompt"`
	AskCapital bool     `json:"askCapital"`
	Options    []Option `json:"options"`
	Region     string   `json:"region,omitempty"`
}

// CorrectOption returns the single correct option, or false if the question
// data is malformed.
func (q Question) CorrectOption() (Option, bool) {
	for _, opt := range q.Options {
		if opt.Correct {
			return opt, true
		}
	}
	return Option{}, false
}

// Bank is the full set of questions available to the selector.
type Bank struct {
	ID        string     `json:"id"`
	Questions []Question `json:"questions"`
}

// Snapshot is the read-only session view pushed to the presentation layer
// after every transition. The current question is embedded verbatim so the
// client never needs bank access.
type Snapshot struct {
	Status            GameStatus         `json:"status"`
	Mode              GameMode           `json:"mode"`
	Difficulty        int                `json:"difficulty"`
	Score             int                `json:"score"`
	OpponentScore     int                `json:"opponentScore"`
	Combo             int                `json:"combo"`
	OpponentCombo     int                `json:"opponentCombo"`
	QuestionIndex     int                `json:"questionIndex"`
	TotalQuestions    int                `json:"totalQuestions"`
	TimeLeft          int                `json:"timeLeft"`
	SelectedOption    string             `json:"selectedOption,omitempty"`
	Revealed          bool               `json:"revealed"`
	Paused            bool               `json:"paused"`
	HintUsed          bool               `json:"hintUsed"`
	ExitPrompt        bool               `json:"exitPrompt"`
	Question          *Question          `json:"question,omitempty"`
	Leaderboard       []LeaderboardEntry `json:"leaderboard,omitempty"`
	HighScoreEligible bool               `json:"highScoreEligible,omitempty"`
}

// LeaderboardEntry is one persisted high-score row.
type LeaderboardEntry struct {
	Name      string `json:"name"`
	Score     int    `json:"score"`
	Timestamp int64  `json:"timestamp"`
}

// EntryTime converts the stored epoch-millisecond timestamp.
func (e LeaderboardEntry) EntryTime() time.Time {
	return time.UnixMilli(e.Timestamp)
}
