package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a game session has not been initialized.
	ErrSessionNotFound = errors.New("game session not found")
	// ErrInvalidTransition marks an intent that is not legal in the current state.
	// The transport swallows it; it never surfaces as a user-facing error.
	ErrInvalidTransition = errors.New("invalid transition for current state")
	// ErrBankNotFound indicates the question bank could not be loaded.
	ErrBankNotFound = errors.New("question bank not found")
	// ErrOptionNotFound indicates a submitted option ID is not on the current question.
	ErrOptionNotFound = errors.New("option not found")
	// ErrMissingQuestion indicates the current index has no question data.
	// The session stops ticking; it never silently advances past the gap.
	ErrMissingQuestion = errors.New("missing question data for current index")
)
