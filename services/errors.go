package services

import "errors"

// Input / lookup errors — reported synchronously, nothing mutated.
var (
	ErrLevelNotFound         = errors.New("level not found")
	ErrInsufficientQuestions = errors.New("level does not have enough questions")
	ErrGameNotFound          = errors.New("game not found")
	ErrGameModeMismatch      = errors.New("game is not the expected mode")
	ErrGameNotInProgress     = errors.New("game is not in progress")
	ErrGameNotJoinable       = errors.New("game is not accepting players")
	ErrGameFull              = errors.New("game is full")
	ErrGameAlreadyStarted    = errors.New("game has already started")
	ErrInvalidMaxPlayers     = errors.New("max players out of range for this mode")
	ErrTooManyAnswers        = errors.New("more answers than questions in this game")
)

// Authorization errors — no partial debit is ever left behind.
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrAccountSuspended    = errors.New("account is suspended")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrSecretNotSet        = errors.New("transaction secret not set")
	ErrInvalidSecret       = errors.New("invalid transaction secret")
	ErrNotAParticipant     = errors.New("not a participant of this game")
	ErrNotCreator          = errors.New("only the creator can start the game")
	ErrNotEnoughPlayers    = errors.New("not enough players to start")
	ErrAlreadyJoined       = errors.New("already joined this game")
)

// Concurrency conflicts. A duplicate submission is terminal — the caller must
// not retry. A version conflict is retryable.
var (
	ErrAlreadySubmitted = errors.New("already submitted for this game")
	ErrVersionConflict  = errors.New("game was modified concurrently, retry")
)

// StatusForError maps engine errors to HTTP statuses. Version conflicts map
// to 409 so clients know to retry; duplicate submissions also map to 409 but
// are terminal.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, ErrLevelNotFound),
		errors.Is(err, ErrGameNotFound),
		errors.Is(err, ErrUserNotFound):
		return 404
	case errors.Is(err, ErrInsufficientQuestions),
		errors.Is(err, ErrGameModeMismatch),
		errors.Is(err, ErrGameNotInProgress),
		errors.Is(err, ErrGameNotJoinable),
		errors.Is(err, ErrGameAlreadyStarted),
		errors.Is(err, ErrNotEnoughPlayers),
		errors.Is(err, ErrInvalidMaxPlayers),
		errors.Is(err, ErrTooManyAnswers):
		return 400
	case errors.Is(err, ErrAccountSuspended),
		errors.Is(err, ErrInvalidSecret),
		errors.Is(err, ErrSecretNotSet),
		errors.Is(err, ErrNotCreator),
		errors.Is(err, ErrNotAParticipant):
		return 403
	case errors.Is(err, ErrInsufficientBalance):
		return 402
	case errors.Is(err, ErrGameFull),
		errors.Is(err, ErrAlreadyJoined),
		errors.Is(err, ErrAlreadySubmitted),
		errors.Is(err, ErrVersionConflict):
		return 409
	default:
		return 500
	}
}
