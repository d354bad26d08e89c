package apperror

import "errors"

var (
	ErrGameFinished        = errors.New("game is already finished")
	ErrCellOccupied        = errors.New("cell is already occupied")
	ErrInvalidCell         = errors.New("invalid cell index")
	ErrInvalidHistoryIndex = errors.New("invalid history index")
	ErrSessionNotFound     = errors.New("session not found")
	ErrCorruptedSession    = errors.New("stored session is corrupted")
)

// IsRuleViolation reports whether err is a rejected game action rather than a failure.
// Rule violations leave the game untouched and are never shown to the user.
func IsRuleViolation(err error) bool {
	return errors.Is(err, ErrGameFinished) ||
		errors.Is(err, ErrCellOccupied) ||
		errors.Is(err, ErrInvalidCell) ||
		errors.Is(err, ErrInvalidHistoryIndex)
}
