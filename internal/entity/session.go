package entity

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-web/internal/apperror"
)

// Session is the persisted form of one browser's game.
type Session struct {
	ID           string  `json:"id"`
	History      []Board `json:"history"`
	CurrentIndex int     `json:"current_index"`
}

func NewSession(id string) *Session {
	return &Session{
		ID:      id,
		History: []Board{{}},
	}
}

// Validate checks the history invariants: it starts empty, every entry adds
// exactly one mark, marks alternate starting with X, and nothing is played
// after a finished board.
func (that *Session) Validate() error {
	if len(that.History) == 0 {
		return fmt.Errorf("%w: empty history", apperror.ErrCorruptedSession)
	}

	if that.CurrentIndex < 0 || that.CurrentIndex >= len(that.History) {
		return fmt.Errorf("%w: current index %d out of range", apperror.ErrCorruptedSession, that.CurrentIndex)
	}

	if that.History[0] != (Board{}) {
		return fmt.Errorf("%w: first board is not empty", apperror.ErrCorruptedSession)
	}

	for i := 1; i < len(that.History); i++ {
		prev, next := that.History[i-1], that.History[i]

		if prev.Status() != StatusOngoing {
			return fmt.Errorf("%w: move %d played after the game ended", apperror.ErrCorruptedSession, i)
		}

		changed := 0
		for cell := range next {
			if !next[cell].IsValid() {
				return fmt.Errorf("%w: move %d has unknown mark %q", apperror.ErrCorruptedSession, i, next[cell])
			}

			if prev[cell] == next[cell] {
				continue
			}

			if prev[cell] != EmptyCell || next[cell] != TurnAt(i-1) {
				return fmt.Errorf("%w: move %d changes cell %d illegally", apperror.ErrCorruptedSession, i, cell)
			}
			changed++
		}

		if changed != 1 {
			return fmt.Errorf("%w: move %d changes %d cells", apperror.ErrCorruptedSession, i, changed)
		}
	}

	return nil
}
