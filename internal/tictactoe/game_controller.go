package tictactoe

import (
	"fmt"
	"time"

	"github.com/rocketscienceinc/tictactoe-web/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-web/internal/entity"
)

// GameController owns one game's history and the pointer to the viewed board.
// It is not safe for concurrent use; callers serialize access per game.
type GameController struct {
	history      []entity.Board
	currentIndex int
	celebration  *celebration
}

// NewGameController starts a game at the empty board. A winning move raises
// the celebration flag for celebrationDuration; zero disables it.
func NewGameController(celebrationDuration time.Duration) *GameController {
	return &GameController{
		history:     []entity.Board{{}},
		celebration: newCelebration(celebrationDuration),
	}
}

// ApplyMove plays the current turn's mark at cell. A rejected move leaves the
// game untouched.
func (that *GameController) ApplyMove(cell int) error {
	if err := that.validateMove(cell); err != nil {
		return fmt.Errorf("invalid turn: %w", err)
	}

	next := that.history[that.currentIndex]
	next[cell] = entity.TurnAt(that.currentIndex)

	that.history = append(that.history[:that.currentIndex+1:that.currentIndex+1], next)
	that.currentIndex = len(that.history) - 1

	if entity.Evaluate(next) != nil {
		that.celebration.start()
	}

	return nil
}

// validateMove - checks if the move is legal on the viewed board.
func (that *GameController) validateMove(cell int) error {
	if cell < 0 || cell >= entity.BoardSize {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	board := that.history[that.currentIndex]

	if board.Status() != entity.StatusOngoing {
		return apperror.ErrGameFinished
	}

	if board[cell] != entity.EmptyCell {
		return apperror.ErrCellOccupied
	}

	return nil
}

// JumpTo views the history entry at index. Later entries are kept until the
// next move replaces them.
func (that *GameController) JumpTo(index int) error {
	if index < 0 || index >= len(that.history) {
		return fmt.Errorf("%w: %d of %d", apperror.ErrInvalidHistoryIndex, index, len(that.history))
	}

	that.currentIndex = index
	that.celebration.cancel()

	return nil
}

func (that *GameController) Reset() {
	that.history = []entity.Board{{}}
	that.currentIndex = 0
	that.celebration.cancel()
}

// Close cancels the pending celebration timer.
func (that *GameController) Close() {
	that.celebration.cancel()
}

func (that *GameController) View() *entity.GameView {
	return entity.NewGameView(that.history, that.currentIndex, that.celebration.isActive())
}

func (that *GameController) CurrentIndex() int {
	return that.currentIndex
}

func (that *GameController) HistoryLen() int {
	return len(that.history)
}

// Session snapshots the game for storage.
func (that *GameController) Session(id string) *entity.Session {
	history := make([]entity.Board, len(that.history))
	copy(history, that.history)

	return &entity.Session{
		ID:           id,
		History:      history,
		CurrentIndex: that.currentIndex,
	}
}

// Load replaces the game with a stored session. The celebration is not restored.
func (that *GameController) Load(session *entity.Session) error {
	if err := session.Validate(); err != nil {
		return err
	}

	that.history = make([]entity.Board, len(session.History))
	copy(that.history, session.History)
	that.currentIndex = session.CurrentIndex
	that.celebration.cancel()

	return nil
}
