package entity

import "strconv"

type Mark string

const (
	StatusOngoing = "ongoing"
	StatusWon     = "won"
	StatusDraw    = "draw"

	PlayerX Mark = "X"
	PlayerO Mark = "O"

	EmptyCell Mark = ""
)

const BoardSize = 9

// WinCombos are scanned in this order: rows, columns, diagonals.
var WinCombos = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Board is a single 3x3 snapshot, row-major. It is a value type: assigning or
// storing a Board copies it.
type Board [BoardSize]Mark

type WinResult struct {
	Winner Mark   `json:"winner"`
	Line   [3]int `json:"line"`
}

// Evaluate returns the first complete line on the board, or nil.
func Evaluate(board Board) *WinResult {
	for _, combo := range WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != EmptyCell && a == b && b == c {
			return &WinResult{Winner: a, Line: combo}
		}
	}

	return nil
}

func (that Board) IsFull() bool {
	for _, cell := range that {
		if cell == EmptyCell {
			return false
		}
	}

	return true
}

// Filled counts the non-empty cells.
func (that Board) Filled() int {
	var n int
	for _, cell := range that {
		if cell != EmptyCell {
			n++
		}
	}

	return n
}

// Status derives the game state of a board from its cells alone.
func (that Board) Status() string {
	switch {
	case Evaluate(that) != nil:
		return StatusWon
	case that.IsFull():
		return StatusDraw
	default:
		return StatusOngoing
	}
}

// TurnAt returns the mark that plays from the history entry at index.
func TurnAt(index int) Mark {
	if index%2 == 0 {
		return PlayerX
	}
	return PlayerO
}

func (that Mark) IsValid() bool {
	return that == EmptyCell || that == PlayerX || that == PlayerO
}

type HistoryEntry struct {
	Index  int    `json:"index"`
	Label  string `json:"label"`
	Active bool   `json:"active"`
}

// HistoryLabel names a history entry the way the move list shows it.
func HistoryLabel(index int) string {
	if index == 0 {
		return "Start"
	}
	return "Move #" + strconv.Itoa(index)
}

// GameView is what a client sees for the currently viewed snapshot.
type GameView struct {
	Board        Board          `json:"board"`
	Status       string         `json:"status"`
	Turn         Mark           `json:"turn,omitempty"`
	Winner       Mark           `json:"winner,omitempty"`
	Line         []int          `json:"line,omitempty"`
	CurrentIndex int            `json:"current_index"`
	History      []HistoryEntry `json:"history"`
	Celebrating  bool           `json:"celebrating"`
}

// NewGameView builds the view of history[current].
func NewGameView(history []Board, current int, celebrating bool) *GameView {
	board := history[current]

	view := &GameView{
		Board:        board,
		Status:       board.Status(),
		CurrentIndex: current,
		History:      make([]HistoryEntry, len(history)),
		Celebrating:  celebrating,
	}

	if result := Evaluate(board); result != nil {
		view.Winner = result.Winner
		view.Line = result.Line[:]
	}

	if view.Status == StatusOngoing {
		view.Turn = TurnAt(current)
	}

	for i := range history {
		view.History[i] = HistoryEntry{
			Index:  i,
			Label:  HistoryLabel(i),
			Active: i == current,
		}
	}

	return view
}

// IsWinningCell reports whether cell belongs to the highlighted line.
func (that *GameView) IsWinningCell(cell int) bool {
	for _, idx := range that.Line {
		if idx == cell {
			return true
		}
	}
	return false
}

func (that *GameView) IsFinished() bool {
	return that.Status == StatusWon || that.Status == StatusDraw
}
