package rest

import (
	"fmt"
	"html/template"
	"math/rand"

	"github.com/rocketscienceinc/tictactoe-web/internal/entity"
)

const confettiPieces = 80

type confettiPiece struct {
	Style template.CSS
}

var templateFuncs = template.FuncMap{
	"confetti": confetti,
	"status":   statusLine,
	"cells":    cells,
}

// confetti scatters the overlay pieces. It is decoration only.
func confetti() []confettiPiece {
	pieces := make([]confettiPiece, confettiPieces)
	for i := range pieces {
		//nolint: gosec // decoration
		pieces[i].Style = template.CSS(fmt.Sprintf(
			"left:%.1f%%;background-color:hsl(%d,100%%,60%%);animation-delay:%.2fs;transform:rotate(%ddeg)",
			rand.Float64()*100, rand.Intn(360), rand.Float64()*0.5, rand.Intn(360),
		))
	}
	return pieces
}

func statusLine(view *entity.GameView) string {
	switch view.Status {
	case entity.StatusWon:
		return "Winner: " + string(view.Winner)
	case entity.StatusDraw:
		return "Draw"
	default:
		return "Next player: " + string(view.Turn)
	}
}

type cellView struct {
	Index    int
	Mark     entity.Mark
	Winning  bool
	Playable bool
}

func cells(view *entity.GameView) []cellView {
	out := make([]cellView, entity.BoardSize)
	for i, mark := range view.Board {
		out[i] = cellView{
			Index:    i,
			Mark:     mark,
			Winning:  view.IsWinningCell(i),
			Playable: mark == entity.EmptyCell && !view.IsFinished(),
		}
	}
	return out
}
