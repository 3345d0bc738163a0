package bot

import (
	"math/rand"

	"github.com/iamasit07/drop4/internal/domain"
)

// calculateEasyMove takes or blocks an immediate win and plays at random
// otherwise.
func calculateEasyMove(board domain.Board, player domain.PlayerID) int {
	columns := board.ValidMoves()
	if len(columns) == 0 {
		return -1
	}

	if col, ok := findWinningMove(board, columns, player); ok {
		return col
	}
	if col, ok := findWinningMove(board, columns, player.Opponent()); ok {
		return col
	}

	return columns[rand.Intn(len(columns))]
}
