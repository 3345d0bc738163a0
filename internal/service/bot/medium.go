package bot

import "github.com/iamasit07/drop4/internal/domain"

// calculateMediumMove looks one move ahead: it wins when it can, blocks a
// forced loss, and otherwise avoids filling the cell under an opponent win.
func calculateMediumMove(board domain.Board, player domain.PlayerID) int {
	columns := centerFirst(board.ValidMoves())
	if len(columns) == 0 {
		return -1
	}

	opponent := player.Opponent()
	if col, ok := findWinningMove(board, columns, player); ok {
		return col
	}
	if col, ok := findWinningMove(board, columns, opponent); ok {
		return col
	}

	best, bestScore := -1, 0
	for _, col := range columns {
		next, _, _ := domain.ApplyMove(board, col, player)
		score := scorePosition(next, player)
		if _, handsOver := findWinningMove(next, next.ValidMoves(), opponent); handsOver {
			score -= winScore / 2
		}
		// ties go to the column nearer the center
		if best == -1 || score > bestScore {
			best, bestScore = col, score
		}
	}
	return best
}
