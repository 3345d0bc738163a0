package bot

import "github.com/iamasit07/drop4/internal/domain"

const searchDepth = 6

// calculateHardMove runs a depth-limited negamax with alpha-beta pruning.
func calculateHardMove(board domain.Board, player domain.PlayerID) int {
	columns := centerFirst(board.ValidMoves())
	if len(columns) == 0 {
		return -1
	}
	if col, ok := findWinningMove(board, columns, player); ok {
		return col
	}

	alpha, beta := -2*winScore, 2*winScore
	best, bestScore := columns[0], -2*winScore
	for _, col := range columns {
		next, row, _ := domain.ApplyMove(board, col, player)
		score := -negamax(next, row, col, searchDepth-1, -beta, -alpha, player.Opponent())
		if score > bestScore {
			best, bestScore = col, score
		}
		alpha = max(alpha, score)
	}
	return best
}

// negamax scores board for player, who is to move; (lastRow, lastCol) is the
// disc the opponent just dropped. Losses found with more depth left are
// sooner and score lower.
func negamax(board domain.Board, lastRow, lastCol, depth, alpha, beta int, player domain.PlayerID) int {
	if domain.DetectWin(board, lastRow, lastCol, player.Opponent()) {
		return -(winScore + depth)
	}

	columns := board.ValidMoves()
	if len(columns) == 0 {
		return 0
	}
	if depth == 0 {
		return scorePosition(board, player)
	}

	best := -2 * winScore
	for _, col := range centerFirst(columns) {
		next, row, _ := domain.ApplyMove(board, col, player)
		score := -negamax(next, row, col, depth-1, -beta, -alpha, player.Opponent())
		best = max(best, score)
		alpha = max(alpha, score)
		if alpha >= beta {
			break
		}
	}
	return best
}
