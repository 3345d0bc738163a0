package bot

import (
	"context"

	"github.com/iamasit07/drop4/internal/domain"
)

// CalculateBestMove picks a column for player with the named strategy
// ("easy", "medium" or "hard"; anything else plays medium). It returns -1
// only when the board is full.
func CalculateBestMove(board domain.Board, player domain.PlayerID, difficulty string) int {
	switch difficulty {
	case "easy":
		return calculateEasyMove(board, player)
	case "hard":
		return calculateHardMove(board, player)
	default:
		return calculateMediumMove(board, player)
	}
}

// Oracle answers move requests in-process with one of the built-in strategies.
type Oracle struct {
	Difficulty string
}

func NewOracle(difficulty string) *Oracle {
	return &Oracle{Difficulty: difficulty}
}

func (o *Oracle) RequestMove(ctx context.Context, board domain.Board, player domain.PlayerID) (int, error) {
	if err := ctx.Err(); err != nil {
		return -1, err
	}
	col := CalculateBestMove(board, player, o.Difficulty)
	if col < 0 {
		return -1, domain.ErrColumnFull
	}
	return col, nil
}

func (o *Oracle) Name() string {
	return "local/" + o.Difficulty
}

// Fallback picks a legal column when the oracle could not supply one.
// policy "lowest" takes the lowest-index open column; otherwise it names a
// difficulty.
func Fallback(policy string, board domain.Board, player domain.PlayerID) (int, bool) {
	if policy == "lowest" || policy == "" {
		return domain.LowestLegalColumn(board)
	}
	col := CalculateBestMove(board, player, policy)
	if !domain.IsLegal(board, col) {
		return domain.LowestLegalColumn(board)
	}
	return col, true
}
