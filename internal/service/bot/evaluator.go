package bot

import (
	"slices"

	"github.com/iamasit07/drop4/internal/domain"
)

// Heuristic weights. A window is any run of four aligned cells; only windows
// a player can still complete score.
const (
	winScore      = 1_000_000
	threeOpen     = 50
	threeOpposed  = 70
	twoOpen       = 8
	playableBonus = 30
	centerDisc    = 6
)

var directions = [4][2]int{
	{0, 1},  // horizontal
	{1, 0},  // vertical
	{1, 1},  // diagonal \
	{1, -1}, // diagonal /
}

type window [domain.ToWin][2]int

var windows = buildWindows()

func buildWindows() []window {
	var out []window
	for row := 0; row < domain.Rows; row++ {
		for col := 0; col < domain.Columns; col++ {
			for _, d := range directions {
				var w window
				ok := true
				for i := 0; i < domain.ToWin; i++ {
					r, c := row+d[0]*i, col+d[1]*i
					if !isInBounds(r, c) {
						ok = false
						break
					}
					w[i] = [2]int{r, c}
				}
				if ok {
					out = append(out, w)
				}
			}
		}
	}
	return out
}

// scorePosition rates a non-terminal board from player's side.
func scorePosition(board domain.Board, player domain.PlayerID) int {
	opponent := player.Opponent()
	score := 0

	center := domain.Columns / 2
	for row := 0; row < domain.Rows; row++ {
		switch board[row][center] {
		case player:
			score += centerDisc
		case opponent:
			score -= centerDisc
		}
	}

	for _, w := range windows {
		score += scoreWindow(board, w, player, opponent)
	}
	return score
}

func scoreWindow(board domain.Board, w window, player, opponent domain.PlayerID) int {
	var own, theirs, empty int
	playable := false
	for _, cell := range w {
		switch board[cell[0]][cell[1]] {
		case player:
			own++
		case opponent:
			theirs++
		default:
			empty++
			if isPlayableSpace(board, cell[0], cell[1]) {
				playable = true
			}
		}
	}

	bonus := 0
	if playable {
		bonus = playableBonus
	}

	switch {
	case own == 3 && empty == 1:
		return threeOpen + bonus
	case own == 2 && empty == 2:
		return twoOpen
	case theirs == 3 && empty == 1:
		return -(threeOpposed + bonus)
	case theirs == 2 && empty == 2:
		return -twoOpen / 2
	}
	return 0
}

// findWinningMove returns a column in columns that completes four for player.
func findWinningMove(board domain.Board, columns []int, player domain.PlayerID) (int, bool) {
	for _, col := range columns {
		next, row, err := domain.ApplyMove(board, col, player)
		if err != nil {
			continue
		}
		if domain.DetectWin(next, row, col, player) {
			return col, true
		}
	}
	return -1, false
}

// centerFirst orders columns by distance from the middle.
func centerFirst(columns []int) []int {
	center := domain.Columns / 2
	ordered := slices.Clone(columns)
	slices.SortStableFunc(ordered, func(a, b int) int {
		return abs(a-center) - abs(b-center)
	})
	return ordered
}

// isPlayableSpace reports whether a disc dropped now would land on (row, col).
func isPlayableSpace(board domain.Board, row, col int) bool {
	if row == domain.Rows-1 {
		return true
	}
	return board[row+1][col] != domain.Empty
}

func isInBounds(row, col int) bool {
	return row >= 0 && row < domain.Rows && col >= 0 && col < domain.Columns
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
