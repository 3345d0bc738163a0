package domain

import "fmt"

// horizontal, vertical, diagonal \ and diagonal /
var directions = [4][2]int{
	{0, 1},
	{1, 0},
	{1, 1},
	{1, -1},
}

func IsLegal(board Board, column int) bool {
	_, ok := TopEmptyRow(board, column)
	return ok
}

// ApplyMove drops a disc for player into column and returns the new board
// together with the row the disc landed in.
func ApplyMove(board Board, column int, player PlayerID) (Board, int, error) {
	if column < 0 || column >= Columns {
		return board, -1, fmt.Errorf("%w: column %d: %w", ErrIllegalMove, column, ErrOutOfRange)
	}

	row, ok := TopEmptyRow(board, column)
	if !ok {
		return board, -1, fmt.Errorf("%w: column %d: %w", ErrIllegalMove, column, ErrColumnFull)
	}

	return Place(board, row, column, player), row, nil
}

// DetectWin only looks at lines through the disc just placed, since no other
// line can have changed.
func DetectWin(board Board, lastRow, lastColumn int, player PlayerID) bool {
	return len(WinningLine(board, lastRow, lastColumn, player)) > 0
}

// WinningLine returns the cells of the first line of at least ToWin discs
// through (lastRow, lastColumn), or nil.
func WinningLine(board Board, lastRow, lastColumn int, player PlayerID) [][2]int {
	if !inBounds(lastRow, lastColumn) || board[lastRow][lastColumn] != player {
		return nil
	}

	for _, dir := range directions {
		forward := CountDiskInDirection(board, lastRow, lastColumn, dir[0], dir[1], player)
		backward := CountDiskInDirection(board, lastRow, lastColumn, -dir[0], -dir[1], player)
		if 1+forward+backward < ToWin {
			continue
		}

		line := make([][2]int, 0, 1+forward+backward)
		for step := -backward; step <= forward; step++ {
			line = append(line, [2]int{lastRow + step*dir[0], lastColumn + step*dir[1]})
		}
		return line
	}
	return nil
}

// IsDraw is a terminal classification: the board itself accepts being full.
// Callers check DetectWin for the last move first.
func IsDraw(board Board) bool {
	return board.IsFull()
}

// Classify gives the outcome after player's disc landed at (row, column).
func Classify(board Board, row, column int, player PlayerID) Outcome {
	if DetectWin(board, row, column, player) {
		return Won(player)
	}
	if IsDraw(board) {
		return Drawn
	}
	return InProgress
}

// LowestLegalColumn is the deterministic fallback choice.
func LowestLegalColumn(board Board) (int, bool) {
	for col := 0; col < Columns; col++ {
		if IsLegal(board, col) {
			return col, true
		}
	}
	return -1, false
}
