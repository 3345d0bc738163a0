package domain

import (
	"encoding/json"
	"strings"
)

// Board is a value type: assigning or passing it copies every cell, so a
// Board held by a reader never changes under it.
// Row 0 is the top of the grid and row Rows-1 the bottom.
type Board [Rows][Columns]PlayerID

func EmptyBoard() Board {
	return Board{}
}

func inBounds(row, column int) bool {
	return row >= 0 && row < Rows && column >= 0 && column < Columns
}

// TopEmptyRow returns the lowest empty row of column, which is where a disc
// dropped into it would land.
func TopEmptyRow(board Board, column int) (int, bool) {
	if column < 0 || column >= Columns {
		return -1, false
	}

	for row := Rows - 1; row >= 0; row-- {
		if board[row][column] == Empty {
			return row, true
		}
	}
	return -1, false
}

// Place returns a copy of board with a single cell set. The caller must have
// resolved row through TopEmptyRow; anything else violates the gravity
// invariant and panics.
func Place(board Board, row, column int, player PlayerID) Board {
	if !inBounds(row, column) || !player.Valid() {
		panic(ErrInvalidState)
	}
	if board[row][column] != Empty {
		panic(ErrInvalidState)
	}
	if row < Rows-1 && board[row+1][column] == Empty {
		panic(ErrInvalidState)
	}

	board[row][column] = player
	return board
}

// IsFull reports whether no column has room left.
func (b Board) IsFull() bool {
	for c := 0; c < Columns; c++ {
		if b[0][c] == Empty {
			return false
		}
	}
	return true
}

func (b Board) ValidMoves() []int {
	moves := []int{}
	for col := 0; col < Columns; col++ {
		if b[0][col] == Empty {
			moves = append(moves, col)
		}
	}
	return moves
}

func (b Board) DiscCount() int {
	n := 0
	for r := 0; r < Rows; r++ {
		for c := 0; c < Columns; c++ {
			if b[r][c] != Empty {
				n++
			}
		}
	}
	return n
}

// Marks renders the board as a matrix of disc marks, "-" for empty.
func (b Board) Marks() [][]string {
	marks := make([][]string, Rows)
	for r := range marks {
		marks[r] = make([]string, Columns)
		for c := range marks[r] {
			marks[r][c] = b[r][c].Mark()
		}
	}
	return marks
}

// String is the human-readable grid: one line per row, top first, marks
// joined by spaces.
func (b Board) String() string {
	var sb strings.Builder
	for r := 0; r < Rows; r++ {
		for c := 0; c < Columns; c++ {
			if c > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(b[r][c].Mark())
		}
		if r < Rows-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// Key is a compact single-line encoding, used for cache keys.
func (b Board) Key() string {
	var sb strings.Builder
	sb.Grow(Rows*Columns + Rows)
	for r := 0; r < Rows; r++ {
		if r > 0 {
			sb.WriteByte('/')
		}
		for c := 0; c < Columns; c++ {
			sb.WriteString(b[r][c].Mark())
		}
	}
	return sb.String()
}

// Ints converts the board for JSON clients that expect nested int arrays.
func (b Board) Ints() [][]int {
	out := make([][]int, Rows)
	for r := range out {
		out[r] = make([]int, Columns)
		for c := range out[r] {
			out[r][c] = int(b[r][c])
		}
	}
	return out
}

func (b Board) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Ints())
}

// this counts the number of disks in a specific direction, not including
// the starting cell
func CountDiskInDirection(board Board, row, column int, deltaRow, deltaCol int, player PlayerID) int {
	count := 0
	r, c := row+deltaRow, column+deltaCol
	for inBounds(r, c) && board[r][c] == player {
		count++
		r += deltaRow
		c += deltaCol
	}
	return count
}
