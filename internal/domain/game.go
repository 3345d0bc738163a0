package domain

// GameState is replaced as a whole on every accepted move.
type GameState struct {
	Board     Board    `json:"board"`
	TurnOwner PlayerID `json:"turnOwner"`
	Outcome   Outcome  `json:"outcome"`
	MoveCount int      `json:"moveCount"`
	LastMove  *Move    `json:"lastMove,omitempty"`
	WinLine   [][2]int `json:"winLine,omitempty"`
}

type Move struct {
	Player PlayerID `json:"player"`
	Column int      `json:"column"`
	Row    int      `json:"row"`
}

func NewGameState() GameState {
	return GameState{
		Board:     EmptyBoard(),
		TurnOwner: Player1,
		Outcome:   InProgress,
	}
}

func (g GameState) IsFinished() bool {
	return g.Outcome.IsFinished()
}

// Play applies a move for the current turn owner and returns the next state.
// g itself is left untouched.
func (g GameState) Play(column int) (GameState, error) {
	if g.IsFinished() {
		return g, ErrGameFinished
	}

	board, row, err := ApplyMove(g.Board, column, g.TurnOwner)
	if err != nil {
		return g, err
	}

	next := GameState{
		Board:     board,
		TurnOwner: g.TurnOwner,
		MoveCount: g.MoveCount + 1,
		LastMove:  &Move{Player: g.TurnOwner, Column: column, Row: row},
	}

	if line := WinningLine(board, row, column, g.TurnOwner); line != nil {
		next.Outcome = Won(g.TurnOwner)
		next.WinLine = line
		return next, nil
	}

	if IsDraw(board) {
		next.Outcome = Drawn
		return next, nil
	}

	next.Outcome = InProgress
	next.TurnOwner = g.TurnOwner.Opponent()
	return next, nil
}
