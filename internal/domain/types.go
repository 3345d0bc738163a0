package domain

type PlayerID int

const (
	Empty   PlayerID = 0
	Player1 PlayerID = 1
	Player2 PlayerID = 2
)

const (
	Rows    = 6
	Columns = 7
	ToWin   = 4
)

// Name returns the display color of the player.
func (p PlayerID) Name() string {
	switch p {
	case Player1:
		return "Red"
	case Player2:
		return "Blue"
	default:
		return "Empty"
	}
}

// Mark is the single-character disc used in text renderings of the board.
func (p PlayerID) Mark() string {
	switch p {
	case Player1:
		return "R"
	case Player2:
		return "B"
	default:
		return "-"
	}
}

func (p PlayerID) Valid() bool {
	return p == Player1 || p == Player2
}

func (p PlayerID) Opponent() PlayerID {
	if p == Player1 {
		return Player2
	}
	return Player1
}

// ParsePlayer accepts "1"/"2" or a color name.
func ParsePlayer(s string) (PlayerID, bool) {
	switch s {
	case "1", "red", "Red", "R":
		return Player1, true
	case "2", "blue", "Blue", "B":
		return Player2, true
	}
	return Empty, false
}

// to represent the game status
type GameStatus string

const (
	StatusActive GameStatus = "active"
	StatusWon    GameStatus = "won"
	StatusDraw   GameStatus = "draw"
)

type Outcome struct {
	Status GameStatus `json:"status"`
	Winner PlayerID   `json:"winner,omitempty"`
}

var InProgress = Outcome{Status: StatusActive}

func Won(p PlayerID) Outcome {
	return Outcome{Status: StatusWon, Winner: p}
}

var Drawn = Outcome{Status: StatusDraw}

func (o Outcome) IsFinished() bool {
	return o.Status == StatusWon || o.Status == StatusDraw
}

func (o Outcome) String() string {
	switch o.Status {
	case StatusWon:
		return o.Winner.Name() + " wins!"
	case StatusDraw:
		return "Draw!"
	default:
		return "In progress"
	}
}

type ModeKind string

const (
	HumanVsHuman  ModeKind = "human_vs_human"
	HumanVsOracle ModeKind = "human_vs_oracle"
)

// Mode fixes who controls each side for the lifetime of one game.
type Mode struct {
	Kind           ModeKind `json:"kind"`
	OracleControls PlayerID `json:"oracleControls,omitempty"`
}

func HumanMode() Mode {
	return Mode{Kind: HumanVsHuman}
}

func OracleMode(oracle PlayerID) Mode {
	if !oracle.Valid() {
		oracle = Player2
	}
	return Mode{Kind: HumanVsOracle, OracleControls: oracle}
}

// IsOracle reports whether p's moves come from the oracle in this mode.
func (m Mode) IsOracle(p PlayerID) bool {
	return m.Kind == HumanVsOracle && m.OracleControls == p
}

// ParseMode maps the wire names used by the transports.
func ParseMode(kind string, oracle PlayerID) (Mode, error) {
	switch ModeKind(kind) {
	case HumanVsHuman, "":
		return HumanMode(), nil
	case HumanVsOracle, "oracle", "bot":
		return OracleMode(oracle), nil
	}
	return Mode{}, ErrUnknownMode
}

// ModeFromWire parses a mode name and an optional oracle side ("1", "2" or a
// color); the side defaults to Player2.
func ModeFromWire(kind, oraclePlayer string) (Mode, error) {
	oracle := Player2
	if oraclePlayer != "" {
		p, ok := ParsePlayer(oraclePlayer)
		if !ok {
			return Mode{}, ErrUnknownMode
		}
		oracle = p
	}
	return ParseMode(kind, oracle)
}

// basic error that can occur
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	ErrIllegalMove    Error = "illegal move"
	ErrColumnFull     Error = "column is full"
	ErrOutOfRange     Error = "column out of range"
	ErrNotYourTurn    Error = "not your turn"
	ErrGameFinished   Error = "game already finished"
	ErrOracleInFlight Error = "oracle move in progress"
	ErrOracleFailure  Error = "oracle failure"
	ErrUnknownMode    Error = "unknown mode"
	ErrInvalidState   Error = "invalid board state"
)
