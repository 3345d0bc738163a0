package game

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iamasit07/drop4/internal/domain"
	"github.com/iamasit07/drop4/internal/service/bot"
	"github.com/iamasit07/drop4/pkg/logger"
)

// Oracle chooses a column for player. Answers are untrusted.
type Oracle interface {
	RequestMove(ctx context.Context, board domain.Board, player domain.PlayerID) (int, error)
}

type Phase string

const (
	PhaseAwaitingMove   Phase = "awaiting_move"
	PhaseAwaitingOracle Phase = "awaiting_oracle"
	PhaseFinished       Phase = "finished"
)

// OraclePolicy bounds one oracle turn: each request gets Timeout, at most
// MaxAttempts requests are made, then Fallback ("lowest" or a bot
// difficulty) picks the column.
type OraclePolicy struct {
	Timeout     time.Duration
	MaxAttempts int
	Fallback    string
}

func DefaultOraclePolicy() OraclePolicy {
	return OraclePolicy{Timeout: 20 * time.Second, MaxAttempts: 3, Fallback: "lowest"}
}

// Snapshot is a copy of the controller state, safe to hand to renderers.
type Snapshot struct {
	GameID         string           `json:"gameId"`
	State          domain.GameState `json:"state"`
	Phase          Phase            `json:"phase"`
	Mode           domain.Mode      `json:"mode"`
	Status         string           `json:"status"`
	Generation     uint64           `json:"generation"`
	OracleError    string           `json:"oracleError,omitempty"`
	OracleAttempts int              `json:"oracleAttempts,omitempty"`
	OracleFallback bool             `json:"oracleFallback,omitempty"`
	StartedAt      time.Time        `json:"startedAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

// Controller owns one game. All state changes happen under mu; the oracle is
// consulted on its own goroutine and its answer re-enters through
// applyOracleMove, which discards it unless the dispatch generation still
// matches.
type Controller struct {
	id     string
	oracle Oracle
	policy OraclePolicy

	mu             sync.Mutex
	state          domain.GameState
	mode           domain.Mode
	phase          Phase
	generation     uint64
	cancelOracle   context.CancelFunc
	oracleErr      string
	oracleAttempts int
	oracleFallback bool
	startedAt      time.Time
	updatedAt      time.Time
	closed         bool

	notifyMu  sync.Mutex
	observers map[int]func(Snapshot)
	nextObsID int

	wg sync.WaitGroup
}

func NewController(id string, mode domain.Mode, oracle Oracle, policy OraclePolicy) *Controller {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.Timeout <= 0 {
		policy.Timeout = DefaultOraclePolicy().Timeout
	}

	c := &Controller{
		id:        id,
		oracle:    oracle,
		policy:    policy,
		mode:      mode,
		observers: make(map[int]func(Snapshot)),
	}

	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()
	return c
}

func (c *Controller) ID() string {
	return c.id
}

// Subscribe calls fn with the current snapshot and then after every state
// change, and returns a function that removes it. Calls are serialized in
// change order; fn must not call back into the controller.
func (c *Controller) Subscribe(fn func(Snapshot)) func() {
	c.mu.Lock()
	snap := c.snapshotLocked()
	c.notifyMu.Lock()
	c.mu.Unlock()

	id := c.nextObsID
	c.nextObsID++
	c.observers[id] = fn
	fn(snap)
	c.notifyMu.Unlock()

	return func() {
		c.notifyMu.Lock()
		delete(c.observers, id)
		c.notifyMu.Unlock()
	}
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Click is a move intent from the human side. Intents that do not fit the
// current phase leave the game untouched and are reported so transports can
// decide whether to surface them.
func (c *Controller) Click(column int) error {
	c.mu.Lock()

	switch c.phase {
	case PhaseFinished:
		c.mu.Unlock()
		return domain.ErrGameFinished
	case PhaseAwaitingOracle:
		c.mu.Unlock()
		return domain.ErrNotYourTurn
	}

	if c.mode.IsOracle(c.state.TurnOwner) {
		c.mu.Unlock()
		return domain.ErrNotYourTurn
	}

	next, err := c.state.Play(column)
	if err != nil {
		c.mu.Unlock()
		return err
	}

	c.clearOracleStatusLocked()
	c.advanceLocked(next)
	c.unlockAndNotify()
	return nil
}

// SelectMode switches between human-vs-human and human-vs-oracle. The game
// restarts; the switch is refused while an oracle answer is pending.
func (c *Controller) SelectMode(mode domain.Mode) error {
	c.mu.Lock()
	if c.phase == PhaseAwaitingOracle {
		c.mu.Unlock()
		return domain.ErrOracleInFlight
	}

	c.mode = mode
	c.resetLocked()
	logger.Info("GAME", "Game %s switched to %s", c.id, mode.Kind)
	c.unlockAndNotify()
	return nil
}

// Reset starts a fresh game in the current mode from any phase.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.resetLocked()
	logger.Info("GAME", "Game %s reset (generation %d)", c.id, c.generation)
	c.unlockAndNotify()
}

// Close cancels any pending oracle request and waits for its goroutine.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.generation++
	if c.cancelOracle != nil {
		c.cancelOracle()
		c.cancelOracle = nil
	}
	c.mu.Unlock()

	c.wg.Wait()
}

// Wait blocks until no oracle goroutine is running.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) resetLocked() {
	c.generation++
	if c.cancelOracle != nil {
		c.cancelOracle()
		c.cancelOracle = nil
	}

	c.state = domain.NewGameState()
	c.phase = PhaseAwaitingMove
	c.clearOracleStatusLocked()
	c.startedAt = time.Now()
	c.updatedAt = c.startedAt

	if c.mode.IsOracle(c.state.TurnOwner) {
		c.dispatchLocked()
	}
}

// advanceLocked installs the state produced by an accepted move.
func (c *Controller) advanceLocked(next domain.GameState) {
	c.state = next
	c.updatedAt = time.Now()

	if next.IsFinished() {
		c.phase = PhaseFinished
		logger.Info("GAME", "Game %s finished: %s after %d moves", c.id, next.Outcome, next.MoveCount)
		return
	}

	c.phase = PhaseAwaitingMove
	if c.mode.IsOracle(next.TurnOwner) {
		c.dispatchLocked()
	}
}

// dispatchLocked enters AwaitingOracle and starts the single request for
// this turn, tagged with a fresh generation.
func (c *Controller) dispatchLocked() {
	if c.phase == PhaseAwaitingOracle || c.closed {
		return
	}

	c.generation++
	c.phase = PhaseAwaitingOracle
	c.clearOracleStatusLocked()

	ctx, cancel := context.WithCancel(context.Background())
	c.cancelOracle = cancel

	gen := c.generation
	board := c.state.Board
	player := c.state.TurnOwner

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()
		c.runOracleTurn(ctx, gen, board, player)
	}()
}

func (c *Controller) runOracleTurn(ctx context.Context, gen uint64, board domain.Board, player domain.PlayerID) {
	if c.oracle != nil {
		for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
			if ctx.Err() != nil || c.isStale(gen) {
				return
			}

			col, err := c.request(ctx, board, player)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Warn("ORACLE", "Game %s attempt %d/%d failed: %v", c.id, attempt, c.policy.MaxAttempts, err)
				c.recordOracleError(gen, attempt, err.Error())
				continue
			}

			if !domain.IsLegal(board, col) {
				logger.Warn("ORACLE", "Game %s attempt %d/%d chose illegal column %d", c.id, attempt, c.policy.MaxAttempts, col)
				c.recordOracleError(gen, attempt, fmt.Sprintf("%s: column %d", domain.ErrIllegalMove, col))
				continue
			}

			c.applyOracleMove(gen, col, false)
			return
		}
	}

	col, ok := bot.Fallback(c.policy.Fallback, board, player)
	if !ok {
		logger.Error("ORACLE", "Game %s has no legal column for the fallback", c.id)
		return
	}
	logger.Info("ORACLE", "Game %s falls back to column %d (%s)", c.id, col, c.policy.Fallback)
	c.applyOracleMove(gen, col, true)
}

func (c *Controller) request(ctx context.Context, board domain.Board, player domain.PlayerID) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.policy.Timeout)
	defer cancel()
	return c.oracle.RequestMove(ctx, board, player)
}

func (c *Controller) isStale(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen != c.generation || c.phase != PhaseAwaitingOracle
}

func (c *Controller) recordOracleError(gen uint64, attempt int, msg string) {
	c.mu.Lock()
	if gen != c.generation || c.phase != PhaseAwaitingOracle {
		c.mu.Unlock()
		return
	}
	c.oracleErr = msg
	c.oracleAttempts = attempt
	c.updatedAt = time.Now()
	c.unlockAndNotify()
}

// applyOracleMove runs the oracle's column through the same path as a human
// move. It reports false when the answer was stale.
func (c *Controller) applyOracleMove(gen uint64, column int, fallback bool) bool {
	c.mu.Lock()
	if gen != c.generation || c.phase != PhaseAwaitingOracle {
		c.mu.Unlock()
		logger.Debug("ORACLE", "Game %s discarded stale answer (generation %d)", c.id, gen)
		return false
	}

	next, err := c.state.Play(column)
	if err != nil {
		// the column was checked against this exact board
		c.mu.Unlock()
		panic(fmt.Errorf("%w: oracle column %d rejected: %v", domain.ErrInvalidState, column, err))
	}

	c.cancelOracle = nil
	c.phase = PhaseAwaitingMove
	// the failure trail of this turn stays visible until the human moves
	c.oracleFallback = fallback
	c.advanceLocked(next)
	c.unlockAndNotify()
	return true
}

func (c *Controller) clearOracleStatusLocked() {
	c.oracleErr = ""
	c.oracleAttempts = 0
	c.oracleFallback = false
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		GameID:         c.id,
		State:          c.state,
		Phase:          c.phase,
		Mode:           c.mode,
		Status:         statusText(c.state, c.phase),
		Generation:     c.generation,
		OracleError:    c.oracleErr,
		OracleAttempts: c.oracleAttempts,
		OracleFallback: c.oracleFallback,
		StartedAt:      c.startedAt,
		UpdatedAt:      c.updatedAt,
	}
}

// unlockAndNotify releases mu and delivers the snapshot taken under it.
// notifyMu is taken before mu is released so observers see changes in order.
func (c *Controller) unlockAndNotify() {
	snap := c.snapshotLocked()
	c.notifyMu.Lock()
	c.mu.Unlock()
	defer c.notifyMu.Unlock()

	for _, fn := range c.observers {
		fn(snap)
	}
}

func statusText(state domain.GameState, phase Phase) string {
	switch phase {
	case PhaseFinished:
		return state.Outcome.String()
	case PhaseAwaitingOracle:
		return state.TurnOwner.Name() + " is thinking..."
	default:
		return state.TurnOwner.Name() + "'s turn"
	}
}
