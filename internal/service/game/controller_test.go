package game

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/iamasit07/drop4/internal/domain"
)

type answer struct {
	col int
	err error
}

// scriptedOracle replays answers in order and repeats the last one.
type scriptedOracle struct {
	mu      sync.Mutex
	answers []answer
	calls   int
}

func newScriptedOracle(answers ...answer) *scriptedOracle {
	return &scriptedOracle{answers: answers}
}

func (o *scriptedOracle) RequestMove(_ context.Context, _ domain.Board, _ domain.PlayerID) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	i := o.calls
	if i >= len(o.answers) {
		i = len(o.answers) - 1
	}
	o.calls++
	return o.answers[i].col, o.answers[i].err
}

func (o *scriptedOracle) Calls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls
}

// blockingOracle holds every request until the test answers it. When
// honorCtx is false it keeps waiting after cancellation, like a slow remote
// that ignores the client going away.
type blockingOracle struct {
	asked    chan domain.Board
	answers  chan int
	honorCtx bool
}

func newBlockingOracle(honorCtx bool) *blockingOracle {
	return &blockingOracle{
		asked:    make(chan domain.Board, 4),
		answers:  make(chan int),
		honorCtx: honorCtx,
	}
}

func (o *blockingOracle) RequestMove(ctx context.Context, board domain.Board, _ domain.PlayerID) (int, error) {
	o.asked <- board
	if !o.honorCtx {
		return <-o.answers, nil
	}
	select {
	case col := <-o.answers:
		return col, nil
	case <-ctx.Done():
		return -1, ctx.Err()
	}
}

func testPolicy() OraclePolicy {
	return OraclePolicy{Timeout: time.Second, MaxAttempts: 3, Fallback: "lowest"}
}

func waitAsked(t *testing.T, o *blockingOracle) domain.Board {
	t.Helper()
	select {
	case b := <-o.asked:
		return b
	case <-time.After(2 * time.Second):
		t.Fatal("oracle was never asked")
		return domain.Board{}
	}
}

func clickAll(t *testing.T, c *Controller, cols ...int) {
	t.Helper()
	for _, col := range cols {
		if err := c.Click(col); err != nil {
			t.Fatalf("click %d: %v", col, err)
		}
		c.Wait()
	}
}

func TestHumanVsHumanVerticalWin(t *testing.T) {
	c := NewController("g1", domain.HumanMode(), nil, testPolicy())
	defer c.Close()

	clickAll(t, c, 3, 2, 3, 2, 3, 2, 3)

	snap := c.Snapshot()
	if snap.Phase != PhaseFinished {
		t.Fatalf("phase = %s, want finished", snap.Phase)
	}
	if snap.State.Outcome != domain.Won(domain.Player1) {
		t.Fatalf("outcome = %+v, want Red win", snap.State.Outcome)
	}
	if snap.Status != "Red wins!" {
		t.Fatalf("status = %q", snap.Status)
	}
	if len(snap.State.WinLine) != domain.ToWin {
		t.Fatalf("win line = %v", snap.State.WinLine)
	}

	if err := c.Click(4); !errors.Is(err, domain.ErrGameFinished) {
		t.Fatalf("click after win: %v", err)
	}
	if got := c.Snapshot().State; got.MoveCount != 7 || got.Board != snap.State.Board {
		t.Fatalf("finished game changed")
	}
}

func TestClickRejectsIllegalMoves(t *testing.T) {
	c := NewController("g1", domain.HumanMode(), nil, testPolicy())
	defer c.Close()

	clickAll(t, c, 0, 0, 0, 0, 0, 0)
	before := c.Snapshot()

	if err := c.Click(0); !errors.Is(err, domain.ErrColumnFull) || !errors.Is(err, domain.ErrIllegalMove) {
		t.Fatalf("full column: %v", err)
	}
	if err := c.Click(7); !errors.Is(err, domain.ErrOutOfRange) {
		t.Fatalf("column 7: %v", err)
	}
	if err := c.Click(-1); !errors.Is(err, domain.ErrOutOfRange) {
		t.Fatalf("column -1: %v", err)
	}

	after := c.Snapshot()
	if after.State.Board != before.State.Board || after.State.TurnOwner != domain.Player1 || after.State.MoveCount != 6 {
		t.Fatalf("rejected moves changed the game")
	}
}

func TestOracleAnswerIsApplied(t *testing.T) {
	oracle := newScriptedOracle(answer{col: 4})
	c := NewController("g1", domain.OracleMode(domain.Player2), oracle, testPolicy())
	defer c.Close()

	if err := c.Click(3); err != nil {
		t.Fatalf("click: %v", err)
	}
	c.Wait()

	snap := c.Snapshot()
	if snap.Phase != PhaseAwaitingMove || snap.State.TurnOwner != domain.Player1 {
		t.Fatalf("expected the human to move next, got %s/%v", snap.Phase, snap.State.TurnOwner)
	}
	if snap.State.Board[5][3] != domain.Player1 || snap.State.Board[5][4] != domain.Player2 {
		t.Fatalf("unexpected board:\n%s", snap.State.Board)
	}
	if snap.OracleFallback || snap.OracleError != "" {
		t.Fatalf("clean answer reported as failure: %+v", snap)
	}
}

func TestOracleCanWin(t *testing.T) {
	oracle := newScriptedOracle(answer{col: 6})
	c := NewController("g1", domain.OracleMode(domain.Player2), oracle, testPolicy())
	defer c.Close()

	clickAll(t, c, 0, 0, 1, 1)

	snap := c.Snapshot()
	if snap.State.Outcome != domain.Won(domain.Player2) || snap.Phase != PhaseFinished {
		t.Fatalf("expected Blue win, got %+v in %s", snap.State.Outcome, snap.Phase)
	}
	if snap.Status != "Blue wins!" {
		t.Fatalf("status = %q", snap.Status)
	}
	if err := c.Click(2); !errors.Is(err, domain.ErrGameFinished) {
		t.Fatalf("click after oracle win: %v", err)
	}
}

func TestClicksWhileOracleThinksAreRejected(t *testing.T) {
	oracle := newBlockingOracle(true)
	c := NewController("g1", domain.OracleMode(domain.Player2), oracle, testPolicy())
	defer c.Close()

	if err := c.Click(3); err != nil {
		t.Fatalf("click: %v", err)
	}
	waitAsked(t, oracle)

	if err := c.Click(2); !errors.Is(err, domain.ErrNotYourTurn) {
		t.Fatalf("click during oracle turn: %v", err)
	}
	if err := c.SelectMode(domain.HumanMode()); !errors.Is(err, domain.ErrOracleInFlight) {
		t.Fatalf("mode switch during oracle turn: %v", err)
	}

	snap := c.Snapshot()
	if snap.Phase != PhaseAwaitingOracle || snap.State.MoveCount != 1 || snap.Status != "Blue is thinking..." {
		t.Fatalf("unexpected snapshot: phase %s, moves %d, status %q", snap.Phase, snap.State.MoveCount, snap.Status)
	}

	oracle.answers <- 5
	c.Wait()

	if got := c.Snapshot().State.MoveCount; got != 2 {
		t.Fatalf("move count = %d, want 2", got)
	}
}

func TestOracleFullColumnFallsBack(t *testing.T) {
	// The oracle keeps answering 3; it fills that column itself, then every
	// further answer is illegal.
	oracle := newScriptedOracle(answer{col: 3})
	c := NewController("g1", domain.OracleMode(domain.Player2), oracle, testPolicy())
	defer c.Close()

	clickAll(t, c, 3, 3, 3)
	if domain.IsLegal(c.Snapshot().State.Board, 3) {
		t.Fatalf("column 3 should be full")
	}

	clickAll(t, c, 0)

	snap := c.Snapshot()
	if snap.State.TurnOwner != domain.Player1 || snap.Phase != PhaseAwaitingMove {
		t.Fatalf("turn did not return to the human")
	}
	if snap.State.Board[4][0] != domain.Player2 {
		t.Fatalf("fallback should play the lowest legal column:\n%s", snap.State.Board)
	}
	if !snap.OracleFallback || snap.OracleAttempts != 3 || !strings.Contains(snap.OracleError, "illegal") {
		t.Fatalf("fallback not reported: %+v", snap)
	}
	if oracle.Calls() != 6 {
		t.Fatalf("oracle calls = %d, want 6", oracle.Calls())
	}

	// the next oracle turn starts clean and falls back again
	if err := c.Click(1); err != nil {
		t.Fatalf("click: %v", err)
	}
	c.Wait()
	if snap := c.Snapshot(); snap.State.MoveCount != 10 || !snap.OracleFallback {
		t.Fatalf("unexpected state after second fallback: %+v", snap)
	}
}

func TestOracleRetryRecovers(t *testing.T) {
	oracle := newScriptedOracle(
		answer{err: domain.ErrOracleFailure},
		answer{col: 9},
		answer{col: 5},
	)
	c := NewController("g1", domain.OracleMode(domain.Player2), oracle, testPolicy())
	defer c.Close()

	clickAll(t, c, 3)

	snap := c.Snapshot()
	if snap.State.Board[5][5] != domain.Player2 {
		t.Fatalf("third answer should be played:\n%s", snap.State.Board)
	}
	if snap.OracleFallback || snap.OracleAttempts != 2 {
		t.Fatalf("unexpected oracle status: %+v", snap)
	}
}

func TestOracleFailureFallsBack(t *testing.T) {
	oracle := newScriptedOracle(answer{err: domain.ErrOracleFailure})
	policy := testPolicy()
	policy.MaxAttempts = 2
	c := NewController("g1", domain.OracleMode(domain.Player2), oracle, policy)
	defer c.Close()

	clickAll(t, c, 0)

	snap := c.Snapshot()
	if oracle.Calls() != 2 {
		t.Fatalf("oracle calls = %d, want 2", oracle.Calls())
	}
	if snap.State.Board[4][0] != domain.Player2 || !snap.OracleFallback {
		t.Fatalf("expected fallback at column 0:\n%s", snap.State.Board)
	}
	if !strings.Contains(snap.OracleError, string(domain.ErrOracleFailure)) {
		t.Fatalf("oracle error = %q", snap.OracleError)
	}
}

func TestOracleTimeoutFallsBack(t *testing.T) {
	oracle := newBlockingOracle(true)
	policy := OraclePolicy{Timeout: 20 * time.Millisecond, MaxAttempts: 1, Fallback: "lowest"}
	c := NewController("g1", domain.OracleMode(domain.Player2), oracle, policy)
	defer c.Close()

	clickAll(t, c, 0)

	snap := c.Snapshot()
	if snap.State.MoveCount != 2 || !snap.OracleFallback {
		t.Fatalf("timeout should fall back: %+v", snap)
	}
}

func TestResetDiscardsStaleAnswer(t *testing.T) {
	oracle := newBlockingOracle(false)
	c := NewController("g1", domain.OracleMode(domain.Player2), oracle, testPolicy())
	defer c.Close()

	if err := c.Click(3); err != nil {
		t.Fatalf("click: %v", err)
	}
	waitAsked(t, oracle)
	genBefore := c.Snapshot().Generation

	c.Reset()
	oracle.answers <- 4
	c.Wait()

	snap := c.Snapshot()
	if snap.Generation <= genBefore {
		t.Fatalf("generation did not advance")
	}
	if snap.State.Board != domain.EmptyBoard() || snap.State.MoveCount != 0 {
		t.Fatalf("stale answer reached the new game:\n%s", snap.State.Board)
	}
	if snap.Phase != PhaseAwaitingMove || snap.State.TurnOwner != domain.Player1 {
		t.Fatalf("unexpected phase %s", snap.Phase)
	}
}

func TestResetClearsBoard(t *testing.T) {
	c := NewController("g1", domain.HumanMode(), nil, testPolicy())
	defer c.Close()

	clickAll(t, c, 3, 2, 3, 2, 3, 2, 3)
	c.Reset()

	snap := c.Snapshot()
	empty := 0
	for _, row := range snap.State.Board {
		for _, cell := range row {
			if cell == domain.Empty {
				empty++
			}
		}
	}
	if empty != domain.Rows*domain.Columns {
		t.Fatalf("empty cells = %d, want 42", empty)
	}
	if snap.State.Outcome != domain.InProgress || snap.Phase != PhaseAwaitingMove || snap.State.LastMove != nil {
		t.Fatalf("reset left stale state: %+v", snap)
	}
}

func TestOracleMovesFirst(t *testing.T) {
	oracle := newScriptedOracle(answer{col: 3})
	c := NewController("g1", domain.OracleMode(domain.Player1), oracle, testPolicy())
	defer c.Close()
	c.Wait()

	snap := c.Snapshot()
	if snap.State.Board[5][3] != domain.Player1 || snap.State.TurnOwner != domain.Player2 {
		t.Fatalf("oracle did not open the game:\n%s", snap.State.Board)
	}
	if err := c.Click(3); err != nil {
		t.Fatalf("human reply: %v", err)
	}
	c.Wait()
	if got := c.Snapshot().State.MoveCount; got != 3 {
		t.Fatalf("move count = %d, want 3", got)
	}
}

func TestSelectModeRestarts(t *testing.T) {
	c := NewController("g1", domain.HumanMode(), newScriptedOracle(answer{col: 0}), testPolicy())
	defer c.Close()

	clickAll(t, c, 3, 4)
	if err := c.SelectMode(domain.OracleMode(domain.Player2)); err != nil {
		t.Fatalf("select mode: %v", err)
	}

	snap := c.Snapshot()
	if snap.Mode.Kind != domain.HumanVsOracle || snap.State.MoveCount != 0 {
		t.Fatalf("mode switch did not restart: %+v", snap)
	}
	if err := c.Click(2); err != nil {
		t.Fatalf("click: %v", err)
	}
	c.Wait()
	if c.Snapshot().State.Board[5][0] != domain.Player2 {
		t.Fatalf("oracle should answer in the new mode")
	}
}

func TestSubscribersSeeChangesInOrder(t *testing.T) {
	c := NewController("g1", domain.HumanMode(), nil, testPolicy())
	defer c.Close()

	var mu sync.Mutex
	var counts []int
	unsubscribe := c.Subscribe(func(s Snapshot) {
		mu.Lock()
		counts = append(counts, s.State.MoveCount)
		mu.Unlock()
	})

	clickAll(t, c, 0, 1, 2)
	c.Click(9)
	unsubscribe()
	clickAll(t, c, 3)

	mu.Lock()
	defer mu.Unlock()
	want := []int{0, 1, 2, 3}
	if len(counts) != len(want) {
		t.Fatalf("observed move counts %v, want %v", counts, want)
	}
	for i := range want {
		if counts[i] != want[i] {
			t.Fatalf("observed move counts %v, want %v", counts, want)
		}
	}
}

func TestCloseCancelsPendingOracle(t *testing.T) {
	oracle := newBlockingOracle(true)
	c := NewController("g1", domain.OracleMode(domain.Player2), oracle, testPolicy())

	if err := c.Click(3); err != nil {
		t.Fatalf("click: %v", err)
	}
	waitAsked(t, oracle)

	done := make(chan struct{})
	go func() {
		c.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("close did not cancel the oracle request")
	}

	if got := c.Snapshot().State.MoveCount; got != 1 {
		t.Fatalf("move count = %d, want 1", got)
	}
}
