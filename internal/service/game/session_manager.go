package game

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iamasit07/drop4/internal/domain"
	"github.com/iamasit07/drop4/internal/event"
	"github.com/iamasit07/drop4/pkg/logger"
	"github.com/iamasit07/drop4/pkg/uid"
)

// EventSink receives one event per finished game.
type EventSink interface {
	EmitGameOver(e event.GameEvent) error
}

type Session struct {
	GameID     string
	Controller *Controller
	CreatedAt  time.Time

	lastActive  atomic.Int64
	unsubscribe func()
}

// Touch marks the session as used so idle cleanup leaves it alone.
func (s *Session) Touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

// SessionManager keeps the games that are live in this process.
type SessionManager struct {
	sessions map[string]*Session // gameID → Session
	mu       sync.RWMutex

	oracle   Oracle
	policy   OraclePolicy
	events   EventSink
	onRemove []func(gameID string)
	wg       sync.WaitGroup
}

// NewSessionManager shares one oracle between all games. events may be nil.
func NewSessionManager(oracle Oracle, policy OraclePolicy, events EventSink) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		oracle:   oracle,
		policy:   policy,
		events:   events,
	}
}

// OnRemove registers fn to run after a session is removed or evicted.
func (sm *SessionManager) OnRemove(fn func(gameID string)) {
	sm.mu.Lock()
	sm.onRemove = append(sm.onRemove, fn)
	sm.mu.Unlock()
}

func (sm *SessionManager) CreateSession(mode domain.Mode) *Session {
	gameID := uid.GenerateGameID()
	session := &Session{
		GameID:     gameID,
		Controller: NewController(gameID, mode, sm.oracle, sm.policy),
		CreatedAt:  time.Now(),
	}
	session.Touch()
	session.unsubscribe = session.Controller.Subscribe(func(snap Snapshot) {
		session.Touch()
		if snap.Phase == PhaseFinished {
			sm.publishAsync(snap)
		}
	})

	sm.mu.Lock()
	sm.sessions[gameID] = session
	sm.mu.Unlock()

	logger.Info("SESSION", "Created session %s (%s)", gameID, mode.Kind)
	return session
}

func (sm *SessionManager) GetSession(gameID string) (*Session, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	session, exists := sm.sessions[gameID]
	return session, exists
}

// RemoveSession stops the game and forgets it.
func (sm *SessionManager) RemoveSession(gameID string) error {
	sm.mu.Lock()
	session, exists := sm.sessions[gameID]
	if !exists {
		sm.mu.Unlock()
		return fmt.Errorf("session %s not found", gameID)
	}
	delete(sm.sessions, gameID)
	hooks := sm.onRemove
	sm.mu.Unlock()

	logger.Info("SESSION", "Removing session %s", gameID)
	session.close()
	for _, fn := range hooks {
		fn(gameID)
	}
	return nil
}

func (sm *SessionManager) ActiveSessions() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// LiveGames returns a snapshot of every session, newest first.
func (sm *SessionManager) LiveGames() []Snapshot {
	sm.mu.RLock()
	sessions := make([]*Session, 0, len(sm.sessions))
	for _, session := range sm.sessions {
		sessions = append(sessions, session)
	}
	sm.mu.RUnlock()

	games := make([]Snapshot, 0, len(sessions))
	for _, session := range sessions {
		games = append(games, session.Controller.Snapshot())
	}
	sort.Slice(games, func(i, j int) bool {
		return games[i].StartedAt.After(games[j].StartedAt)
	})
	return games
}

// CleanupIdleSessions removes sessions untouched for longer than ttl and
// returns how many were removed.
func (sm *SessionManager) CleanupIdleSessions(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)

	sm.mu.Lock()
	var stale []*Session
	for gameID, session := range sm.sessions {
		if session.LastActive().Before(cutoff) {
			stale = append(stale, session)
			delete(sm.sessions, gameID)
		}
	}
	hooks := sm.onRemove
	sm.mu.Unlock()

	for _, session := range stale {
		session.close()
		for _, fn := range hooks {
			fn(session.GameID)
		}
	}

	if len(stale) > 0 {
		logger.Info("SESSION", "Memory cleanup: removed %d idle game sessions", len(stale))
	}
	return len(stale)
}

// Close stops every game and waits for pending event deliveries.
func (sm *SessionManager) Close() {
	sm.mu.Lock()
	sessions := sm.sessions
	sm.sessions = make(map[string]*Session)
	sm.mu.Unlock()

	for _, session := range sessions {
		session.close()
	}
	sm.wg.Wait()
}

func (s *Session) close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.Controller.Close()
}

// publishAsync delivers the game_over event off the observer path so a slow
// broker never holds up state notifications.
func (sm *SessionManager) publishAsync(snap Snapshot) {
	if sm.events == nil {
		return
	}

	e := gameOverEvent(snap)
	sm.wg.Add(1)
	go func() {
		defer sm.wg.Done()
		if err := sm.events.EmitGameOver(e); err != nil {
			logger.Warn("KAFKA", "Failed to publish game_over for %s: %v", e.GameID, err)
		}
	}()
}

func gameOverEvent(snap Snapshot) event.GameEvent {
	e := event.GameEvent{
		Event:    event.GameOver,
		GameID:   snap.GameID,
		Mode:     string(snap.Mode.Kind),
		Outcome:  string(snap.State.Outcome.Status),
		Moves:    snap.State.MoveCount,
		Duration: snap.UpdatedAt.Sub(snap.StartedAt).Seconds(),
		Fallback: snap.OracleFallback,
		At:       snap.UpdatedAt,
	}
	if snap.State.Outcome.Status == domain.StatusWon {
		e.Winner = snap.State.Outcome.Winner.Name()
	}
	return e
}
