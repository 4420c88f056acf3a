package main

import (
	"log"
	"sync"
	"time"

	"snake-server/sim"
)

const maxSessions = 100

// SessionIdleTimeout is how long an empty session survives before it is
// reaped. Tests shorten it.
var SessionIdleTimeout = 30 * time.Second

// Session represents a game session that players can join
type Session struct {
	ID         string
	Name       string
	Game       *Game
	lastActive time.Time
}

// SessionManager handles creation and lookup of sessions
type SessionManager struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	cfg       sim.Config
	db        *DB
	analytics *Analytics
}

// NewSessionManager creates a SessionManager whose games run with cfg
func NewSessionManager(cfg sim.Config, db *DB, analytics *Analytics) *SessionManager {
	return &SessionManager{
		sessions:  make(map[string]*Session),
		cfg:       cfg,
		db:        db,
		analytics: analytics,
	}
}

// CreateSession creates a new game session. Returns nil if limit reached.
func (sm *SessionManager) CreateSession(name string) *Session {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if len(sm.sessions) >= maxSessions {
		return nil
	}

	id := GenerateUUID()
	game, err := NewGame(id, sm.cfg, sm.db, sm.analytics)
	if err != nil {
		log.Printf("create session: %v", err)
		return nil
	}
	sess := &Session{
		ID:         id,
		Name:       name,
		Game:       game,
		lastActive: time.Now(),
	}
	sm.sessions[id] = sess
	go game.Run()
	sm.scheduleReap(id, SessionIdleTimeout)
	sm.analytics.SetActiveSessions(len(sm.sessions))
	return sess
}

// GetSession returns a session by ID
func (sm *SessionManager) GetSession(id string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[id]
}

// MarkActive pushes back the idle deadline of a session
func (sm *SessionManager) MarkActive(id string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sess, ok := sm.sessions[id]; ok {
		sess.lastActive = time.Now()
	}
}

// RemovePlayer removes a player from a session. An emptied session is
// reaped once it has been idle for SessionIdleTimeout.
func (sm *SessionManager) RemovePlayer(sessionID, playerID string) {
	sm.mu.RLock()
	sess, ok := sm.sessions[sessionID]
	sm.mu.RUnlock()
	if !ok {
		return
	}
	sess.Game.RemovePlayer(playerID)

	if sess.Game.PlayerCount() == 0 {
		sm.scheduleReap(sessionID, SessionIdleTimeout)
	}
}

func (sm *SessionManager) scheduleReap(id string, after time.Duration) {
	time.AfterFunc(after, func() { sm.reap(id) })
}

// reap drops the session if it is still empty and idle
func (sm *SessionManager) reap(id string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sess, ok := sm.sessions[id]
	if !ok || sess.Game.PlayerCount() > 0 {
		return
	}
	if idle := time.Since(sess.lastActive); idle < SessionIdleTimeout {
		sm.scheduleReap(id, SessionIdleTimeout-idle)
		return
	}
	sess.Game.Stop()
	delete(sm.sessions, id)
	sm.analytics.SetActiveSessions(len(sm.sessions))
}

// Count returns the number of live sessions
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// ListSessions returns info about all active sessions
func (sm *SessionManager) ListSessions() []SessionInfo {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	list := make([]SessionInfo, 0, len(sm.sessions))
	for _, sess := range sm.sessions {
		list = append(list, SessionInfo{
			ID:      sess.ID,
			Name:    sess.Name,
			Players: sess.Game.PlayerCount(),
			Phase:   int(sess.Game.Phase()),
		})
	}
	return list
}
