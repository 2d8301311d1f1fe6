package server

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/vango-dev/gesture/pkg/protocol"
	"go.opentelemetry.io/otel"
)

// SessionManager manages all active sessions.
type SessionManager struct {
	sessions map[string]*Session
	mu       sync.RWMutex

	config      *SessionConfig
	maxSessions int
	deps        *sessionDeps

	totalCreated atomic.Uint64
	totalClosed  atomic.Uint64

	onSessionCreate func(*Session)
	onSessionClose  func(*Session)

	logger *slog.Logger
}

// ManagerStats is a snapshot of session counts.
type ManagerStats struct {
	Active       int
	TotalCreated uint64
	TotalClosed  uint64
}

// NewSessionManager creates a SessionManager. maxSessions of 0 means no limit.
func NewSessionManager(config *SessionConfig, maxSessions int, logger *slog.Logger) *SessionManager {
	return newSessionManager(config, maxSessions, &sessionDeps{}, logger)
}

func newSessionManager(config *SessionConfig, maxSessions int, deps *sessionDeps, logger *slog.Logger) *SessionManager {
	if config == nil {
		config = DefaultSessionConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if deps.tracer == nil {
		deps.tracer = otel.Tracer(TracerName)
	}
	return &SessionManager{
		sessions:    make(map[string]*Session),
		config:      config,
		maxSessions: maxSessions,
		deps:        deps,
		logger:      logger.With("component", "session_manager"),
	}
}

// Create creates and registers a session for conn.
func (sm *SessionManager) Create(conn *websocket.Conn, surface string) (*Session, error) {
	sm.mu.Lock()
	if sm.maxSessions > 0 && len(sm.sessions) >= sm.maxSessions {
		sm.mu.Unlock()
		sm.deps.metrics.sessionDenied()
		return nil, ErrMaxSessionsReached
	}

	session := newSession(conn, surface, sm.config, sm.deps, sm.logger)
	session.onClose = sm.remove
	sm.sessions[session.ID] = session
	sm.mu.Unlock()

	sm.totalCreated.Add(1)
	sm.deps.metrics.sessionOpened()
	if sm.onSessionCreate != nil {
		sm.onSessionCreate(session)
	}

	sm.logger.Info("session created",
		"session_id", session.ID,
		"surface", surface,
		"active_sessions", sm.Count())

	return session, nil
}

// Get returns the session with the given ID, or nil.
func (sm *SessionManager) Get(id string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[id]
}

// Close closes a session by ID and removes it from the manager.
func (sm *SessionManager) Close(id string) error {
	session := sm.Get(id)
	if session == nil {
		return ErrSessionNotFound
	}
	session.Close()
	return nil
}

// remove unregisters a closed session. It runs once per session, from
// Session.Close.
func (sm *SessionManager) remove(session *Session) {
	sm.mu.Lock()
	_, ok := sm.sessions[session.ID]
	delete(sm.sessions, session.ID)
	sm.mu.Unlock()

	if !ok {
		return
	}
	sm.totalClosed.Add(1)
	sm.deps.metrics.sessionClosed()
	if sm.onSessionClose != nil {
		sm.onSessionClose(session)
	}
	sm.logger.Info("session closed",
		"session_id", session.ID,
		"active_sessions", sm.Count())
}

// Count returns the number of active sessions.
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// Stats returns a snapshot of session counts.
func (sm *SessionManager) Stats() ManagerStats {
	return ManagerStats{
		Active:       sm.Count(),
		TotalCreated: sm.totalCreated.Load(),
		TotalClosed:  sm.totalClosed.Load(),
	}
}

// ForEach calls fn for each session until fn returns false.
func (sm *SessionManager) ForEach(fn func(*Session) bool) {
	sm.mu.RLock()
	sessions := make([]*Session, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		sessions = append(sessions, s)
	}
	sm.mu.RUnlock()

	for _, s := range sessions {
		if !fn(s) {
			return
		}
	}
}

// SetOnSessionCreate sets a callback run after a session is registered.
func (sm *SessionManager) SetOnSessionCreate(fn func(*Session)) {
	sm.onSessionCreate = fn
}

// SetOnSessionClose sets a callback run after a session is removed.
func (sm *SessionManager) SetOnSessionClose(fn func(*Session)) {
	sm.onSessionClose = fn
}

// CloseAll sends every session a close message and closes it. It returns
// early with ctx's error if ctx ends first.
func (sm *SessionManager) CloseAll(ctx context.Context) error {
	var wg sync.WaitGroup
	var closed atomic.Int64
	sm.ForEach(func(s *Session) bool {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.SendClose(protocol.CloseServerShutdown, "server shutting down")
			s.Close()
			closed.Add(1)
		}()
		return true
	})

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		sm.logger.Info("session manager shutdown", "closed_sessions", closed.Load())
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
