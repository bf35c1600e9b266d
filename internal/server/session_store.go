package server

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/avoronov/hh-mcp/internal/instrumentation"
)

// Default session lifecycle parameters.
const (
	// DefaultSessionTTL is how long an idle session survives before the
	// sweep reclaims it. Abandoned sessions must not accumulate.
	DefaultSessionTTL = 30 * time.Minute

	// DefaultSweepInterval is how often the idle-session sweep runs.
	DefaultSweepInterval = 5 * time.Minute
)

// ErrSessionNotFound is returned for session ids the store does not know.
// A client presenting a stale id is expected to re-initialize, which mints
// fresh state under a fresh id.
var ErrSessionNotFound = errors.New("session not found")

// Session is one MCP session. A session owns at most one live push stream at
// a time; attaching a new stream cancels the previous one, and closing the
// session cancels whichever stream is live.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu           sync.Mutex
	lastAccess   time.Time
	streamCancel context.CancelFunc
	closed       bool
}

// Touch refreshes the idle clock.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAccess = time.Now()
}

// LastAccess returns when the session last served a request.
func (s *Session) LastAccess() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccess
}

// AttachStream registers the cancel function of a newly opened push stream,
// cancelling any stream that was live before. Returns false if the session
// is already closed.
func (s *Session) AttachStream(cancel context.CancelFunc) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	if s.streamCancel != nil {
		s.streamCancel()
	}
	s.streamCancel = cancel
	return true
}

// DetachStream clears the stream registration if cancel is still the live
// one. Called by the stream goroutine on its way out.
func (s *Session) DetachStream() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streamCancel = nil
}

// Close marks the session closed and cancels its live stream. Idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.streamCancel != nil {
		s.streamCancel()
		s.streamCancel = nil
	}
}

// SessionStore is the registry of live MCP sessions. It is a separate map
// from the OAuth flow store: session ids and authorization state keys live
// in different namespaces and must never be confused for one another.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	ttl         time.Duration
	sweepTicker *time.Ticker
	sweepDone   chan struct{}
	stopOnce    sync.Once
	logger      *slog.Logger
	metrics     *instrumentation.Metrics
}

// NewSessionStore creates a store and starts its idle sweep. The metrics
// recorder may be nil.
func NewSessionStore(ttl, sweepInterval time.Duration, logger *slog.Logger, metrics *instrumentation.Metrics) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = &instrumentation.Metrics{}
	}

	s := &SessionStore{
		sessions:    make(map[string]*Session),
		ttl:         ttl,
		sweepTicker: time.NewTicker(sweepInterval),
		sweepDone:   make(chan struct{}),
		logger:      logger,
		metrics:     metrics,
	}
	go s.sweep()
	return s
}

// Create registers a new session under a fresh uuid and returns it. The
// session is visible in the registry before Create returns, so the caller
// can safely announce the id to the client afterwards.
func (s *SessionStore) Create() *Session {
	sess := &Session{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now(),
		lastAccess: time.Now(),
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	s.metrics.IncrementActiveSessions(context.Background())
	s.logger.Debug("session created", "session_id", sess.ID)
	return sess
}

// Get returns a live session and refreshes its idle clock.
func (s *SessionStore) Get(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.Touch()
	return sess, nil
}

// Delete closes a session and releases its registry entry. Reports whether
// the id was known; deleting an unknown id is not an error.
func (s *SessionStore) Delete(id string) bool {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok {
		sess.Close()
		s.metrics.DecrementActiveSessions(context.Background())
		s.logger.Debug("session deleted", "session_id", id)
	}
	return ok
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// CloseAll closes every live session. Used on shutdown; individual close
// problems are logged, never propagated.
func (s *SessionStore) CloseAll() {
	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
		s.metrics.DecrementActiveSessions(context.Background())
	}
	if len(sessions) > 0 {
		s.logger.Info("closed all sessions", "count", len(sessions))
	}
}

func (s *SessionStore) sweep() {
	for {
		select {
		case <-s.sweepTicker.C:
			s.sweepIdle()
		case <-s.sweepDone:
			return
		}
	}
}

func (s *SessionStore) sweepIdle() {
	cutoff := time.Now().Add(-s.ttl)

	s.mu.Lock()
	var expired []*Session
	for id, sess := range s.sessions {
		if sess.LastAccess().Before(cutoff) {
			delete(s.sessions, id)
			expired = append(expired, sess)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.Close()
		s.metrics.DecrementActiveSessions(context.Background())
	}
	if len(expired) > 0 {
		s.logger.Info("swept idle sessions", "count", len(expired))
	}
}

// Stop halts the sweep goroutine. It does not close live sessions; use
// CloseAll for that. Idempotent.
func (s *SessionStore) Stop() {
	s.stopOnce.Do(func() {
		s.sweepTicker.Stop()
		close(s.sweepDone)
	})
}
