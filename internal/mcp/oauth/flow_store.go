package oauth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// PendingAuthorization is one in-flight authorize redirect awaiting completion
// at hh.ru. It is keyed by StateKey, the generated value sent upstream as the
// state parameter; the caller's own state is parked in OriginalState and never
// leaves the process until the callback resumes the flow.
type PendingAuthorization struct {
	StateKey            string
	ClientID            string
	OriginalRedirectURI string
	OriginalState       string
	CodeChallenge       string
	CodeChallengeMethod string
	CreatedAt           time.Time
	ExpiresAt           time.Time
}

// FlowStore holds pending authorizations. It is deliberately separate from the
// MCP session registry: state keys and session ids live in different maps so
// the two namespaces can never collide.
type FlowStore struct {
	mu       sync.Mutex
	pending  map[string]*PendingAuthorization
	ttl      time.Duration
	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
	logger   *slog.Logger
}

// NewFlowStore creates a flow store and starts its sweep goroutine. Call Stop
// to release it.
func NewFlowStore(ttl, cleanupInterval time.Duration, logger *slog.Logger) *FlowStore {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultPendingTTL
	}
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}

	s := &FlowStore{
		pending: make(map[string]*PendingAuthorization),
		ttl:     ttl,
		ticker:  time.NewTicker(cleanupInterval),
		done:    make(chan struct{}),
		logger:  logger,
	}
	go s.sweep()
	return s
}

// Create generates a fresh state key, stores a pending authorization under it
// and returns the entry.
func (s *FlowStore) Create(clientID, redirectURI, state, codeChallenge, codeChallengeMethod string) (*PendingAuthorization, error) {
	key, err := generateStateKey()
	if err != nil {
		return nil, fmt.Errorf("generate state key: %w", err)
	}

	now := time.Now()
	p := &PendingAuthorization{
		StateKey:            key,
		ClientID:            clientID,
		OriginalRedirectURI: redirectURI,
		OriginalState:       state,
		CodeChallenge:       codeChallenge,
		CodeChallengeMethod: codeChallengeMethod,
		CreatedAt:           now,
		ExpiresAt:           now.Add(s.ttl),
	}

	s.mu.Lock()
	s.pending[key] = p
	s.mu.Unlock()

	s.logger.Debug("saved pending authorization",
		"client_id", clientID,
		"redirect_uri", redirectURI,
		"expires_at", p.ExpiresAt)
	return p, nil
}

// Consume retrieves and deletes a pending authorization in one step, so a
// state key can never resolve twice. A repeated callback with the same state
// fails here.
func (s *FlowStore) Consume(stateKey string) (*PendingAuthorization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[stateKey]
	if !ok {
		return nil, fmt.Errorf("pending authorization not found")
	}
	delete(s.pending, stateKey)

	if time.Now().After(p.ExpiresAt) {
		return nil, fmt.Errorf("pending authorization expired")
	}
	return p, nil
}

// Len reports the number of outstanding pending authorizations.
func (s *FlowStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *FlowStore) sweep() {
	for {
		select {
		case <-s.ticker.C:
			s.sweepExpired()
		case <-s.done:
			return
		}
	}
}

func (s *FlowStore) sweepExpired() {
	now := time.Now()
	deleted := 0

	s.mu.Lock()
	for key, p := range s.pending {
		if now.After(p.ExpiresAt) {
			delete(s.pending, key)
			deleted++
		}
	}
	s.mu.Unlock()

	if deleted > 0 {
		s.logger.Debug("swept expired pending authorizations", "count", deleted)
	}
}

// Stop terminates the sweep goroutine. Idempotent.
func (s *FlowStore) Stop() {
	s.stopOnce.Do(func() {
		s.ticker.Stop()
		close(s.done)
	})
}

// generateStateKey returns a cryptographically random base64url token.
func generateStateKey() (string, error) {
	b := make([]byte, StateKeyLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
