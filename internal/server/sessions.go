package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"inventory-voice-assistant/internal/dialogue"
	"inventory-voice-assistant/internal/metrics"
	"inventory-voice-assistant/internal/orchestrator"
)

// conversation is one user's dialogue. mu serializes turns so that a state
// is never advanced twice concurrently.
type conversation struct {
	mu    sync.Mutex
	state dialogue.State
}

// sessionStore keeps conversations in memory, evicting the least recently
// used beyond the size cap and anything idle longer than the TTL.
//
// Orchestrators, and with them the oracle budget, are kept per client
// address rather than per conversation, so dropping or minting sessions
// does not refill the budget.
type sessionStore struct {
	mu      sync.Mutex
	cache   *expirable.LRU[string, *conversation]
	clients *expirable.LRU[string, *orchestrator.Orchestrator]
	factory func() *orchestrator.Orchestrator
	metrics *metrics.Recorder
}

// newSessionStore builds the store. clientTTL must cover the oracle budget
// window; an idle client forgotten earlier would come back with a full
// budget.
func newSessionStore(size int, ttl, clientTTL time.Duration, factory func() *orchestrator.Orchestrator, m *metrics.Recorder) *sessionStore {
	return &sessionStore{
		cache:   expirable.NewLRU[string, *conversation](size, nil, ttl),
		clients: expirable.NewLRU[string, *orchestrator.Orchestrator](size, nil, clientTTL),
		factory: factory,
		metrics: m,
	}
}

func newSessionID() string {
	return "s_" + uuid.NewString()
}

// get returns the conversation for id, creating it when missing. Get does
// not extend the expiry, so an active session is re-added on every use.
func (s *sessionStore) get(id string) *conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.cache.Get(id)
	if !ok {
		conv = &conversation{}
	}
	s.cache.Add(id, conv)
	s.metrics.SetSessions(s.cache.Len())
	return conv
}

// orchestratorFor returns the orchestrator of the client at addr.
func (s *sessionStore) orchestratorFor(addr string) *orchestrator.Orchestrator {
	s.mu.Lock()
	defer s.mu.Unlock()

	orc, ok := s.clients.Get(addr)
	if !ok {
		orc = s.factory()
	}
	s.clients.Add(addr, orc)
	return orc
}

// peek returns an existing conversation without creating one.
func (s *sessionStore) peek(id string) (*conversation, bool) {
	return s.cache.Peek(id)
}

func (s *sessionStore) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Remove(id)
	s.metrics.SetSessions(s.cache.Len())
}

func (s *sessionStore) len() int {
	return s.cache.Len()
}
