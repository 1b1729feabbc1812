package memory

import (
	"context"
	"sync"

	"poll-simulator/internal/app"
	"poll-simulator/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.Session
	latest   map[string]domain.Statistics
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*app.Session),
		latest:   make(map[string]domain.Statistics),
	}
}

func (s *SessionStore) Save(session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID()] = session
}

func (s *SessionStore) Get(simulationID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[simulationID]
	return session, ok
}

func (s *SessionStore) Delete(simulationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, simulationID)
	delete(s.latest, simulationID)
}

// PublishStatistics keeps the most recent snapshot per simulation.
func (s *SessionStore) PublishStatistics(_ context.Context, stats domain.Statistics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest[stats.SimulationID] = stats
	return nil
}

// Latest returns the last published snapshot of a simulation.
func (s *SessionStore) Latest(simulationID string) (domain.Statistics, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats, ok := s.latest[simulationID]
	return stats, ok
}
