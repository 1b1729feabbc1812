package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"poll-simulator/internal/app"
	"poll-simulator/internal/domain"
)

// SessionStore is a Redis-aware implementation of SessionRepository.
// Notes:
//   - Engines live in a local map; their tallies are process-local state.
//   - Redis marks simulation liveness and holds the latest published statistics so other
//     readers can fetch results without reaching this process.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Save(session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID()] = session
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(session.ID()), "1", s.ttl).Err()
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
	_ = s.client.Del(context.Background(),
		s.key(simulationID),
		s.statsKey(simulationID),
		s.countersKey(simulationID),
	).Err()
}

// PublishStatistics stores the snapshot as JSON and mirrors the counters into a hash:
//
//	SET  simulation:{id}:stats    {json}
//	HSET simulation:{id}:counters round {n} correct {n} incorrect {n}
func (s *SessionStore) PublishStatistics(ctx context.Context, stats domain.Statistics) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal statistics: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.statsKey(stats.SimulationID), raw, s.ttl)
	pipe.HSet(ctx, s.countersKey(stats.SimulationID),
		"round", stats.Round,
		"correct", stats.Correct,
		"incorrect", stats.Incorrect,
	)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.countersKey(stats.SimulationID), s.ttl)
		pipe.Expire(ctx, s.key(stats.SimulationID), s.ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// LatestStatistics reads the last published snapshot, possibly written by another process.
func (s *SessionStore) LatestStatistics(ctx context.Context, simulationID string) (domain.Statistics, error) {
	raw, err := s.client.Get(ctx, s.statsKey(simulationID)).Bytes()
	if err == redis.Nil {
		return domain.Statistics{}, domain.ErrSimulationNotFound
	}
	if err != nil {
		return domain.Statistics{}, err
	}
	var stats domain.Statistics
	if err := json.Unmarshal(raw, &stats); err != nil {
		return domain.Statistics{}, fmt.Errorf("unmarshal statistics: %w", err)
	}
	return stats, nil
}

func (s *SessionStore) key(simulationID string) string {
	return "simulation:session:" + simulationID
}

func (s *SessionStore) statsKey(simulationID string) string {
	return "simulation:" + simulationID + ":stats"
}

func (s *SessionStore) countersKey(simulationID string) string {
	return "simulation:" + simulationID + ":counters"
}
