package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"poll-simulator/internal/domain"
)

// SessionRepository abstracts where running simulations are kept (in-memory, Redis, etc).
type SessionRepository interface {
	Save(session *Session)
	Get(simulationID string) (*Session, bool)
	Delete(simulationID string)
	PublishStatistics(ctx context.Context, stats domain.Statistics) error
}

// BankRepository loads question banks (from cache/backing store).
type BankRepository interface {
	GetBank(ctx context.Context, bankID string) (domain.QuestionBank, error)
}

// SimulationOptions configures how participants are created.
type SimulationOptions struct {
	Mode     domain.SelectionMode
	IDFormat string
	// Seed makes participant draws reproducible; zero seeds from the clock.
	Seed   int64
	Logger *slog.Logger
}

// SimulationService contains the simulation use cases.
type SimulationService struct {
	sessions SessionRepository
	banks    BankRepository
	opts     SimulationOptions
	logger   *slog.Logger
	now      func() time.Time

	seedMu sync.Mutex
	seeder *rand.Rand
}

func NewSimulationService(store SessionRepository, banks BankRepository, opts SimulationOptions) *SimulationService {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SimulationService{
		sessions: store,
		banks:    banks,
		opts:     opts,
		logger:   ResolveLogger(opts.Logger),
		now:      time.Now,
		seeder:   rand.New(rand.NewSource(seed)),
	}
}

// BuildParticipants allocates count participants from registry, each with its own random
// source seeded from seeder.
func BuildParticipants(count int, registry *domain.IDRegistry, mode domain.SelectionMode, seeder *rand.Rand) ([]Selector, error) {
	if count <= 0 {
		return nil, fmt.Errorf("participant count %d: %w", count, domain.ErrInvalidConfiguration)
	}
	participants := make([]Selector, 0, count)
	for i := 0; i < count; i++ {
		id, err := registry.Allocate()
		if err != nil {
			return nil, err
		}
		participants = append(participants, domain.NewParticipant(id, mode, rand.NewSource(seeder.Int63())))
	}
	return participants, nil
}

// Start creates a simulation over a question bank with the given number of participants.
func (s *SimulationService) Start(ctx context.Context, bankID string, participants int) (domain.SimulationInfo, error) {
	bank, err := s.banks.GetBank(ctx, bankID)
	if err != nil {
		return domain.SimulationInfo{}, err
	}
	questions, err := domain.BuildQuestions(bank)
	if err != nil {
		return domain.SimulationInfo{}, err
	}

	s.seedMu.Lock()
	idRnd := rand.New(rand.NewSource(s.seeder.Int63()))
	generate, err := domain.NewIDGenerator(s.opts.IDFormat, idRnd)
	var selectors []Selector
	if err == nil {
		selectors, err = BuildParticipants(participants, domain.NewIDRegistry(generate), s.opts.Mode, s.seeder)
	}
	s.seedMu.Unlock()
	if err != nil {
		return domain.SimulationInfo{}, err
	}

	engine, err := NewEngine(selectors, questions, WithLogger(s.logger))
	if err != nil {
		return domain.SimulationInfo{}, err
	}

	info := domain.SimulationInfo{
		ID:           uuid.NewString(),
		BankID:       bankID,
		Participants: len(selectors),
		Questions:    len(questions),
		CreatedAt:    s.now(),
	}
	s.sessions.Save(NewSession(info, engine))
	s.logger.Info("simulation started",
		"simulation_id", info.ID,
		"bank_id", bankID,
		"participants", info.Participants,
		"questions", info.Questions,
	)
	return info, nil
}

// Vote runs one round and pushes the resulting statistics to subscribers.
func (s *SimulationService) Vote(ctx context.Context, simulationID string) (domain.Statistics, error) {
	session, ok := s.sessions.Get(simulationID)
	if !ok {
		return domain.Statistics{}, domain.ErrSimulationNotFound
	}
	stats, err := session.vote(ctx)
	if err != nil {
		return domain.Statistics{}, err
	}
	if err := s.sessions.PublishStatistics(ctx, stats); err != nil {
		s.logger.Warn("publish statistics failed", "simulation_id", simulationID, "error", err)
	}
	return stats, nil
}

// Statistics returns the latest tallies of a simulation.
func (s *SimulationService) Statistics(_ context.Context, simulationID string) (domain.Statistics, error) {
	session, ok := s.sessions.Get(simulationID)
	if !ok {
		return domain.Statistics{}, domain.ErrSimulationNotFound
	}
	return session.statistics()
}

// Info describes a running simulation.
func (s *SimulationService) Info(_ context.Context, simulationID string) (domain.SimulationInfo, error) {
	session, ok := s.sessions.Get(simulationID)
	if !ok {
		return domain.SimulationInfo{}, domain.ErrSimulationNotFound
	}
	return session.info, nil
}

// Subscribe returns a channel that receives statistics after every round.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *SimulationService) Subscribe(_ context.Context, simulationID string) (<-chan domain.Statistics, func(), error) {
	session, ok := s.sessions.Get(simulationID)
	if !ok {
		return nil, nil, domain.ErrSimulationNotFound
	}
	ch, cancel := session.subscribe()
	return ch, cancel, nil
}

// Close drops a simulation and closes its subscriptions.
func (s *SimulationService) Close(_ context.Context, simulationID string) {
	session, ok := s.sessions.Get(simulationID)
	if !ok {
		return
	}
	session.close()
	s.sessions.Delete(simulationID)
	s.logger.Info("simulation closed", "simulation_id", simulationID)
}

// Session is an in-memory running simulation.
type Session struct {
	info        domain.SimulationInfo
	engine      *Engine
	mu          sync.Mutex
	subscribers map[chan domain.Statistics]struct{}
}

// NewSession is exported for infrastructure layers that need to seed sessions.
func NewSession(info domain.SimulationInfo, engine *Engine) *Session {
	return &Session{
		info:        info,
		engine:      engine,
		subscribers: make(map[chan domain.Statistics]struct{}),
	}
}

// ID returns the simulation ID.
func (s *Session) ID() string {
	return s.info.ID
}

func (s *Session) vote(ctx context.Context) (domain.Statistics, error) {
	if _, err := s.engine.RunRound(ctx); err != nil {
		return domain.Statistics{}, err
	}
	stats, err := s.statistics()
	if err != nil {
		return domain.Statistics{}, err
	}

	s.mu.Lock()
	s.broadcastLocked(stats)
	s.mu.Unlock()
	return stats, nil
}

func (s *Session) statistics() (domain.Statistics, error) {
	stats, err := s.engine.Statistics()
	if err != nil {
		return domain.Statistics{}, err
	}
	stats.SimulationID = s.info.ID
	return stats, nil
}

func (s *Session) subscribe() (<-chan domain.Statistics, func()) {
	ch := make(chan domain.Statistics, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	if initial, err := s.statistics(); err == nil {
		ch <- initial
	}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

func (s *Session) broadcastLocked(stats domain.Statistics) {
	for ch := range s.subscribers {
		select {
		case ch <- stats:
		default:
			// Slow subscriber: drop its oldest pending snapshot.
			select {
			case <-ch:
			default:
			}
			ch <- stats
		}
	}
}
