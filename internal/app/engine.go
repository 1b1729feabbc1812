package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"poll-simulator/internal/domain"
)

// Selector is the participant contract the engine consumes.
type Selector interface {
	ID() string
	SelectPositions(q *domain.Question) []int
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = ResolveLogger(logger) }
}

// WithClock is used by tests for deterministic timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// Engine runs voting rounds. Every round replaces each participant's previous selections,
// so after N rounds the tallies reflect only round N.
type Engine struct {
	mu           sync.RWMutex
	participants []Selector
	questions    []*domain.Question
	tally        tallyMatrix
	ledger       ledger
	correct      int
	incorrect    int
	round        int
	hasResults   bool
	failure      error
	updatedAt    time.Time
	logger       *slog.Logger
	now          func() time.Time
}

// NewEngine freezes the questions and sizes the tally matrix from their answers.
// The participant and question slices are referenced, not copied.
func NewEngine(participants []Selector, questions []*domain.Question, opts ...EngineOption) (*Engine, error) {
	if len(participants) == 0 {
		return nil, fmt.Errorf("no participants: %w", domain.ErrInvalidConfiguration)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("no questions: %w", domain.ErrInvalidConfiguration)
	}

	ids := make([]string, 0, len(participants))
	seen := make(map[string]struct{}, len(participants))
	for i, p := range participants {
		if p == nil {
			return nil, fmt.Errorf("participant %d is nil: %w", i, domain.ErrInvalidConfiguration)
		}
		if _, dup := seen[p.ID()]; dup {
			return nil, fmt.Errorf("participant %q listed twice: %w", p.ID(), domain.ErrInvalidConfiguration)
		}
		seen[p.ID()] = struct{}{}
		ids = append(ids, p.ID())
	}
	for i, q := range questions {
		if q == nil {
			return nil, fmt.Errorf("question %d is nil: %w", i, domain.ErrInvalidConfiguration)
		}
		if q.Len() == 0 {
			return nil, fmt.Errorf("question %q has no answers: %w", q.Text(), domain.ErrInvalidConfiguration)
		}
	}
	for _, q := range questions {
		q.Freeze()
	}

	e := &Engine{
		participants: participants,
		questions:    questions,
		tally:        newTallyMatrix(questions),
		ledger:       newLedger(ids, len(questions)),
		logger:       slog.Default(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// RunRound lets every participant answer every question once, retracting their previous
// selections first. The round holds the engine lock throughout. If any pair fails the engine
// is left unusable: later calls return ErrEngineFailed.
func (e *Engine) RunRound(ctx context.Context) (domain.RoundSummary, error) {
	if err := ctx.Err(); err != nil {
		return domain.RoundSummary{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failure != nil {
		return domain.RoundSummary{}, e.failure
	}

	start := e.now()
	summary := domain.RoundSummary{Round: e.round + 1}
	for _, p := range e.participants {
		for qi, q := range e.questions {
			if err := e.voteLocked(p, qi, q, &summary); err != nil {
				e.failure = fmt.Errorf("round %d, participant %s, question %d: %w: %w",
					summary.Round, p.ID(), qi, domain.ErrEngineFailed, err)
				e.logger.Error("voting round aborted",
					"round", summary.Round,
					"participant_id", p.ID(),
					"question", qi,
					"error", err,
				)
				return summary, e.failure
			}
		}
	}

	if err := e.checkConsistencyLocked(); err != nil {
		e.failure = fmt.Errorf("round %d: %w: %w", summary.Round, domain.ErrEngineFailed, err)
		e.logger.Error("voting round left inconsistent tallies", "round", summary.Round, "error", err)
		return summary, e.failure
	}

	e.round = summary.Round
	e.hasResults = true
	e.updatedAt = e.now()
	summary.Correct = e.correct
	summary.Incorrect = e.incorrect
	summary.Duration = e.updatedAt.Sub(start)

	e.logger.Debug("voting round completed",
		"round", summary.Round,
		"selections", summary.Selections,
		"retracted", summary.Retracted,
		"correct", e.correct,
		"incorrect", e.incorrect,
	)
	return summary, nil
}

// voteLocked resolves the new selection before touching any state so a bad position
// leaves the pair's previous entry intact.
func (e *Engine) voteLocked(p Selector, qi int, q *domain.Question, summary *domain.RoundSummary) error {
	positions := normalizePositions(p.SelectPositions(q))
	chosen, err := q.AnswersAt(positions)
	if err != nil {
		return err
	}

	id := p.ID()
	for _, pos := range e.ledger.get(id, qi) {
		prior, err := q.AnswerAt(pos)
		if err != nil {
			return err
		}
		if err := e.tally.decrement(qi, pos); err != nil {
			return err
		}
		if prior.Correct {
			e.correct--
		} else {
			e.incorrect--
		}
		summary.Retracted++
	}
	e.ledger.clear(id, qi)

	for i, pos := range positions {
		e.tally.increment(qi, pos)
		if chosen[i].Correct {
			e.correct++
		} else {
			e.incorrect++
		}
	}
	e.ledger.set(id, qi, positions)
	summary.Selections += len(positions)
	return nil
}

// checkConsistencyLocked verifies the matrix, the counters and the ledger describe the same selections.
func (e *Engine) checkConsistencyLocked() error {
	cells := e.tally.sum()
	if cells != e.correct+e.incorrect || cells != e.ledger.selections() {
		return fmt.Errorf("tally holds %d selections, counters %d+%d, ledger %d",
			cells, e.correct, e.incorrect, e.ledger.selections())
	}
	return nil
}

// Statistics returns a copy of the current tallies.
func (e *Engine) Statistics() (domain.Statistics, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.failure != nil {
		return domain.Statistics{}, e.failure
	}
	if !e.hasResults {
		return domain.Statistics{}, domain.ErrNotYetVoted
	}

	tallies := make([]domain.QuestionTally, len(e.questions))
	for qi, q := range e.questions {
		answers := q.Answers()
		qt := domain.QuestionTally{
			Text:              q.Text(),
			MultipleSelection: q.MultipleSelection(),
			Answers:           make([]domain.AnswerTally, len(answers)),
		}
		for ai, a := range answers {
			qt.Answers[ai] = domain.AnswerTally{Text: a.Text, Count: e.tally[qi][ai], Correct: a.Correct}
		}
		tallies[qi] = qt
	}

	return domain.Statistics{
		Round:        e.round,
		Participants: len(e.participants),
		Questions:    tallies,
		Cells:        e.tally.clone(),
		Correct:      e.correct,
		Incorrect:    e.incorrect,
		UpdatedAt:    e.updatedAt,
	}, nil
}

// Selections returns the positions a participant currently has recorded, one row per question.
func (e *Engine) Selections(participantID string) ([][]int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.ledger.has(participantID) {
		return nil, fmt.Errorf("%q: %w", participantID, domain.ErrParticipantNotFound)
	}
	return e.ledger.snapshot(participantID), nil
}

// Rounds returns the number of completed rounds.
func (e *Engine) Rounds() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.round
}

func (e *Engine) Participants() int {
	return len(e.participants)
}

func (e *Engine) Questions() int {
	return len(e.questions)
}
