package domain

import (
	"fmt"
	"sync"
)

// Answer is a possible answer to a question. Two answers are the same answer when their text matches.
type Answer struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question holds its answers in insertion order; an answer's position is its index in that order.
type Question struct {
	mu                sync.RWMutex
	text              string
	multipleSelection bool
	answers           []Answer
	frozen            bool
}

// NewQuestion creates a question that accepts at most one correct answer.
func NewQuestion(text string) *Question {
	return &Question{text: text}
}

// NewMultipleSelectionQuestion creates a question that accepts any number of correct answers.
func NewMultipleSelectionQuestion(text string) *Question {
	return &Question{text: text, multipleSelection: true}
}

func (q *Question) Text() string {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.text
}

func (q *Question) SetText(text string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.frozen {
		return ErrQuestionFrozen
	}
	q.text = text
	return nil
}

// MultipleSelection reports whether participants may pick more than one answer.
func (q *Question) MultipleSelection() bool {
	return q.multipleSelection
}

// AddAnswer appends an answer. It fails with ErrDuplicateAnswer if the text exists and with
// ErrCorrectAnswerConflict if a single-selection question already has a correct answer.
func (q *Question) AddAnswer(text string, correct bool) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.frozen {
		return ErrQuestionFrozen
	}
	if correct && !q.multipleSelection && q.hasCorrectLocked() {
		return fmt.Errorf("add %q to %q: %w", text, q.text, ErrCorrectAnswerConflict)
	}
	if q.indexLocked(text) >= 0 {
		return fmt.Errorf("add %q to %q: %w", text, q.text, ErrDuplicateAnswer)
	}
	q.answers = append(q.answers, Answer{Text: text, Correct: correct})
	return nil
}

func (q *Question) AddCorrectAnswer(text string) error {
	return q.AddAnswer(text, true)
}

func (q *Question) RemoveAnswer(text string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.frozen {
		return ErrQuestionFrozen
	}
	idx := q.indexLocked(text)
	if idx < 0 {
		return fmt.Errorf("remove %q from %q: %w", text, q.text, ErrAnswerNotFound)
	}
	q.answers = append(q.answers[:idx], q.answers[idx+1:]...)
	return nil
}

func (q *Question) HasCorrectAnswer() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.hasCorrectLocked()
}

// Answers returns a copy of the answers in position order.
func (q *Question) Answers() []Answer {
	q.mu.RLock()
	defer q.mu.RUnlock()
	out := make([]Answer, len(q.answers))
	copy(out, q.answers)
	return out
}

// Len returns the number of possible answers.
func (q *Question) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.answers)
}

// AnswerAt resolves a zero-based position to its answer.
func (q *Question) AnswerAt(pos int) (Answer, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if pos < 0 || pos >= len(q.answers) {
		return Answer{}, fmt.Errorf("position %d of %d answers: %w", pos, len(q.answers), ErrPositionOutOfRange)
	}
	return q.answers[pos], nil
}

// AnswersAt resolves every position; the first out-of-range position aborts the lookup.
func (q *Question) AnswersAt(positions []int) ([]Answer, error) {
	out := make([]Answer, 0, len(positions))
	for _, pos := range positions {
		answer, err := q.AnswerAt(pos)
		if err != nil {
			return nil, err
		}
		out = append(out, answer)
	}
	return out, nil
}

// Freeze fixes the answer order. Every mutator fails with ErrQuestionFrozen afterwards.
func (q *Question) Freeze() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.frozen = true
}

func (q *Question) Frozen() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.frozen
}

func (q *Question) String() string {
	return fmt.Sprintf("Question(%s, multiple=%t, answers=%d)", q.Text(), q.multipleSelection, q.Len())
}

func (q *Question) hasCorrectLocked() bool {
	for _, a := range q.answers {
		if a.Correct {
			return true
		}
	}
	return false
}

func (q *Question) indexLocked(text string) int {
	for i, a := range q.answers {
		if a.Text == text {
			return i
		}
	}
	return -1
}
