package domain

import (
	"fmt"
	"time"
)

// AnswerTally is how many participants currently have an answer selected.
type AnswerTally struct {
	Text    string `json:"text"`
	Count   int    `json:"count"`
	Correct bool   `json:"correct"`
}

// QuestionTally groups the tallies of one question in answer position order.
type QuestionTally struct {
	Text              string        `json:"text"`
	MultipleSelection bool          `json:"multipleSelection"`
	Answers           []AnswerTally `json:"answers"`
}

// Statistics is a read-only snapshot of the tally matrix and counters after the latest round.
type Statistics struct {
	SimulationID string          `json:"simulationId,omitempty"`
	Round        int             `json:"round"`
	Participants int             `json:"participants"`
	Questions    []QuestionTally `json:"questions"`
	Cells        [][]int         `json:"cells"`
	Correct      int             `json:"correct"`
	Incorrect    int             `json:"incorrect"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// Total returns the number of selections currently counted.
func (s Statistics) Total() int {
	return s.Correct + s.Incorrect
}

// RoundSummary describes one completed round.
type RoundSummary struct {
	Round      int           `json:"round"`
	Selections int           `json:"selections"`
	Retracted  int           `json:"retracted"`
	Correct    int           `json:"correct"`
	Incorrect  int           `json:"incorrect"`
	Duration   time.Duration `json:"duration"`
}

// AnswerDef is the stored form of an answer.
type AnswerDef struct {
	Text    string `json:"text" yaml:"text"`
	Correct bool   `json:"correct" yaml:"correct"`
}

// QuestionDef is the stored form of a question.
type QuestionDef struct {
	Text              string      `json:"text" yaml:"text"`
	MultipleSelection bool        `json:"multipleSelection" yaml:"multiple_selection"`
	Answers           []AnswerDef `json:"answers" yaml:"answers"`
}

// QuestionBank is a named collection of question definitions.
type QuestionBank struct {
	ID        string        `json:"id" yaml:"id"`
	Questions []QuestionDef `json:"questions" yaml:"questions"`
}

// BuildQuestions turns definitions into validated questions, in definition order.
func BuildQuestions(bank QuestionBank) ([]*Question, error) {
	questions := make([]*Question, 0, len(bank.Questions))
	for i, def := range bank.Questions {
		var q *Question
		if def.MultipleSelection {
			q = NewMultipleSelectionQuestion(def.Text)
		} else {
			q = NewQuestion(def.Text)
		}
		for _, a := range def.Answers {
			if err := q.AddAnswer(a.Text, a.Correct); err != nil {
				return nil, fmt.Errorf("bank %s question %d: %w", bank.ID, i, err)
			}
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// SimulationInfo identifies a running simulation.
type SimulationInfo struct {
	ID           string    `json:"id"`
	BankID       string    `json:"bankId"`
	Participants int       `json:"participants"`
	Questions    int       `json:"questions"`
	CreatedAt    time.Time `json:"createdAt"`
}
