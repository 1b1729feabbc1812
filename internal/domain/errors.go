package domain

import "errors"

var (
	// ErrInvalidConfiguration is returned when an engine is built without participants or questions.
	ErrInvalidConfiguration = errors.New("invalid voting configuration")
	// ErrDuplicateAnswer is returned when an answer with the same text already exists on a question.
	ErrDuplicateAnswer = errors.New("answer is already a possible answer")
	// ErrCorrectAnswerConflict is returned when a single-selection question would get a second correct answer.
	ErrCorrectAnswerConflict = errors.New("question already has a correct answer")
	// ErrPositionOutOfRange indicates an answer position outside the question's answers.
	ErrPositionOutOfRange = errors.New("answer position out of range")
	// ErrNotYetVoted is returned when statistics are requested before a round completed.
	ErrNotYetVoted = errors.New("no voting round has completed")
	// ErrQuestionFrozen is returned when a question is mutated after an engine fixed its answers.
	ErrQuestionFrozen = errors.New("question answers are frozen")
	// ErrAnswerNotFound indicates the answer to remove does not exist.
	ErrAnswerNotFound = errors.New("answer not found")
	// ErrDuplicateParticipantID is returned when an ID has already been allocated.
	ErrDuplicateParticipantID = errors.New("participant id already in use")
	// ErrParticipantNotFound indicates an unknown participant ID.
	ErrParticipantNotFound = errors.New("participant not found")
	// ErrEngineFailed marks an engine whose round aborted part way; its tallies can no longer be trusted.
	ErrEngineFailed = errors.New("voting engine failed during a round")
	// ErrSimulationNotFound is returned when a simulation session does not exist.
	ErrSimulationNotFound = errors.New("simulation not found")
	// ErrQuestionBankNotFound indicates the question bank could not be loaded.
	ErrQuestionBankNotFound = errors.New("question bank not found")
)
