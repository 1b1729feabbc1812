package app

import (
	"fmt"
	"sort"

	"poll-simulator/internal/domain"
)

// tallyMatrix counts current selections: one row per question, one column per answer position.
type tallyMatrix [][]int

func newTallyMatrix(questions []*domain.Question) tallyMatrix {
	m := make(tallyMatrix, len(questions))
	for i, q := range questions {
		m[i] = make([]int, q.Len())
	}
	return m
}

func (m tallyMatrix) increment(question, position int) {
	m[question][position]++
}

// decrement fails instead of going negative; a negative cell means the ledger and matrix diverged.
func (m tallyMatrix) decrement(question, position int) error {
	if m[question][position] == 0 {
		return fmt.Errorf("tally underflow at question %d position %d", question, position)
	}
	m[question][position]--
	return nil
}

func (m tallyMatrix) sum() int {
	total := 0
	for _, row := range m {
		for _, cell := range row {
			total += cell
		}
	}
	return total
}

func (m tallyMatrix) clone() [][]int {
	out := make([][]int, len(m))
	for i, row := range m {
		out[i] = append([]int(nil), row...)
	}
	return out
}

// ledger records, per participant and question row, the positions applied in the latest round.
type ledger struct {
	entries map[string][][]int
}

func newLedger(participantIDs []string, questions int) ledger {
	entries := make(map[string][][]int, len(participantIDs))
	for _, id := range participantIDs {
		entries[id] = make([][]int, questions)
	}
	return ledger{entries: entries}
}

func (l ledger) get(participantID string, question int) []int {
	return l.entries[participantID][question]
}

func (l ledger) set(participantID string, question int, positions []int) {
	l.entries[participantID][question] = positions
}

func (l ledger) clear(participantID string, question int) {
	l.entries[participantID][question] = nil
}

func (l ledger) has(participantID string) bool {
	_, ok := l.entries[participantID]
	return ok
}

func (l ledger) snapshot(participantID string) [][]int {
	rows := l.entries[participantID]
	out := make([][]int, len(rows))
	for i, row := range rows {
		out[i] = append([]int(nil), row...)
	}
	return out
}

// selections counts every (participant, question, position) triple on record.
func (l ledger) selections() int {
	total := 0
	for _, rows := range l.entries {
		for _, row := range rows {
			total += len(row)
		}
	}
	return total
}

// normalizePositions returns a sorted copy with duplicates removed.
func normalizePositions(positions []int) []int {
	if len(positions) == 0 {
		return nil
	}
	out := append([]int(nil), positions...)
	sort.Ints(out)
	n := 1
	for i := 1; i < len(out); i++ {
		if out[i] != out[n-1] {
			out[n] = out[i]
			n++
		}
	}
	return out[:n]
}
