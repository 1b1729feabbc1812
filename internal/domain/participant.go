package domain

import (
	"fmt"
	"math/rand"
	"sort"
)

// SelectionMode controls how a participant picks answers on multiple-selection questions.
type SelectionMode string

const (
	// SelectionIndependent draws how many answers to pick, then picks that many distinct positions.
	SelectionIndependent SelectionMode = "independent"
	// SelectionParity reuses the first positional draw as the number of further draws,
	// collapsing repeats. A zero draw yields an empty selection.
	SelectionParity SelectionMode = "parity"
)

// ParseSelectionMode maps a config value to a SelectionMode; empty means independent.
func ParseSelectionMode(raw string) (SelectionMode, error) {
	switch SelectionMode(raw) {
	case "", SelectionIndependent:
		return SelectionIndependent, nil
	case SelectionParity:
		return SelectionParity, nil
	}
	return "", fmt.Errorf("unknown selection mode %q: %w", raw, ErrInvalidConfiguration)
}

// Participant answers questions by uniform random draws. It models a careless respondent:
// nothing weights the draw toward correct answers.
type Participant struct {
	id   string
	mode SelectionMode
	rnd  *rand.Rand
}

func NewParticipant(id string, mode SelectionMode, src rand.Source) *Participant {
	if mode == "" {
		mode = SelectionIndependent
	}
	return &Participant{id: id, mode: mode, rnd: rand.New(src)}
}

func (p *Participant) ID() string {
	return p.id
}

func (p *Participant) Mode() SelectionMode {
	return p.mode
}

// SelectPositions returns the sorted, distinct answer positions chosen for q.
// Not safe for concurrent use.
func (p *Participant) SelectPositions(q *Question) []int {
	k := q.Len()
	if k == 0 {
		return nil
	}
	draw := p.rnd.Intn(k)
	if !q.MultipleSelection() {
		return []int{draw}
	}

	if p.mode == SelectionParity {
		picked := make(map[int]struct{}, draw)
		for i := 0; i < draw; i++ {
			picked[p.rnd.Intn(k)] = struct{}{}
		}
		positions := make([]int, 0, len(picked))
		for pos := range picked {
			positions = append(positions, pos)
		}
		sort.Ints(positions)
		return positions
	}

	count := draw + 1
	positions := p.rnd.Perm(k)[:count]
	sort.Ints(positions)
	return positions
}
