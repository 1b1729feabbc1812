package domain

import (
	"errors"
	"math/rand"
	"reflect"
	"sort"
	"testing"
)

func TestSingleAnswerQuestionAlwaysSelectsFirst(t *testing.T) {
	q := NewQuestion("Only option")
	_ = q.AddCorrectAnswer("yes")

	p := NewParticipant("p1", SelectionIndependent, rand.NewSource(3))
	for i := 0; i < 50; i++ {
		if got := p.SelectPositions(q); !reflect.DeepEqual(got, []int{0}) {
			t.Fatalf("expected [0], got %v", got)
		}
	}
}

func TestSingleSelectionPicksOnePositionInRange(t *testing.T) {
	q := NewQuestion("Pick")
	for _, text := range []string{"a", "b", "c", "d"} {
		_ = q.AddAnswer(text, false)
	}
	p := NewParticipant("p1", SelectionParity, rand.NewSource(5))
	seen := make(map[int]bool)
	for i := 0; i < 200; i++ {
		got := p.SelectPositions(q)
		if len(got) != 1 || got[0] < 0 || got[0] >= 4 {
			t.Fatalf("unexpected selection %v", got)
		}
		seen[got[0]] = true
	}
	if len(seen) != 4 {
		t.Fatalf("expected every position drawn at least once, saw %v", seen)
	}
}

func TestMultipleSelectionModes(t *testing.T) {
	q := NewMultipleSelectionQuestion("Pick many")
	for _, text := range []string{"a", "b", "c", "d", "e"} {
		_ = q.AddAnswer(text, true)
	}

	tests := []struct {
		mode       SelectionMode
		allowEmpty bool
	}{
		{mode: SelectionIndependent, allowEmpty: false},
		{mode: SelectionParity, allowEmpty: true},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			p := NewParticipant("p1", tt.mode, rand.NewSource(9))
			sawEmpty := false
			for i := 0; i < 500; i++ {
				got := p.SelectPositions(q)
				if !sort.IntsAreSorted(got) {
					t.Fatalf("selection not sorted: %v", got)
				}
				for j, pos := range got {
					if pos < 0 || pos >= 5 {
						t.Fatalf("position out of range: %v", got)
					}
					if j > 0 && got[j-1] == pos {
						t.Fatalf("duplicate position: %v", got)
					}
				}
				if len(got) == 0 {
					sawEmpty = true
				}
				// parity mode draws at most k-1 times
				if tt.mode == SelectionParity && len(got) > 4 {
					t.Fatalf("parity selection too large: %v", got)
				}
			}
			if sawEmpty && !tt.allowEmpty {
				t.Fatalf("mode %s produced an empty selection", tt.mode)
			}
			if !sawEmpty && tt.allowEmpty {
				t.Fatalf("mode %s never produced an empty selection in 500 draws", tt.mode)
			}
		})
	}
}

func TestSameSeedSameSelections(t *testing.T) {
	q := NewMultipleSelectionQuestion("Pick many")
	for _, text := range []string{"a", "b", "c"} {
		_ = q.AddAnswer(text, false)
	}
	a := NewParticipant("a", SelectionIndependent, rand.NewSource(21))
	b := NewParticipant("b", SelectionIndependent, rand.NewSource(21))
	for i := 0; i < 20; i++ {
		if x, y := a.SelectPositions(q), b.SelectPositions(q); !reflect.DeepEqual(x, y) {
			t.Fatalf("draw %d differs: %v vs %v", i, x, y)
		}
	}
}

func TestParseSelectionMode(t *testing.T) {
	if mode, err := ParseSelectionMode(""); err != nil || mode != SelectionIndependent {
		t.Fatalf("expected default independent, got %q %v", mode, err)
	}
	if mode, err := ParseSelectionMode("parity"); err != nil || mode != SelectionParity {
		t.Fatalf("expected parity, got %q %v", mode, err)
	}
	if _, err := ParseSelectionMode("weighted"); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected invalid configuration, got %v", err)
	}
}
