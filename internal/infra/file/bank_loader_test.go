package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"poll-simulator/internal/domain"
)

const calcBank = `
questions:
  - text: "What is 1 + 1?"
    answers:
      - text: "2"
        correct: true
      - text: "3"
  - text: "Which are CalState campuses?"
    multiple_selection: true
    answers:
      - text: "CalPoly Pomona"
        correct: true
      - text: "USC"
`

func TestLoadBankFromYAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "calc.yaml"), []byte(calcBank), 0o644); err != nil {
		t.Fatalf("write bank: %v", err)
	}

	bank, err := NewBankLoader(dir).LoadBank(context.Background(), "calc")
	if err != nil {
		t.Fatalf("load bank: %v", err)
	}
	if bank.ID != "calc" || len(bank.Questions) != 2 {
		t.Fatalf("unexpected bank %+v", bank)
	}
	if !bank.Questions[1].MultipleSelection || !bank.Questions[0].Answers[0].Correct || bank.Questions[0].Answers[1].Correct {
		t.Fatalf("flags not decoded: %+v", bank.Questions)
	}
}

func TestLoadBankMissing(t *testing.T) {
	loader := NewBankLoader(t.TempDir())
	for _, id := range []string{"nope", "../etc/passwd", ""} {
		if _, err := loader.LoadBank(context.Background(), id); !errors.Is(err, domain.ErrQuestionBankNotFound) {
			t.Fatalf("%q: expected bank not found, got %v", id, err)
		}
	}
}
