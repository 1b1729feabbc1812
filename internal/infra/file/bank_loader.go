package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"poll-simulator/internal/domain"
)

// BankLoader reads question banks from YAML files named {bankID}.yaml in a directory.
type BankLoader struct {
	dir string
}

func NewBankLoader(dir string) *BankLoader {
	return &BankLoader{dir: dir}
}

func (l *BankLoader) LoadBank(_ context.Context, bankID string) (domain.QuestionBank, error) {
	if bankID == "" || strings.ContainsAny(bankID, `/\`) || strings.Contains(bankID, "..") {
		return domain.QuestionBank{}, fmt.Errorf("bank id %q: %w", bankID, domain.ErrQuestionBankNotFound)
	}
	data, err := os.ReadFile(filepath.Join(l.dir, bankID+".yaml"))
	if errors.Is(err, fs.ErrNotExist) {
		return domain.QuestionBank{}, fmt.Errorf("bank %s: %w", bankID, domain.ErrQuestionBankNotFound)
	}
	if err != nil {
		return domain.QuestionBank{}, err
	}
	return DecodeBank(bankID, data)
}

// DecodeBank parses a YAML bank; the ID falls back to bankID when the document omits it.
func DecodeBank(bankID string, data []byte) (domain.QuestionBank, error) {
	var bank domain.QuestionBank
	if err := yaml.Unmarshal(data, &bank); err != nil {
		return domain.QuestionBank{}, fmt.Errorf("decode bank %s: %w", bankID, err)
	}
	if bank.ID == "" {
		bank.ID = bankID
	}
	return bank, nil
}
