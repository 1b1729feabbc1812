package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"poll-simulator/internal/domain"
)

type bankRow struct {
	bun.BaseModel `bun:"table:question_banks"`

	ID        string              `bun:"id,pk"`
	Data      domain.QuestionBank `bun:"data,type:jsonb,notnull"`
	UpdatedAt time.Time           `bun:"updated_at,notnull"`
}

// BankStore writes question banks through bun; reads go through BankLoader.
type BankStore struct {
	db *bun.DB
}

func NewBankStore(db *bun.DB) *BankStore {
	return &BankStore{db: db}
}

// SaveBank inserts or replaces a bank.
func (s *BankStore) SaveBank(ctx context.Context, bank domain.QuestionBank) error {
	if _, err := domain.BuildQuestions(bank); err != nil {
		return err
	}
	row := bankRow{ID: bank.ID, Data: bank, UpdatedAt: time.Now().UTC()}
	_, err := s.db.NewInsert().
		Model(&row).
		On("CONFLICT (id) DO UPDATE").
		Set("data = EXCLUDED.data").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("save bank %s: %w", bank.ID, err)
	}
	return nil
}

// ListBankIDs returns stored bank IDs in ascending order.
func (s *BankStore) ListBankIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.NewSelect().
		Model((*bankRow)(nil)).
		Column("id").
		Order("id ASC").
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("list banks: %w", err)
	}
	return ids, nil
}
