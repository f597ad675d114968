package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
)

// Store bundles the repositories over one connection pool. InTx hands out a
// copy bound to a transaction.
type Store struct {
	db *sqlx.DB

	Users      UserRepository
	Portfolios PortfolioRepository
	Tables     TableRepository
	Files      FileRepository
	Shares     ShareRepository
	Datasets   DatasetRepository
}

func NewStore(db *sqlx.DB) *Store {
	s := newStore(db)
	s.db = db
	return s
}

func newStore(q sqlx.ExtContext) *Store {
	return &Store{
		Users:      NewUserRepository(q),
		Portfolios: NewPortfolioRepository(q),
		Tables:     NewTableRepository(q),
		Files:      NewFileRepository(q),
		Shares:     NewShareRepository(q),
		Datasets:   NewDatasetRepository(q),
	}
}

// InTx runs fn in a transaction, committing when fn returns nil. Calling InTx
// on a transaction-bound store runs fn in the enclosing transaction.
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) error {
	if s.db == nil {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	err = fn(newStore(tx))
	if err != nil {
		rbErr := tx.Rollback()
		if rbErr != nil {
			slog.Error("failed to rollback transaction", "error", rbErr)
		}
		return err
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DB returns the underlying pool, or nil on a transaction-bound store.
func (s *Store) DB() *sqlx.DB {
	return s.db
}
