package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/templui/datafolio/internal/cache"
	"github.com/templui/datafolio/internal/grid"
	"github.com/templui/datafolio/internal/model"
	"github.com/templui/datafolio/internal/repository"
	"github.com/templui/datafolio/internal/validation"
)

type TableService struct {
	store    *repository.Store
	cache    cache.Cache
	email    *EmailService
	cacheTTL time.Duration
}

func NewTableService(store *repository.Store, cache cache.Cache, email *EmailService, cacheTTL time.Duration) *TableService {
	return &TableService{
		store:    store,
		cache:    cache,
		email:    email,
		cacheTTL: cacheTTL,
	}
}

type CreateTableInput struct {
	Name        string
	PortfolioID string
	Columns     []string
	Rows        []grid.Row
}

// Create materializes rows as a new physical table named
// {name}_{owner short id} and maps it into the portfolio. Table creation,
// row inserts, and the mapping row commit together.
func (s *TableService) Create(ctx context.Context, user *model.User, in CreateTableInput) (*model.Table, error) {
	err := validation.ValidateTableName(in.Name)
	if err != nil {
		return nil, invalidInput(err)
	}
	err = validation.ValidateColumns(in.Columns)
	if err != nil {
		return nil, invalidInput(err)
	}

	table := &model.Table{
		ID:          uuid.New().String(),
		UserID:      user.ID,
		Name:        model.UniqueTableName(in.Name, user),
		PortfolioID: in.PortfolioID,
		CreatedAt:   time.Now(),
	}

	err = s.store.InTx(ctx, func(tx *repository.Store) error {
		_, err := ownedPortfolio(ctx, tx, user, in.PortfolioID)
		if err != nil {
			return err
		}

		err = tx.Datasets.Create(ctx, table.Name, in.Columns)
		if errors.Is(err, repository.ErrTableExists) {
			return ErrTableExists
		}
		if err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}

		err = tx.Datasets.Insert(ctx, table.Name, in.Columns, in.Rows)
		if err != nil {
			return fmt.Errorf("failed to insert rows: %w", err)
		}

		err = tx.Tables.Create(ctx, table)
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrTableExists
		}
		if err != nil {
			return fmt.Errorf("failed to record table: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidateGrids(ctx, s.cache, table.Name)
	slog.Info("table created", "user_id", user.ID, "table", table.Name, "portfolio_id", table.PortfolioID, "rows", len(in.Rows))
	return table, nil
}

// Delete drops a physical table the caller owns and removes all its mappings.
func (s *TableService) Delete(ctx context.Context, user *model.User, name string) error {
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		_, err := ownedTable(ctx, tx, user, name)
		if err != nil {
			return err
		}

		err = tx.Datasets.Drop(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to drop table: %w", err)
		}

		_, err = tx.Tables.DeleteByName(ctx, user.ID, name)
		if err != nil {
			return fmt.Errorf("failed to delete table: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	invalidateGrids(ctx, s.cache, name)
	slog.Info("table deleted", "user_id", user.ID, "table", name)
	return nil
}

// RemoveFromPortfolio deletes one mapping; the physical table and its grants stay.
func (s *TableService) RemoveFromPortfolio(ctx context.Context, user *model.User, name, portfolioID string) error {
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		return tx.Tables.RemoveFromPortfolio(ctx, user.ID, name, portfolioID)
	})
	if errors.Is(err, repository.ErrTableNotFound) {
		return ErrTableNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to remove table: %w", err)
	}

	slog.Info("table removed from portfolio", "user_id", user.ID, "table", name, "portfolio_id", portfolioID)
	return nil
}

// Copy maps an owned table into another owned portfolio. It reports whether a
// new mapping was created; copying into a portfolio that already holds the
// table is a no-op.
func (s *TableService) Copy(ctx context.Context, user *model.User, name, portfolioID string) (bool, error) {
	_, err := ownedTable(ctx, s.store, user, name)
	if err != nil {
		return false, err
	}
	_, err = ownedPortfolio(ctx, s.store, user, portfolioID)
	if err != nil {
		return false, err
	}

	created, err := s.store.Tables.CreateIfAbsent(ctx, &model.Table{
		ID:          uuid.New().String(),
		UserID:      user.ID,
		Name:        name,
		PortfolioID: portfolioID,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		return false, fmt.Errorf("failed to copy table: %w", err)
	}

	slog.Info("table copied", "user_id", user.ID, "table", name, "portfolio_id", portfolioID, "created", created)
	return created, nil
}

// Share grants the user registered under email read access to a table
// mapping the caller owns. Unknown emails yield ErrUserNotFound and no grant.
func (s *TableService) Share(ctx context.Context, user *model.User, tableID, email string) error {
	table, err := s.store.Tables.ByID(ctx, tableID)
	if errors.Is(err, repository.ErrTableNotFound) || (err == nil && table.UserID != user.ID) {
		return ErrTableNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get table: %w", err)
	}

	to, err := recipient(ctx, s.store.Users, user, email)
	if err != nil {
		return err
	}

	granted, err := s.store.Shares.GrantTable(ctx, table.ID, to.ID)
	if err != nil {
		return fmt.Errorf("failed to share table: %w", err)
	}

	slog.Info("table shared", "user_id", user.ID, "table", table.Name, "to", to.ID, "new_grant", granted)
	if granted {
		notifyShare(ctx, s.email, to, user, table.DisplayName(), "table")
	}
	return nil
}

// Rows loads a table the caller owns or was granted.
func (s *TableService) Rows(ctx context.Context, user *model.User, name string) (grid.Grid, error) {
	ok, err := s.store.Tables.CanRead(ctx, user.ID, name)
	if err != nil {
		return grid.Grid{}, fmt.Errorf("failed to check access: %w", err)
	}
	if !ok {
		return grid.Grid{}, ErrTableNotFound
	}

	var g grid.Grid
	hit, err := cache.GetJSON(ctx, s.cache, gridKey(name), &g)
	if err != nil {
		slog.Warn("grid cache read failed", "error", err, "table", name)
	}
	if hit {
		return g, nil
	}

	g, err = s.store.Datasets.Load(ctx, name)
	if errors.Is(err, repository.ErrDatasetNotFound) {
		return grid.Grid{}, ErrTableNotFound
	}
	if err != nil {
		return grid.Grid{}, fmt.Errorf("failed to load table: %w", err)
	}

	err = cache.SetJSON(ctx, s.cache, gridKey(name), g, s.cacheTTL)
	if err != nil {
		slog.Warn("grid cache write failed", "error", err, "table", name)
	}
	return g, nil
}

// Export writes a readable table as CSV or TSV.
func (s *TableService) Export(ctx context.Context, user *model.User, name, format string, w io.Writer) error {
	delim, err := grid.DelimiterFor(format)
	if err != nil {
		return invalidInput(err)
	}

	g, err := s.Rows(ctx, user, name)
	if err != nil {
		return err
	}

	return grid.WriteDelimited(w, g, delim)
}

func ownedTable(ctx context.Context, store *repository.Store, user *model.User, name string) (*model.Table, error) {
	table, err := store.Tables.OwnedByName(ctx, user.ID, name)
	if errors.Is(err, repository.ErrTableNotFound) {
		return nil, ErrTableNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get table: %w", err)
	}
	return table, nil
}

func gridKey(name string) string {
	return "grid:table:" + name
}

func invalidateGrids(ctx context.Context, c cache.Cache, names ...string) {
	if len(names) == 0 {
		return
	}
	keys := make([]string, len(names))
	for i, n := range names {
		keys[i] = gridKey(n)
	}
	err := c.Delete(ctx, keys...)
	if err != nil {
		slog.Warn("grid cache invalidation failed", "error", err, "tables", names)
	}
}
