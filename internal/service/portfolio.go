package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/templui/datafolio/internal/cache"
	"github.com/templui/datafolio/internal/model"
	"github.com/templui/datafolio/internal/repository"
	"github.com/templui/datafolio/internal/storage"
	"github.com/templui/datafolio/internal/validation"
)

type PortfolioService struct {
	store   *repository.Store
	storage storage.Storage
	cache   cache.Cache
}

func NewPortfolioService(store *repository.Store, storage storage.Storage, cache cache.Cache) *PortfolioService {
	return &PortfolioService{
		store:   store,
		storage: storage,
		cache:   cache,
	}
}

// List returns the caller's portfolios followed by the synthetic shared portfolio.
func (s *PortfolioService) List(ctx context.Context, user *model.User) ([]*model.Portfolio, error) {
	portfolios, err := s.store.Portfolios.ByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}

	return append(portfolios, sharedPortfolio(user)), nil
}

func (s *PortfolioService) Create(ctx context.Context, user *model.User, name string) (*model.Portfolio, error) {
	name = strings.TrimSpace(name)

	err := validation.ValidatePortfolioName(name)
	if err != nil {
		return nil, invalidInput(err)
	}
	if strings.EqualFold(name, model.SharedPortfolioName) {
		return nil, invalidInput(fmt.Errorf("%q is reserved", name))
	}

	portfolio := &model.Portfolio{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Name:      name,
		CreatedAt: time.Now(),
	}

	err = s.store.Portfolios.Create(ctx, portfolio)
	if errors.Is(err, repository.ErrDuplicatePortfolio) {
		return nil, ErrPortfolioExists
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create portfolio: %w", err)
	}

	slog.Info("portfolio created", "user_id", user.ID, "portfolio_id", portfolio.ID)
	return portfolio, nil
}

// Contents lists the tables and files of a portfolio the caller owns, or of
// the shared portfolio.
func (s *PortfolioService) Contents(ctx context.Context, user *model.User, id string) (*model.PortfolioContents, error) {
	if id == model.SharedPortfolioID {
		tables, err := s.store.Tables.SharedWith(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list shared tables: %w", err)
		}
		files, err := s.store.Files.SharedWith(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list shared files: %w", err)
		}
		return contents(sharedPortfolio(user), tables, files), nil
	}

	portfolio, err := ownedPortfolio(ctx, s.store, user, id)
	if err != nil {
		return nil, err
	}

	tables, err := s.store.Tables.ByPortfolio(ctx, portfolio.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	files, err := s.store.Files.ByPortfolio(ctx, portfolio.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	return contents(portfolio, tables, files), nil
}

// Delete removes a portfolio. Every table in it is dropped along with all of
// its mappings, and its file mappings are deleted, in one transaction. Stored
// objects no longer referenced by any file row are removed afterwards.
func (s *PortfolioService) Delete(ctx context.Context, user *model.User, id string) error {
	if id == model.SharedPortfolioID {
		return invalidInput(errors.New("the shared portfolio cannot be deleted"))
	}

	var (
		dropped []string
		files   []*model.File
	)
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		portfolio, err := ownedPortfolio(ctx, tx, user, id)
		if err != nil {
			return err
		}

		tables, err := tx.Tables.ByPortfolio(ctx, portfolio.ID)
		if err != nil {
			return fmt.Errorf("failed to list tables: %w", err)
		}
		for _, t := range tables {
			err = tx.Datasets.Drop(ctx, t.Name)
			if err != nil {
				return fmt.Errorf("failed to drop table %s: %w", t.Name, err)
			}
			_, err = tx.Tables.DeleteByName(ctx, user.ID, t.Name)
			if err != nil {
				return fmt.Errorf("failed to delete table %s: %w", t.Name, err)
			}
			dropped = append(dropped, t.Name)
		}

		files, err = tx.Files.DeleteByPortfolio(ctx, portfolio.ID)
		if err != nil {
			return fmt.Errorf("failed to delete files: %w", err)
		}

		err = tx.Portfolios.Delete(ctx, portfolio.ID)
		if err != nil {
			return fmt.Errorf("failed to delete portfolio: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	invalidateGrids(ctx, s.cache, dropped...)
	for _, f := range files {
		releaseObject(ctx, s.store, s.storage, f)
	}

	slog.Info("portfolio deleted", "user_id", user.ID, "portfolio_id", id, "tables", len(dropped), "files", len(files))
	return nil
}

func sharedPortfolio(user *model.User) *model.Portfolio {
	return &model.Portfolio{
		ID:     model.SharedPortfolioID,
		UserID: user.ID,
		Name:   model.SharedPortfolioName,
	}
}

func contents(p *model.Portfolio, tables []*model.Table, files []*model.File) *model.PortfolioContents {
	if tables == nil {
		tables = []*model.Table{}
	}
	if files == nil {
		files = []*model.File{}
	}
	return &model.PortfolioContents{Portfolio: p, Tables: tables, Files: files}
}

// ownedPortfolio loads a portfolio and hides it from everyone but its owner.
func ownedPortfolio(ctx context.Context, store *repository.Store, user *model.User, id string) (*model.Portfolio, error) {
	portfolio, err := store.Portfolios.ByID(ctx, id)
	if errors.Is(err, repository.ErrPortfolioNotFound) {
		return nil, ErrPortfolioNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}

	if portfolio.UserID != user.ID {
		return nil, ErrPortfolioNotFound
	}

	return portfolio, nil
}

// releaseObject deletes a stored object once no file row references it.
func releaseObject(ctx context.Context, store *repository.Store, st storage.Storage, f *model.File) {
	count, err := store.Files.CountByStoragePath(ctx, f.StoragePath)
	if err != nil {
		slog.Warn("failed to count file references", "error", err, "path", f.StoragePath)
		return
	}
	if count > 0 {
		return
	}

	err = st.Delete(ctx, f.StoragePath)
	if err != nil {
		slog.Warn("failed to delete stored object", "error", err, "path", f.StoragePath)
	}
}
