package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/templui/datafolio/internal/model"
)

var (
	ErrPortfolioNotFound  = errors.New("portfolio not found")
	ErrDuplicatePortfolio = errors.New("portfolio name already exists")
)

type PortfolioRepository interface {
	Create(ctx context.Context, portfolio *model.Portfolio) error
	ByID(ctx context.Context, id string) (*model.Portfolio, error)
	ByUser(ctx context.Context, userID string) ([]*model.Portfolio, error)
	Delete(ctx context.Context, id string) error
}

type portfolioRepository struct {
	db sqlx.ExtContext
}

func NewPortfolioRepository(db sqlx.ExtContext) PortfolioRepository {
	return &portfolioRepository{db: db}
}

func (r *portfolioRepository) Create(ctx context.Context, portfolio *model.Portfolio) error {
	query := `INSERT INTO portfolios (id, user_id, name, created_at) VALUES ($1, $2, $3, $4)`

	_, err := r.db.ExecContext(ctx, query, portfolio.ID, portfolio.UserID, portfolio.Name, portfolio.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicatePortfolio
	}

	return err
}

func (r *portfolioRepository) ByID(ctx context.Context, id string) (*model.Portfolio, error) {
	portfolio := &model.Portfolio{}
	query := `SELECT * FROM portfolios WHERE id = $1`

	err := sqlx.GetContext(ctx, r.db, portfolio, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPortfolioNotFound
	}

	return portfolio, err
}

func (r *portfolioRepository) ByUser(ctx context.Context, userID string) ([]*model.Portfolio, error) {
	var portfolios []*model.Portfolio
	query := `SELECT * FROM portfolios WHERE user_id = $1 ORDER BY created_at, name`

	err := sqlx.SelectContext(ctx, r.db, &portfolios, query, userID)
	if err != nil {
		return nil, err
	}

	return portfolios, nil
}

func (r *portfolioRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM portfolios WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrPortfolioNotFound
	}

	return nil
}
