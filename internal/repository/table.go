package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/templui/datafolio/internal/model"
)

var (
	ErrTableNotFound = errors.New("table not found")
)

type TableRepository interface {
	Create(ctx context.Context, table *model.Table) error
	CreateIfAbsent(ctx context.Context, table *model.Table) (bool, error)
	ByID(ctx context.Context, id string) (*model.Table, error)
	OwnedByName(ctx context.Context, userID, name string) (*model.Table, error)
	ByPortfolio(ctx context.Context, portfolioID string) ([]*model.Table, error)
	SharedWith(ctx context.Context, userID string) ([]*model.Table, error)
	CanRead(ctx context.Context, userID, name string) (bool, error)
	RemoveFromPortfolio(ctx context.Context, userID, name, portfolioID string) error
	DeleteByName(ctx context.Context, userID, name string) (int64, error)
}

type tableRepository struct {
	db sqlx.ExtContext
}

func NewTableRepository(db sqlx.ExtContext) TableRepository {
	return &tableRepository{db: db}
}

func (r *tableRepository) Create(ctx context.Context, table *model.Table) error {
	query := `INSERT INTO data_tables (id, user_id, name, portfolio_id, created_at) VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(ctx, query, table.ID, table.UserID, table.Name, table.PortfolioID, table.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}

	return err
}

// CreateIfAbsent inserts the mapping unless the same table is already in the
// portfolio. It reports whether a row was inserted.
func (r *tableRepository) CreateIfAbsent(ctx context.Context, table *model.Table) (bool, error) {
	query := `INSERT INTO data_tables (id, user_id, name, portfolio_id, created_at) VALUES ($1, $2, $3, $4, $5)
	          ON CONFLICT (user_id, name, portfolio_id) DO NOTHING`

	result, err := r.db.ExecContext(ctx, query, table.ID, table.UserID, table.Name, table.PortfolioID, table.CreatedAt)
	return inserted(result, err)
}

func (r *tableRepository) ByID(ctx context.Context, id string) (*model.Table, error) {
	table := &model.Table{}
	query := `SELECT * FROM data_tables WHERE id = $1`

	err := sqlx.GetContext(ctx, r.db, table, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTableNotFound
	}

	return table, err
}

// OwnedByName returns the oldest mapping of a physical table owned by userID.
func (r *tableRepository) OwnedByName(ctx context.Context, userID, name string) (*model.Table, error) {
	table := &model.Table{}
	query := `SELECT * FROM data_tables WHERE user_id = $1 AND name = $2 ORDER BY created_at LIMIT 1`

	err := sqlx.GetContext(ctx, r.db, table, query, userID, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTableNotFound
	}

	return table, err
}

func (r *tableRepository) ByPortfolio(ctx context.Context, portfolioID string) ([]*model.Table, error) {
	var tables []*model.Table
	query := `SELECT * FROM data_tables WHERE portfolio_id = $1 ORDER BY created_at, name`

	err := sqlx.SelectContext(ctx, r.db, &tables, query, portfolioID)
	if err != nil {
		return nil, err
	}

	return tables, nil
}

func (r *tableRepository) SharedWith(ctx context.Context, userID string) ([]*model.Table, error) {
	var tables []*model.Table
	query := `SELECT t.* FROM data_tables t
	          JOIN shared_tables s ON s.table_id = t.id
	          WHERE s.user_id = $1
	          ORDER BY s.created_at, t.name`

	err := sqlx.SelectContext(ctx, r.db, &tables, query, userID)
	if err != nil {
		return nil, err
	}

	return tables, nil
}

// CanRead reports whether userID owns the physical table or holds a grant on any of its mappings.
func (r *tableRepository) CanRead(ctx context.Context, userID, name string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM data_tables t
	          WHERE t.name = $1
	          AND (t.user_id = $2 OR EXISTS (SELECT 1 FROM shared_tables s WHERE s.table_id = t.id AND s.user_id = $2))`

	err := sqlx.GetContext(ctx, r.db, &count, query, name, userID)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// RemoveFromPortfolio deletes one mapping of a physical table. Grants on that
// mapping move to the oldest remaining mapping, so readers keep access while
// the table is still in some portfolio. Run it in a transaction.
func (r *tableRepository) RemoveFromPortfolio(ctx context.Context, userID, name, portfolioID string) error {
	carry := `INSERT INTO shared_tables (table_id, user_id, created_at)
	          SELECT (SELECT o.id FROM data_tables o
	                  WHERE o.user_id = $1 AND o.name = $2 AND o.portfolio_id <> $3
	                  ORDER BY o.created_at, o.id LIMIT 1),
	                 s.user_id, s.created_at
	          FROM shared_tables s JOIN data_tables t ON t.id = s.table_id
	          WHERE t.user_id = $1 AND t.name = $2 AND t.portfolio_id = $3
	          AND EXISTS (SELECT 1 FROM data_tables o WHERE o.user_id = $1 AND o.name = $2 AND o.portfolio_id <> $3)
	          ON CONFLICT (table_id, user_id) DO NOTHING`

	_, err := r.db.ExecContext(ctx, carry, userID, name, portfolioID)
	if err != nil {
		return err
	}

	query := `DELETE FROM data_tables WHERE user_id = $1 AND name = $2 AND portfolio_id = $3`

	result, err := r.db.ExecContext(ctx, query, userID, name, portfolioID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrTableNotFound
	}

	return nil
}

// DeleteByName removes every mapping of a physical table owned by userID.
func (r *tableRepository) DeleteByName(ctx context.Context, userID, name string) (int64, error) {
	query := `DELETE FROM data_tables WHERE user_id = $1 AND name = $2`

	result, err := r.db.ExecContext(ctx, query, userID, name)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
