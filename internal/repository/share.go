package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
)

// ShareRepository records read grants on tables and files. Granting twice is a no-op.
type ShareRepository interface {
	GrantTable(ctx context.Context, tableID, userID string) (bool, error)
	GrantFile(ctx context.Context, fileID, userID string) (bool, error)
}

type shareRepository struct {
	db sqlx.ExtContext
}

func NewShareRepository(db sqlx.ExtContext) ShareRepository {
	return &shareRepository{db: db}
}

func (r *shareRepository) GrantTable(ctx context.Context, tableID, userID string) (bool, error) {
	query := `INSERT INTO shared_tables (table_id, user_id, created_at) VALUES ($1, $2, $3)
	          ON CONFLICT (table_id, user_id) DO NOTHING`

	result, err := r.db.ExecContext(ctx, query, tableID, userID, time.Now())
	return inserted(result, err)
}

func (r *shareRepository) GrantFile(ctx context.Context, fileID, userID string) (bool, error) {
	query := `INSERT INTO shared_files (file_id, user_id, created_at) VALUES ($1, $2, $3)
	          ON CONFLICT (file_id, user_id) DO NOTHING`

	result, err := r.db.ExecContext(ctx, query, fileID, userID, time.Now())
	return inserted(result, err)
}

func inserted(result sql.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}
