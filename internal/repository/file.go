package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/templui/datafolio/internal/model"
)

var (
	ErrFileNotFound = errors.New("file not found")
)

type FileRepository interface {
	Create(ctx context.Context, file *model.File) error
	CreateIfAbsent(ctx context.Context, file *model.File) (bool, error)
	ByID(ctx context.Context, id string) (*model.File, error)
	OwnedByName(ctx context.Context, userID, name string) (*model.File, error)
	ByPortfolio(ctx context.Context, portfolioID string) ([]*model.File, error)
	SharedWith(ctx context.Context, userID string) ([]*model.File, error)
	CanRead(ctx context.Context, userID, id string) (bool, error)
	RemoveFromPortfolio(ctx context.Context, userID, name, portfolioID string) (*model.File, error)
	DeleteByPortfolio(ctx context.Context, portfolioID string) ([]*model.File, error)
	CountByStoragePath(ctx context.Context, path string) (int, error)
}

type fileRepository struct {
	db sqlx.ExtContext
}

func NewFileRepository(db sqlx.ExtContext) FileRepository {
	return &fileRepository{db: db}
}

func (r *fileRepository) Create(ctx context.Context, file *model.File) error {
	query := `INSERT INTO files (id, user_id, name, portfolio_id, mime_type, size, storage_path, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		file.ID,
		file.UserID,
		file.Name,
		file.PortfolioID,
		file.MimeType,
		file.Size,
		file.StoragePath,
		file.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}

	return err
}

func (r *fileRepository) CreateIfAbsent(ctx context.Context, file *model.File) (bool, error) {
	query := `INSERT INTO files (id, user_id, name, portfolio_id, mime_type, size, storage_path, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          ON CONFLICT (user_id, name, portfolio_id) DO NOTHING`

	result, err := r.db.ExecContext(ctx, query,
		file.ID,
		file.UserID,
		file.Name,
		file.PortfolioID,
		file.MimeType,
		file.Size,
		file.StoragePath,
		file.CreatedAt,
	)
	return inserted(result, err)
}

func (r *fileRepository) ByID(ctx context.Context, id string) (*model.File, error) {
	file := &model.File{}
	query := `SELECT * FROM files WHERE id = $1`

	err := sqlx.GetContext(ctx, r.db, file, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFileNotFound
	}

	return file, err
}

func (r *fileRepository) OwnedByName(ctx context.Context, userID, name string) (*model.File, error) {
	file := &model.File{}
	query := `SELECT * FROM files WHERE user_id = $1 AND name = $2 ORDER BY created_at LIMIT 1`

	err := sqlx.GetContext(ctx, r.db, file, query, userID, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFileNotFound
	}

	return file, err
}

func (r *fileRepository) ByPortfolio(ctx context.Context, portfolioID string) ([]*model.File, error) {
	var files []*model.File
	query := `SELECT * FROM files WHERE portfolio_id = $1 ORDER BY created_at, name`

	err := sqlx.SelectContext(ctx, r.db, &files, query, portfolioID)
	if err != nil {
		return nil, err
	}

	return files, nil
}

func (r *fileRepository) SharedWith(ctx context.Context, userID string) ([]*model.File, error) {
	var files []*model.File
	query := `SELECT f.* FROM files f
	          JOIN shared_files s ON s.file_id = f.id
	          WHERE s.user_id = $1
	          ORDER BY s.created_at, f.name`

	err := sqlx.SelectContext(ctx, r.db, &files, query, userID)
	if err != nil {
		return nil, err
	}

	return files, nil
}

// CanRead reports whether userID owns the file row or holds a grant on it.
func (r *fileRepository) CanRead(ctx context.Context, userID, id string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM files f
	          WHERE f.id = $1
	          AND (f.user_id = $2 OR EXISTS (SELECT 1 FROM shared_files s WHERE s.file_id = f.id AND s.user_id = $2))`

	err := sqlx.GetContext(ctx, r.db, &count, query, id, userID)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// RemoveFromPortfolio deletes one mapping and returns it so the caller can
// release the stored object once nothing references it. Grants on the mapping
// move to the oldest remaining mapping of the same file. Run it in a transaction.
func (r *fileRepository) RemoveFromPortfolio(ctx context.Context, userID, name, portfolioID string) (*model.File, error) {
	file := &model.File{}
	query := `SELECT * FROM files WHERE user_id = $1 AND name = $2 AND portfolio_id = $3`

	err := sqlx.GetContext(ctx, r.db, file, query, userID, name, portfolioID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}

	carry := `INSERT INTO shared_files (file_id, user_id, created_at)
	          SELECT (SELECT o.id FROM files o
	                  WHERE o.user_id = $1 AND o.name = $2 AND o.id <> $3
	                  ORDER BY o.created_at, o.id LIMIT 1),
	                 s.user_id, s.created_at
	          FROM shared_files s
	          WHERE s.file_id = $3
	          AND EXISTS (SELECT 1 FROM files o WHERE o.user_id = $1 AND o.name = $2 AND o.id <> $3)
	          ON CONFLICT (file_id, user_id) DO NOTHING`

	_, err = r.db.ExecContext(ctx, carry, userID, name, file.ID)
	if err != nil {
		return nil, err
	}

	_, err = r.db.ExecContext(ctx, `DELETE FROM files WHERE id = $1`, file.ID)
	if err != nil {
		return nil, err
	}

	return file, nil
}

// DeleteByPortfolio removes every file row of a portfolio and returns the removed rows.
func (r *fileRepository) DeleteByPortfolio(ctx context.Context, portfolioID string) ([]*model.File, error) {
	files, err := r.ByPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	_, err = r.db.ExecContext(ctx, `DELETE FROM files WHERE portfolio_id = $1`, portfolioID)
	if err != nil {
		return nil, err
	}

	return files, nil
}

func (r *fileRepository) CountByStoragePath(ctx context.Context, path string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM files WHERE storage_path = $1`

	err := sqlx.GetContext(ctx, r.db, &count, query, path)
	return count, err
}
