package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"time"

	"github.com/google/uuid"
	"github.com/templui/datafolio/internal/grid"
	"github.com/templui/datafolio/internal/model"
	"github.com/templui/datafolio/internal/repository"
	"github.com/templui/datafolio/internal/storage"
	"github.com/templui/datafolio/internal/validation"
)

type FileService struct {
	store         *repository.Store
	storage       storage.Storage
	email         *EmailService
	maxBytes      int64
	presignExpiry time.Duration
}

func NewFileService(store *repository.Store, storage storage.Storage, email *EmailService, maxBytes int64, presignExpiry time.Duration) *FileService {
	return &FileService{
		store:         store,
		storage:       storage,
		email:         email,
		maxBytes:      maxBytes,
		presignExpiry: presignExpiry,
	}
}

// Upload stores a CSV or TSV file under {ownerId}/{base}-{unixMillis}{ext}
// and maps it into the portfolio. The content must parse as delimited text
// with a header and at least one row.
func (s *FileService) Upload(ctx context.Context, user *model.User, portfolioID string, header *multipart.FileHeader) (*model.File, error) {
	_, err := validation.ValidateFile(header, validation.DelimitedConstraints(s.maxBytes))
	if err != nil {
		return nil, invalidInput(err)
	}

	_, err = ownedPortfolio(ctx, s.store, user, portfolioID)
	if err != nil {
		return nil, err
	}

	data, err := readUpload(header, s.maxBytes)
	if err != nil {
		return nil, err
	}

	delim, err := grid.DelimiterFor(header.Filename)
	if err != nil {
		return nil, invalidInput(err)
	}
	_, err = grid.ParseDelimited(bytes.NewReader(data), delim)
	if err != nil {
		return nil, invalidInput(err)
	}

	now := time.Now()
	name := model.UniqueFileName(header.Filename, now)
	file := &model.File{
		ID:          uuid.New().String(),
		UserID:      user.ID,
		Name:        name,
		PortfolioID: portfolioID,
		MimeType:    validation.ContentTypeFor(header.Filename),
		Size:        int64(len(data)),
		StoragePath: model.FileStoragePath(user.ID, name),
		CreatedAt:   now,
	}

	err = s.storage.Save(ctx, file.StoragePath, bytes.NewReader(data), file.Size, file.MimeType)
	if err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	err = s.store.Files.Create(ctx, file)
	if err != nil {
		// If DB insert fails, try to cleanup the uploaded file
		delErr := s.storage.Delete(ctx, file.StoragePath)
		if delErr != nil {
			slog.Error("failed to delete file from storage during cleanup", "error", delErr, "path", file.StoragePath)
		}
		return nil, fmt.Errorf("failed to create file record: %w", err)
	}

	slog.Info("file uploaded", "user_id", user.ID, "file_id", file.ID, "portfolio_id", portfolioID, "size", file.Size)
	return file, nil
}

func readUpload(header *multipart.FileHeader, maxBytes int64) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, invalidInput(fmt.Errorf("file too large: maximum size is %d bytes", maxBytes))
	}
	return data, nil
}

// Remove deletes one portfolio mapping of an owned file. The stored object
// goes once no mapping references it.
func (s *FileService) Remove(ctx context.Context, user *model.User, name, portfolioID string) error {
	var file *model.File
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		var err error
		file, err = tx.Files.RemoveFromPortfolio(ctx, user.ID, name, portfolioID)
		return err
	})
	if errors.Is(err, repository.ErrFileNotFound) {
		return ErrFileNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to remove file: %w", err)
	}

	releaseObject(ctx, s.store, s.storage, file)
	slog.Info("file removed from portfolio", "user_id", user.ID, "file", name, "portfolio_id", portfolioID)
	return nil
}

// Copy maps an owned file into another owned portfolio; a no-op when the
// portfolio already holds it.
func (s *FileService) Copy(ctx context.Context, user *model.User, name, portfolioID string) (bool, error) {
	source, err := s.store.Files.OwnedByName(ctx, user.ID, name)
	if errors.Is(err, repository.ErrFileNotFound) {
		return false, ErrFileNotFound
	}
	if err != nil {
		return false, fmt.Errorf("failed to get file: %w", err)
	}

	_, err = ownedPortfolio(ctx, s.store, user, portfolioID)
	if err != nil {
		return false, err
	}

	copied := *source
	copied.ID = uuid.New().String()
	copied.PortfolioID = portfolioID
	copied.CreatedAt = time.Now()

	created, err := s.store.Files.CreateIfAbsent(ctx, &copied)
	if err != nil {
		return false, fmt.Errorf("failed to copy file: %w", err)
	}

	slog.Info("file copied", "user_id", user.ID, "file", name, "portfolio_id", portfolioID, "created", created)
	return created, nil
}

// Share grants read access on a file row the caller owns.
func (s *FileService) Share(ctx context.Context, user *model.User, fileID, email string) error {
	file, err := s.store.Files.ByID(ctx, fileID)
	if errors.Is(err, repository.ErrFileNotFound) || (err == nil && file.UserID != user.ID) {
		return ErrFileNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get file: %w", err)
	}

	to, err := recipient(ctx, s.store.Users, user, email)
	if err != nil {
		return err
	}

	granted, err := s.store.Shares.GrantFile(ctx, file.ID, to.ID)
	if err != nil {
		return fmt.Errorf("failed to share file: %w", err)
	}

	slog.Info("file shared", "user_id", user.ID, "file_id", file.ID, "to", to.ID, "new_grant", granted)
	if granted {
		notifyShare(ctx, s.email, to, user, file.DisplayName(), "file")
	}
	return nil
}

func (s *FileService) readable(ctx context.Context, user *model.User, fileID string) (*model.File, error) {
	ok, err := s.store.Files.CanRead(ctx, user.ID, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to check access: %w", err)
	}
	if !ok {
		return nil, ErrFileNotFound
	}

	file, err := s.store.Files.ByID(ctx, fileID)
	if errors.Is(err, repository.ErrFileNotFound) {
		return nil, ErrFileNotFound
	}
	return file, err
}

// Open streams a file the caller owns or was granted. Callers close the reader.
func (s *FileService) Open(ctx context.Context, user *model.User, fileID string) (*model.File, io.ReadCloser, error) {
	file, err := s.readable(ctx, user, fileID)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.storage.Open(ctx, file.StoragePath)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, nil, ErrFileNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, rc, nil
}

// URL returns a temporary download link.
func (s *FileService) URL(ctx context.Context, user *model.User, fileID string) (string, error) {
	file, err := s.readable(ctx, user, fileID)
	if err != nil {
		return "", err
	}

	url, err := s.storage.PresignedURL(ctx, file.StoragePath, s.presignExpiry)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return "", ErrFileNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to sign url: %w", err)
	}

	return url, nil
}

// Grid parses a stored file into a grid.
func (s *FileService) Grid(ctx context.Context, user *model.User, fileID string) (grid.Grid, error) {
	file, rc, err := s.Open(ctx, user, fileID)
	if err != nil {
		return grid.Grid{}, err
	}
	defer func() { _ = rc.Close() }()

	delim, err := grid.DelimiterFor(file.Name)
	if err != nil {
		return grid.Grid{}, invalidInput(err)
	}

	g, err := grid.ParseDelimited(rc, delim)
	if err != nil {
		return grid.Grid{}, invalidInput(err)
	}
	return g, nil
}
