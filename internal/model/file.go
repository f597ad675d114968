package model

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// File maps an uploaded object into a portfolio. Copies share the same
// storage path and differ only in portfolio.
type File struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	Name        string    `db:"name" json:"name"` // {base}-{unixMillis}{ext}
	PortfolioID string    `db:"portfolio_id" json:"portfolio_id"`
	MimeType    string    `db:"mime_type" json:"mime_type"`
	Size        int64     `db:"size" json:"size"`
	StoragePath string    `db:"storage_path" json:"-"` // {ownerId}/{name}
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// UniqueFileName stamps an upload name with the upload time.
func UniqueFileName(original string, at time.Time) string {
	ext := filepath.Ext(original)
	base := strings.TrimSuffix(filepath.Base(original), ext)
	return base + "-" + strconv.FormatInt(at.UnixMilli(), 10) + ext
}

// FileStoragePath is the object key of a file owned by ownerID.
func FileStoragePath(ownerID, name string) string {
	return ownerID + "/" + name
}

// DisplayName strips the upload timestamp from the stored name.
func (f *File) DisplayName() string {
	ext := filepath.Ext(f.Name)
	base := strings.TrimSuffix(f.Name, ext)
	i := strings.LastIndex(base, "-")
	if i <= 0 {
		return f.Name
	}
	if _, err := strconv.ParseInt(base[i+1:], 10, 64); err != nil {
		return f.Name
	}
	return base[:i] + ext
}
