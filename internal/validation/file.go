package validation

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
)

// FileConstraints defines validation rules for file uploads
type FileConstraints struct {
	AllowedMimeTypes  map[string]bool
	AllowedExtensions map[string]bool
	MaxSize           int64
}

// DelimitedConstraints accepts CSV and TSV text uploads.
// http.DetectContentType reports delimited text as text/plain.
func DelimitedConstraints(maxSize int64) FileConstraints {
	return FileConstraints{
		AllowedMimeTypes: map[string]bool{
			"text/plain; charset=utf-8":    true,
			"text/plain; charset=utf-16be": true,
			"text/plain; charset=utf-16le": true,
		},
		AllowedExtensions: map[string]bool{
			".csv": true,
			".tsv": true,
		},
		MaxSize: maxSize,
	}
}

// ValidateFile validates an upload by size, extension, and sniffed content type.
// It returns the detected content type.
func ValidateFile(header *multipart.FileHeader, constraints FileConstraints) (string, error) {
	// Check file size first (before reading content)
	if header.Size > constraints.MaxSize {
		return "", fmt.Errorf("file too large: maximum size is %d MB", constraints.MaxSize/(1<<20))
	}
	if header.Size == 0 {
		return "", fmt.Errorf("file is empty")
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !constraints.AllowedExtensions[ext] {
		return "", fmt.Errorf("invalid file extension: %q", ext)
	}

	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// http.DetectContentType reads at most 512 bytes
	buffer := make([]byte, 512)
	n, err := io.ReadFull(file, buffer)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	detectedType := http.DetectContentType(buffer[:n])
	if !constraints.AllowedMimeTypes[detectedType] {
		return "", fmt.Errorf("invalid file type (detected: %s)", detectedType)
	}

	return detectedType, nil
}

// ContentTypeFor is the content type stored for an accepted upload.
func ContentTypeFor(filename string) string {
	if strings.EqualFold(filepath.Ext(filename), ".tsv") {
		return "text/tab-separated-values"
	}
	return "text/csv"
}
