package handler

import (
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/templui/datafolio/internal/ctxkeys"
	"github.com/templui/datafolio/internal/service"
)

// multipartOverhead covers form fields and part headers around the file.
const multipartOverhead = 1 << 20

type fileRefRequest struct {
	RawFileName string `json:"rawFileName" validate:"required"`
	Portfolio   string `json:"portfolio" validate:"required"`
}

type shareFileRequest struct {
	FileID string `json:"fileId" validate:"required"`
	Email  string `json:"email" validate:"required,email"`
}

type FileHandler struct {
	fileService *service.FileService
	maxBytes    int64
}

func NewFileHandler(fileService *service.FileService, maxBytes int64) *FileHandler {
	return &FileHandler{
		fileService: fileService,
		maxBytes:    maxBytes,
	}
}

func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	err := r.ParseMultipartForm(10 << 20)
	if err != nil {
		slog.Debug("upload form rejected", "error", err, "user_id", user.ID)
		writeError(w, http.StatusForbidden, msgInvalidForm)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	portfolioID := strings.TrimSpace(r.FormValue("portfolio"))
	_, header, err := r.FormFile("file")
	if err != nil || portfolioID == "" {
		writeError(w, http.StatusForbidden, msgInvalidForm)
		return
	}

	file, err := h.fileService.Upload(r.Context(), user, portfolioID, header)
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, file)
}

func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	file, rc, err := h.fileService.Open(r.Context(), user, r.PathValue("id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	defer func() { _ = rc.Close() }()

	attachment(w, file.DisplayName(), file.MimeType)
	_, err = io.Copy(w, rc)
	if err != nil {
		slog.Warn("file download interrupted", "error", err, "user_id", user.ID, "file_id", file.ID)
	}
}

func (h *FileHandler) URL(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	url, err := h.fileService.URL(r.Context(), user, r.PathValue("id"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// Grid returns the parsed contents of a file, e.g. to preview it before creating a table.
func (h *FileHandler) Grid(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	g, err := h.fileService.Grid(r.Context(), user, r.PathValue("id"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, g)
}

func (h *FileHandler) Remove(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req fileRefRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.fileService.Remove(r.Context(), user, req.RawFileName, req.Portfolio)
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, "File removed from portfolio")
}

func (h *FileHandler) Copy(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req fileRefRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.fileService.Copy(r.Context(), user, req.RawFileName, req.Portfolio)
	if err != nil {
		handleError(w, r, err)
		return
	}

	msg := "File copied"
	if !created {
		msg = "File already in portfolio"
	}
	writeMessage(w, http.StatusOK, msg)
}

func (h *FileHandler) Share(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req shareFileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.fileService.Share(r.Context(), user, req.FileID, req.Email)
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, "File shared")
}
