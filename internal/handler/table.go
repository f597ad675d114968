package handler

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/templui/datafolio/internal/ctxkeys"
	"github.com/templui/datafolio/internal/grid"
	"github.com/templui/datafolio/internal/service"
)

type createTableRequest struct {
	TableName string     `json:"tableName" validate:"required,identifier"`
	Portfolio string     `json:"portfolio" validate:"required"`
	Columns   []string   `json:"columns" validate:"required,min=1,dive,required"`
	Rows      []grid.Row `json:"rows" validate:"required"` // [] is allowed, absent is not
}

type tableRefRequest struct {
	TableName string `json:"tableName" validate:"required"`
	Portfolio string `json:"portfolio" validate:"required"`
}

type shareTableRequest struct {
	TableID string `json:"tableId" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
}

type TableHandler struct {
	tableService *service.TableService
}

func NewTableHandler(tableService *service.TableService) *TableHandler {
	return &TableHandler{tableService: tableService}
}

func (h *TableHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req createTableRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	table, err := h.tableService.Create(r.Context(), user, service.CreateTableInput{
		Name:        req.TableName,
		PortfolioID: req.Portfolio,
		Columns:     req.Columns,
		Rows:        req.Rows,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, table)
}

func (h *TableHandler) Show(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	g, err := h.tableService.Rows(r.Context(), user, r.PathValue("name"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, g)
}

// Export downloads a table as CSV (default) or TSV.
func (h *TableHandler) Export(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	name := r.PathValue("name")

	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "csv"
	}

	// Buffer so a failed load can still answer with a JSON error.
	var buf bytes.Buffer
	err := h.tableService.Export(r.Context(), user, name, format, &buf)
	if err != nil {
		handleError(w, r, err)
		return
	}

	contentType := "text/csv"
	if format == "tsv" {
		contentType = "text/tab-separated-values"
	}
	attachment(w, name+"."+format, contentType)
	_, _ = buf.WriteTo(w)
}

func (h *TableHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	err := h.tableService.Delete(r.Context(), user, r.PathValue("name"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, "Table deleted")
}

func (h *TableHandler) Remove(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req tableRefRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.tableService.RemoveFromPortfolio(r.Context(), user, req.TableName, req.Portfolio)
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, "Table removed from portfolio")
}

func (h *TableHandler) Copy(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req tableRefRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.tableService.Copy(r.Context(), user, req.TableName, req.Portfolio)
	if err != nil {
		handleError(w, r, err)
		return
	}

	msg := "Table copied"
	if !created {
		msg = "Table already in portfolio"
	}
	writeMessage(w, http.StatusOK, msg)
}

func (h *TableHandler) Share(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req shareTableRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.tableService.Share(r.Context(), user, req.TableID, req.Email)
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, "Table shared")
}
