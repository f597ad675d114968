package handler

import (
	"net/http"

	"github.com/templui/datafolio/internal/ctxkeys"
	"github.com/templui/datafolio/internal/service"
)

type createPortfolioRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type PortfolioHandler struct {
	portfolioService *service.PortfolioService
}

func NewPortfolioHandler(portfolioService *service.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{portfolioService: portfolioService}
}

func (h *PortfolioHandler) List(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	portfolios, err := h.portfolioService.List(r.Context(), user)
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, portfolios)
}

func (h *PortfolioHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req createPortfolioRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	portfolio, err := h.portfolioService.Create(r.Context(), user, req.Name)
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, portfolio)
}

func (h *PortfolioHandler) Show(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	contents, err := h.portfolioService.Contents(r.Context(), user, r.PathValue("id"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, contents)
}

func (h *PortfolioHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	err := h.portfolioService.Delete(r.Context(), user, r.PathValue("id"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, "Portfolio deleted")
}
