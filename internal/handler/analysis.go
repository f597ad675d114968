package handler

import (
	"net/http"

	"github.com/templui/datafolio/internal/ctxkeys"
	"github.com/templui/datafolio/internal/service"
)

type AnalysisHandler struct {
	analysisService *service.AnalysisService
}

func NewAnalysisHandler(analysisService *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{analysisService: analysisService}
}

func (h *AnalysisHandler) Join(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req service.JoinRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	g, err := h.analysisService.Join(r.Context(), user, req)
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, g)
}

func (h *AnalysisHandler) Group(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req service.GroupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	g, err := h.analysisService.Group(r.Context(), user, req)
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, g)
}
