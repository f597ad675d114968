package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/templui/datafolio/internal/ctxkeys"
	"github.com/templui/datafolio/internal/forecast"
	"github.com/templui/datafolio/internal/service"
)

type forecastRequest struct {
	X       string `json:"x" validate:"required"`
	Y       string `json:"y" validate:"required"`
	EndDate string `json:"endDate" validate:"required"`
}

type ForecastHandler struct {
	forecastService *service.ForecastService
	proxy           *httputil.ReverseProxy
}

// NewForecastHandler proxies /api/predict to predictURL unchanged apart from
// the caller's credentials.
func NewForecastHandler(forecastService *service.ForecastService, predictURL string) (*ForecastHandler, error) {
	target, err := url.Parse(predictURL)
	if err != nil {
		return nil, fmt.Errorf("invalid forecast url: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid forecast url %q", predictURL)
	}

	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.Out.URL.Path = target.Path
			pr.Out.URL.RawPath = target.RawPath
			pr.Out.URL.RawQuery = target.RawQuery
			pr.Out.Header.Del("Authorization")
			pr.Out.Header.Del("Cookie")
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			slog.Warn("forecast proxy failed", "error", err, "target", target.Redacted())
			writeError(w, http.StatusBadGateway, service.ErrForecastUnavailable.Error())
		},
	}

	return &ForecastHandler{
		forecastService: forecastService,
		proxy:           proxy,
	}, nil
}

func (h *ForecastHandler) Forecast(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req forecastRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	end, err := forecast.ParseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusForbidden, msgInvalidForm)
		return
	}

	result, err := h.forecastService.Forecast(r.Context(), user, r.PathValue("name"), req.X, req.Y, end)
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *ForecastHandler) Predict(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	h.proxy.ServeHTTP(w, r)
}
