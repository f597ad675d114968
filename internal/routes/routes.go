package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/templui/datafolio/internal/app"
	"github.com/templui/datafolio/internal/handler"
	"github.com/templui/datafolio/internal/middleware"
)

func SetupRoutes(ctx context.Context, app *app.App) (http.Handler, error) {
	// Handlers
	health := handler.NewHealthHandler(app.DB)
	auth := handler.NewAuthHandler(app.AuthService, app.Cfg)
	portfolio := handler.NewPortfolioHandler(app.PortfolioService)
	table := handler.NewTableHandler(app.TableService)
	file := handler.NewFileHandler(app.FileService, app.Cfg.UploadMaxBytes)
	analysis := handler.NewAnalysisHandler(app.AnalysisService)
	forecast, err := handler.NewForecastHandler(app.ForecastService, app.Cfg.ForecastURL)
	if err != nil {
		return nil, err
	}

	// Auth - 10 requests per 15 minutes per IP
	rateLimited := middleware.RateLimit(middleware.NewRateLimiter(10, 15*time.Minute, ctx.Done()))
	requireAuth := middleware.RequireAuth(app.AuthService)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /healthz", health.Health)

	// Auth
	mux.HandleFunc("POST /api/auth/signup", rateLimited(auth.Signup))
	mux.HandleFunc("POST /api/auth/login", rateLimited(auth.Login))

	// OAuth
	mux.HandleFunc("GET /api/auth/google", rateLimited(auth.GoogleAuth))
	mux.HandleFunc("GET /api/auth/google/callback", rateLimited(auth.GoogleCallback))
	mux.HandleFunc("GET /api/auth/github", rateLimited(auth.GitHubAuth))
	mux.HandleFunc("GET /api/auth/github/callback", rateLimited(auth.GitHubCallback))

	// ============================================================================
	// PROTECTED ROUTES (Authorization: Bearer <token>)
	// ============================================================================

	mux.HandleFunc("GET /api/me", requireAuth(auth.Me))

	// Portfolios
	mux.HandleFunc("GET /api/portfolios", requireAuth(portfolio.List))
	mux.HandleFunc("POST /api/portfolios", requireAuth(portfolio.Create))
	mux.HandleFunc("GET /api/portfolio/{id}", requireAuth(portfolio.Show))
	mux.HandleFunc("DELETE /api/portfolio/{id}", requireAuth(portfolio.Delete))

	// Tables
	mux.HandleFunc("PUT /api/table", requireAuth(table.Create))
	mux.HandleFunc("PUT /api/table/remove", requireAuth(table.Remove))
	mux.HandleFunc("PUT /api/table/share", requireAuth(table.Share))
	mux.HandleFunc("PUT /api/table/copy", requireAuth(table.Copy))
	mux.HandleFunc("GET /api/table/{name}", requireAuth(table.Show))
	mux.HandleFunc("GET /api/table/{name}/export", requireAuth(table.Export))
	mux.HandleFunc("DELETE /api/table/{name}", requireAuth(table.Delete))
	mux.HandleFunc("POST /api/table/{name}/forecast", requireAuth(forecast.Forecast))

	// Files
	mux.HandleFunc("POST /api/file", requireAuth(file.Upload))
	mux.HandleFunc("PUT /api/file/remove", requireAuth(file.Remove))
	mux.HandleFunc("PUT /api/file/copy", requireAuth(file.Copy))
	mux.HandleFunc("PUT /api/file/share", requireAuth(file.Share))
	mux.HandleFunc("GET /api/file/{id}", requireAuth(file.Download))
	mux.HandleFunc("GET /api/file/{id}/url", requireAuth(file.URL))
	mux.HandleFunc("GET /api/file/{id}/grid", requireAuth(file.Grid))

	// Analysis
	mux.HandleFunc("POST /api/join", requireAuth(analysis.Join))
	mux.HandleFunc("POST /api/group", requireAuth(analysis.Group))
	mux.HandleFunc("POST /api/predict", requireAuth(forecast.Predict))

	// Unknown API paths answer in JSON
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not found"}` + "\n"))
	})

	return middleware.Chain(mux,
		middleware.RequestID,
		middleware.RequestLogging,
		middleware.Config(app.Cfg),
	), nil
}
