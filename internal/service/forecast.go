package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/templui/datafolio/internal/forecast"
	"github.com/templui/datafolio/internal/grid"
	"github.com/templui/datafolio/internal/model"
)

var ErrForecastUnavailable = errors.New("forecast service unavailable")

type Predictor interface {
	Predict(ctx context.Context, features [][2]any, horizon int) ([]forecast.Point, error)
}

// ForecastResult is the table's rows with the predicted rows appended.
type ForecastResult struct {
	grid.Grid
	Horizon   int `json:"horizon"`
	Predicted int `json:"predicted"`
}

type ForecastService struct {
	tables    *TableService
	predictor Predictor
}

func NewForecastService(tables *TableService, predictor Predictor) *ForecastService {
	return &ForecastService{
		tables:    tables,
		predictor: predictor,
	}
}

// Forecast predicts column y over column x from the table's last date up to end.
// Rows without an x value or with a non-numeric y are left out of the features.
func (s *ForecastService) Forecast(ctx context.Context, user *model.User, table, x, y string, end time.Time) (*ForecastResult, error) {
	g, err := s.tables.Rows(ctx, user, table)
	if err != nil {
		return nil, err
	}
	if !g.HasColumn(x) || !g.HasColumn(y) {
		return nil, invalidInput(fmt.Errorf("%w: %q or %q", grid.ErrUnknownColumn, x, y))
	}

	features := make([][2]any, 0, len(g.Rows))
	xs := make([]string, 0, len(g.Rows))
	for _, r := range g.Rows {
		xv := strings.TrimSpace(grid.FormatValue(r[x]))
		yv, err := strconv.ParseFloat(strings.TrimSpace(grid.FormatValue(r[y])), 64)
		if xv == "" || err != nil {
			continue
		}
		features = append(features, [2]any{xv, yv})
		xs = append(xs, xv)
	}
	if len(features) == 0 {
		return nil, invalidInput(errors.New("no usable rows to forecast"))
	}

	horizon, err := forecast.Horizon(xs, end)
	if err != nil {
		return nil, invalidInput(err)
	}

	points, err := s.predictor.Predict(ctx, features, horizon)
	if err != nil {
		slog.Error("forecast failed", "error", err, "user_id", user.ID, "table", table, "horizon", horizon)
		return nil, fmt.Errorf("%w: %v", ErrForecastUnavailable, err)
	}

	rows := make([]grid.Row, 0, len(g.Rows)+len(points))
	rows = append(rows, g.Rows...)
	for _, p := range points {
		row := make(grid.Row, len(g.Columns))
		for _, c := range g.Columns {
			row[c] = nil
		}
		row[x] = p.X
		row[y] = strconv.FormatFloat(p.Y, 'f', 2, 64)
		rows = append(rows, row)
	}

	slog.Info("forecast computed", "user_id", user.ID, "table", table, "horizon", horizon, "points", len(points))
	return &ForecastResult{
		Grid:      grid.New(g.Columns, rows),
		Horizon:   horizon,
		Predicted: len(points),
	}, nil
}
