package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/datafolio/internal/forecast"
	"github.com/templui/datafolio/internal/grid"
)

type fakePredictor struct {
	features [][2]any
	horizon  int
	points   []forecast.Point
	err      error
}

func (f *fakePredictor) Predict(_ context.Context, features [][2]any, horizon int) ([]forecast.Point, error) {
	f.features = features
	f.horizon = horizon
	return f.points, f.err
}

func TestForecastAppendsPredictions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice@example.com")
	tbl := env.table(t, alice, env.portfolio(t, alice, "One").ID, "prices", []string{"date", "price", "note"},
		grid.Row{"date": "2024-01-01", "price": "10", "note": "a"},
		grid.Row{"date": "2024-01-02", "price": "n/a", "note": "b"},
		grid.Row{"date": "2024-01-03", "price": "12.5", "note": "c"},
	)

	predictor := &fakePredictor{points: []forecast.Point{
		{X: "2024-01-04", Y: 13},
		{X: "2024-01-05", Y: 13.456},
	}}
	svc := NewForecastService(env.tables, predictor)

	end := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	res, err := svc.Forecast(ctx, alice, tbl.Name, "date", "price", end)
	require.NoError(t, err)

	assert.Equal(t, [][2]any{{"2024-01-01", 10.0}, {"2024-01-03", 12.5}}, predictor.features)
	assert.Equal(t, 2, predictor.horizon)
	assert.Equal(t, 2, res.Horizon)
	assert.Equal(t, 2, res.Predicted)

	require.Equal(t, 5, res.Len())
	assert.Equal(t, grid.Row{"date": "2024-01-04", "price": "13.00", "note": nil}, res.Rows[3])
	assert.Equal(t, grid.Row{"date": "2024-01-05", "price": "13.46", "note": nil}, res.Rows[4])
}

func TestForecastErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice@example.com")
	bob := env.user(t, "bob@example.com")
	tbl := env.table(t, alice, env.portfolio(t, alice, "One").ID, "prices", []string{"date", "price"},
		grid.Row{"date": "2024-01-03", "price": "1"},
	)
	end := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	svc := NewForecastService(env.tables, &fakePredictor{})

	_, err := svc.Forecast(ctx, bob, tbl.Name, "date", "price", end)
	assert.ErrorIs(t, err, ErrTableNotFound)

	_, err = svc.Forecast(ctx, alice, tbl.Name, "day", "price", end)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Forecast(ctx, alice, tbl.Name, "date", "price", time.Date(2024, 1, 3, 6, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, forecast.ErrHorizonPassed)

	failing := NewForecastService(env.tables, &fakePredictor{err: errors.New("connection refused")})
	_, err = failing.Forecast(ctx, alice, tbl.Name, "date", "price", end)
	assert.ErrorIs(t, err, ErrForecastUnavailable)
}
