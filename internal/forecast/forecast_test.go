package forecast

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredict(t *testing.T) {
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"prediction": [["2024-01-04", 4.125], ["2024-01-05", "5.5"]]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "$.prediction", time.Second)
	pts, err := c.Predict(context.Background(), [][2]any{{"2024-01-03", 3.0}}, 2)
	require.NoError(t, err)

	assert.Equal(t, 2, got.ForecastLength)
	require.Len(t, got.Features, 1)
	assert.Equal(t, "2024-01-03", got.Features[0][0])

	assert.Equal(t, []Point{{X: "2024-01-04", Y: 4.125}, {X: "2024-01-05", Y: 5.5}}, pts)
}

func TestPredictCustomPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data": {"points": [[1, 2]]}}`)
	}))
	defer srv.Close()

	pts, err := NewClient(srv.URL, "$.data.points", time.Second).Predict(context.Background(), nil, 1)
	require.NoError(t, err)
	assert.Equal(t, []Point{{X: 1.0, Y: 2}}, pts)
}

func TestPredictErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"upstream error", http.StatusInternalServerError, `boom`},
		{"not json", http.StatusOK, `<html>`},
		{"missing path", http.StatusOK, `{"other": []}`},
		{"not pairs", http.StatusOK, `{"prediction": [1, 2]}`},
		{"not numeric", http.StatusOK, `{"prediction": [["a", "b"]]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, "$.prediction", time.Second).Predict(context.Background(), nil, 1)
			assert.ErrorIs(t, err, ErrBadResponse)
		})
	}
}

func TestPredictTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "$.prediction", 50*time.Millisecond).Predict(context.Background(), nil, 1)
	assert.Error(t, err)
}

func TestPointMarshalsAsPair(t *testing.T) {
	data, err := json.Marshal(Point{X: "2024-01-01", Y: 1.5})
	require.NoError(t, err)
	assert.JSONEq(t, `["2024-01-01", 1.5]`, string(data))
}

func TestHorizon(t *testing.T) {
	end := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	days, err := Horizon([]string{"2024-01-01", "2024-01-05", "", "2024-01-03"}, end)
	require.NoError(t, err)
	assert.Equal(t, 5, days)

	days, err = Horizon([]string{"2024-01-09T12:00:00Z"}, end)
	require.ErrorIs(t, err, ErrHorizonPassed)
	assert.Zero(t, days)

	_, err = Horizon([]string{"2024-01-01", "yesterday"}, end)
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = Horizon([]string{"", " "}, end)
	assert.ErrorIs(t, err, ErrNoDates)
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{"2024-03-01", "2024/03/01", "03/01/2024", "2024-03-01 00:00:00", "2024-03-01T00:00:00Z"} {
		d, err := ParseDate(s)
		require.NoError(t, err, s)
		assert.Equal(t, time.March, d.Month(), s)
		assert.Equal(t, 1, d.Day(), s)
	}
}
