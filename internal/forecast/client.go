// Package forecast talks to the external time-series prediction service.
package forecast

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
)

var ErrBadResponse = errors.New("unexpected forecast response")

// Point is one (x, y) pair of a series.
type Point struct {
	X any
	Y float64
}

func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{p.X, p.Y})
}

// Request is the body the prediction service expects.
type Request struct {
	Features       [][2]any `json:"features"`
	ForecastLength int      `json:"forecastLength"`
}

type Client struct {
	url        string
	resultPath string
	httpClient *http.Client
}

// NewClient returns a client posting to url. resultPath is a JSONPath
// selecting the list of [x, y] pairs in the response, e.g. "$.prediction".
func NewClient(url, resultPath string, timeout time.Duration) *Client {
	return &Client{
		url:        url,
		resultPath: resultPath,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) URL() string {
	return c.url
}

// Predict asks for horizon points following the given features.
func (c *Client) Predict(ctx context.Context, features [][2]any, horizon int) ([]Point, error) {
	body, err := json.Marshal(Request{Features: features, ForecastLength: horizon})
	if err != nil {
		return nil, fmt.Errorf("failed to encode forecast request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build forecast request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forecast request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrBadResponse, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var jobj any
	err = json.NewDecoder(resp.Body).Decode(&jobj)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}

	jval, err := jsonpath.Get(c.resultPath, jobj)
	if err != nil {
		return nil, fmt.Errorf("%w: path %q: %v", ErrBadResponse, c.resultPath, err)
	}

	return points(jval)
}

func points(jval any) ([]Point, error) {
	list, ok := jval.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: prediction is not a list", ErrBadResponse)
	}
	// wildcard paths wrap the matched list in another list
	if len(list) == 1 {
		if inner, ok := list[0].([]any); ok && len(inner) > 0 {
			if _, nested := inner[0].([]any); nested {
				list = inner
			}
		}
	}

	out := make([]Point, 0, len(list))
	for i, item := range list {
		pair, ok := item.([]any)
		if !ok || len(pair) < 2 {
			return nil, fmt.Errorf("%w: point %d is not an [x, y] pair", ErrBadResponse, i)
		}
		y, err := number(pair[1])
		if err != nil {
			return nil, fmt.Errorf("%w: point %d: %v", ErrBadResponse, i, err)
		}
		out = append(out, Point{X: pair[0], Y: y})
	}
	return out, nil
}

func number(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(x), 64)
	default:
		return 0, fmt.Errorf("not a number: %v", v)
	}
}
