package openmeteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"kyushu-tempmap/internal/modules/tempmap/transform"
	"kyushu-tempmap/internal/modules/tempmap/types"
)

const maxErrorBody = 512

type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient returns a client for the forecast endpoint at baseURL. A nil
// httpClient means http.DefaultClient; a nil limiter disables throttling.
func NewClient(baseURL string, httpClient *http.Client, limiter *rate.Limiter) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		limiter:    limiter,
	}
}

type currentResponse struct {
	Current *struct {
		Time          *string  `json:"time"`
		Temperature2m *float64 `json:"temperature_2m"`
	} `json:"current"`
}

type apiError struct {
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}

// Current fetches the current 2m temperature for loc.
func (c *Client) Current(ctx context.Context, loc types.Location) (types.Reading, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return types.Reading{}, &types.NetworkError{Location: loc.Name, Err: fmt.Errorf("rate limit wait canceled: %w", err)}
		}
	}

	reqURL, err := c.currentURL(loc)
	if err != nil {
		return types.Reading{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return types.Reading{}, fmt.Errorf("build request for %s: %w", loc.Name, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return types.Reading{}, &types.NetworkError{Location: loc.Name, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return types.Reading{}, &types.HTTPStatusError{
			Location:   loc.Name,
			StatusCode: resp.StatusCode,
			Body:       errorReason(resp.Body),
		}
	}

	var body currentResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return types.Reading{}, &types.MalformedResponseError{Location: loc.Name, Reason: "decode body", Err: err}
	}
	if body.Current == nil {
		return types.Reading{}, &types.MalformedResponseError{Location: loc.Name, Reason: "missing current"}
	}
	if body.Current.Temperature2m == nil {
		return types.Reading{}, &types.MalformedResponseError{Location: loc.Name, Reason: "missing current.temperature_2m"}
	}
	if body.Current.Time == nil {
		return types.Reading{}, &types.MalformedResponseError{Location: loc.Name, Reason: "missing current.time"}
	}

	observedAt, err := transform.ParseObservedAt(*body.Current.Time)
	if err != nil {
		return types.Reading{}, &types.MalformedResponseError{Location: loc.Name, Reason: "current.time", Err: err}
	}

	return types.Reading{
		Location:    loc,
		Temperature: *body.Current.Temperature2m,
		ObservedAt:  observedAt,
	}, nil
}

func (c *Client) currentURL(loc types.Location) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url %q: %w", c.baseURL, err)
	}
	q := u.Query()
	q.Set("latitude", strconv.FormatFloat(loc.Latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(loc.Longitude, 'f', -1, 64))
	q.Set("current", "temperature_2m")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// errorReason extracts Open-Meteo's {"error":true,"reason":...} message, or
// falls back to the start of the raw body.
func errorReason(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil && !errors.Is(err, io.EOF) {
		return ""
	}
	var apiErr apiError
	if json.Unmarshal(b, &apiErr) == nil && apiErr.Reason != "" {
		return apiErr.Reason
	}
	return strings.TrimSpace(string(b))
}
