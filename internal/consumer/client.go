// Package consumer is the dashboard side of the service: an HTTP client for
// the feed endpoints plus the retrying loaders built on top of it.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/guttosm/neowatch/internal/apperr"
	"github.com/guttosm/neowatch/internal/domain/dto"
	"github.com/guttosm/neowatch/internal/domain/models"
	"github.com/guttosm/neowatch/internal/middleware"
)

const (
	defaultDayMessage        = "Failed to fetch asteroid data."
	defaultHistoricalMessage = "Failed to fetch historical data"
)

// DataSource is what the dashboard loaders need from the service.
type DataSource interface {
	FetchDay(ctx context.Context, day time.Time, requestID string) (*dto.DayResponse, error)
	FetchHistorical(ctx context.Context, r *models.DateRange) (*dto.HistoricalResponse, error)
}

// Client calls the feed endpoints of a running service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient targets the service at baseURL (e.g. http://localhost:5000).
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// FetchDay calls GET /neos?date=. A non-empty requestID is sent as
// X-Request-ID so retries of one load share an identifier in server logs.
func (c *Client) FetchDay(ctx context.Context, day time.Time, requestID string) (*dto.DayResponse, error) {
	q := url.Values{}
	q.Set("date", day.Format(models.DateLayout))

	var out dto.DayResponse
	if err := c.get(ctx, "/neos?"+q.Encode(), requestID, defaultDayMessage, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchHistorical calls GET /neos/historical. A nil range lets the service
// pick its default window.
func (c *Client) FetchHistorical(ctx context.Context, r *models.DateRange) (*dto.HistoricalResponse, error) {
	path := "/neos/historical"
	if r != nil {
		q := url.Values{}
		q.Set("start_date", r.StartDate())
		q.Set("end_date", r.EndDate())
		path += "?" + q.Encode()
	}

	var out dto.HistoricalResponse
	if err := c.get(ctx, path, "", defaultHistoricalMessage, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// get performs the request and decodes a 2xx body into out.
//
// Any failed round trip becomes an *apperr.UpstreamError carrying the
// service's message (or fallback when the body has none); an undecodable 2xx
// body becomes an *apperr.DataShapeError.
func (c *Client) get(ctx context.Context, path, requestID, fallback string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if requestID != "" {
		req.Header.Set(middleware.RequestIDHeader, requestID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &apperr.UpstreamError{Message: fallback, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &apperr.UpstreamError{Status: resp.StatusCode, Message: fallback, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var envelope dto.ErrorResponse
		msg := fallback
		var detail error
		if json.Unmarshal(body, &envelope) == nil {
			if envelope.Message != "" {
				msg = envelope.Message
			}
			if envelope.ErrorDetails != "" {
				detail = errors.New(envelope.ErrorDetails)
			}
		}
		return &apperr.UpstreamError{Status: resp.StatusCode, Message: msg, Err: detail}
	}

	if err := json.Unmarshal(body, out); err != nil {
		raw := string(body)
		if len(raw) > 120 {
			raw = raw[:120] + "..."
		}
		return &apperr.DataShapeError{Field: "body", RawValue: raw}
	}
	return nil
}
