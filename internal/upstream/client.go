package upstream

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

	"github.com/sony/gobreaker"

	"github.com/guttosm/neowatch/config"
	"github.com/guttosm/neowatch/internal/apperr"
	"github.com/guttosm/neowatch/internal/domain/models"
	"github.com/guttosm/neowatch/internal/logger"
	"github.com/guttosm/neowatch/internal/metrics"
)

// maxBodyBytes caps how much of a provider response is read into memory.
const maxBodyBytes = 16 << 20

// Fetcher performs one provider round trip for a date range.
type Fetcher interface {
	Fetch(ctx context.Context, r models.DateRange) (*models.RawFeedPayload, error)
}

// Client implements Fetcher against the NeoWs feed endpoint.
//
// It never retries and never caches: identical ranges requested concurrently
// each produce their own round trip.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	metrics    *metrics.Metrics
}

// NewClient creates a feed client. The circuit breaker is only installed when
// cfg.BreakerFailures is positive.
func NewClient(cfg config.UpstreamConfig, m *metrics.Metrics) *Client {
	c := &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		metrics:    m,
	}
	if cfg.BreakerFailures > 0 {
		threshold := uint32(cfg.BreakerFailures)
		c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "neows-feed",
			MaxRequests: 1,
			Interval:    1 * time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			// Only upstream failures say anything about the provider's health.
			IsSuccessful: func(err error) bool {
				return err == nil || !apperr.Retryable(err)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.L().Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("upstream circuit state changed")
			},
		})
	}
	return c
}

// Fetch retrieves the raw feed for r in a single round trip.
//
// Errors:
//   - *apperr.ConfigurationError when no credential is configured (no I/O is attempted).
//   - *apperr.UpstreamError on transport failures, non-2xx replies or an open circuit.
//   - *apperr.DataShapeError when the body is not a feed document.
func (c *Client) Fetch(ctx context.Context, r models.DateRange) (*models.RawFeedPayload, error) {
	if c.apiKey == "" {
		return nil, &apperr.ConfigurationError{Reason: "NASA_API_KEY is not set"}
	}

	start := time.Now()
	body, err := c.execute(ctx, r)
	if err != nil {
		c.observe(start, err)
		logger.L().Warn().Str("range", r.String()).Dur("elapsed", time.Since(start)).Err(err).Msg("upstream fetch failed")
		return nil, err
	}

	var payload models.RawFeedPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		shapeErr := &apperr.DataShapeError{Field: "body", RawValue: snippet(body)}
		c.observe(start, shapeErr)
		return nil, shapeErr
	}
	c.observe(start, nil)
	if c.metrics != nil {
		c.metrics.FetchedObjects.Add(float64(payload.ElementCount))
	}

	logger.L().Debug().Str("range", r.String()).Int("elements", payload.ElementCount).Dur("elapsed", time.Since(start)).Msg("upstream fetch done")
	return &payload, nil
}

// Close releases idle keep-alive connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func (c *Client) execute(ctx context.Context, r models.DateRange) ([]byte, error) {
	if c.breaker == nil {
		return c.roundTrip(ctx, r)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.roundTrip(ctx, r)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &apperr.UpstreamError{Status: http.StatusServiceUnavailable, Message: "circuit open", Err: err}
	}
	if err != nil {
		return nil, err
	}
	body, ok := result.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected result type %T from circuit breaker", result)
	}
	return body, nil
}

func (c *Client) roundTrip(ctx context.Context, r models.DateRange) ([]byte, error) {
	values := url.Values{}
	values.Set("start_date", r.StartDate())
	values.Set("end_date", r.EndDate())
	values.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/feed?"+values.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Do wraps errors in *url.Error, whose message embeds the request URL and the credential.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, &apperr.UpstreamError{Message: "feed request failed: " + err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &apperr.UpstreamError{Status: resp.StatusCode, Message: "read feed body: " + err.Error(), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &apperr.UpstreamError{Status: resp.StatusCode, Message: providerMessage(resp.StatusCode, body)}
	}
	return body, nil
}

func (c *Client) observe(start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	c.metrics.UpstreamDuration.Observe(time.Since(start).Seconds())

	var up *apperr.UpstreamError
	var shape *apperr.DataShapeError
	switch {
	case err == nil:
		c.count("success")
	case errors.As(err, &shape):
		c.count("decode_error")
	case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
		c.count("circuit_open")
	case errors.As(err, &up) && up.Status == 0:
		c.count("transport_error")
	default:
		c.count("http_error")
	}
}

func (c *Client) count(outcome string) {
	if c.metrics != nil {
		c.metrics.UpstreamRequests.WithLabelValues(outcome).Inc()
	}
}

// providerError covers the two error bodies the provider sends: the API
// gateway shape ({"error":{"code","message"}}) and the service shape
// ({"code","http_error","error_message"}).
type providerError struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	ErrorMessage string `json:"error_message"`
}

func providerMessage(status int, body []byte) string {
	var pe providerError
	if err := json.Unmarshal(body, &pe); err == nil {
		if pe.ErrorMessage != "" {
			return pe.ErrorMessage
		}
		if pe.Error != nil && pe.Error.Message != "" {
			return pe.Error.Message
		}
	}
	return http.StatusText(status)
}

func snippet(b []byte) string {
	const max = 120
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
