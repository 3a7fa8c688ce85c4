// Package client provides the resilient HTTP transport for the catalog CMS:
// base URL and auth handling, retry with exponential backoff, a typed error
// taxonomy, and user-facing notification emission.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/showdeck/catalog-client/pkg/notify"
	"github.com/showdeck/catalog-client/pkg/retry"
)

// DefaultBaseURL is the hosted CMS endpoint used when none is configured.
const DefaultBaseURL = "https://elantil-fe-task.directus.app"

// Prometheus metrics for transport operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_requests_total",
		Help: "Total CMS requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_request_duration_seconds",
		Help:    "CMS request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_errors_total",
		Help: "Total CMS request errors by class",
	}, []string{"class"})
)

// Client is the single point of outbound HTTP traffic to the CMS.
type Client struct {
	httpClient *http.Client
	config     Config
	notifier   *notify.Center
	logger     zerolog.Logger
}

// Config holds the transport configuration.
type Config struct {
	// BaseURL of the CMS. Defaults to DefaultBaseURL.
	BaseURL string

	// Token is the optional bearer credential attached to every request.
	Token string

	// TokenSource, when set, is consulted per request instead of Token.
	TokenSource func() string

	// Timeout per attempt.
	Timeout time.Duration

	// Retry policy. Applied exactly once, at this layer.
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64

	// Notifier receives one notification per terminal failure and per
	// successful mutation. Optional.
	Notifier *notify.Center

	// HTTPClient overrides the underlying client (for testing).
	HTTPClient *http.Client
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:      DefaultBaseURL,
		Timeout:      30 * time.Second,
		MaxRetries:   3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
	}
}

// New creates a new CMS client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max_retries must be >= 0 (got %d)", cfg.MaxRetries)
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = 1 * time.Second
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 10 * time.Second
	}
	if cfg.Multiplier <= 1 {
		cfg.Multiplier = 2.0
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		httpClient: httpClient,
		config:     cfg,
		notifier:   cfg.Notifier,
		logger:     log.With().Str("component", "cms-client").Logger(),
	}, nil
}

// Get performs a read request against a CMS collection path.
func (c *Client) Get(ctx context.Context, path string, params Params) (*Envelope, error) {
	return c.do(ctx, http.MethodGet, path, params, nil)
}

// Post performs a mutation against a CMS collection path.
func (c *Client) Post(ctx context.Context, path string, body any) (*Envelope, error) {
	return c.do(ctx, http.MethodPost, path, Params{}, body)
}

// do executes one logical request: it applies the retry policy around the
// wire attempts and settles with exactly one notification on terminal
// failure or successful mutation. Notification emission happens before the
// caller observes the result.
func (c *Client) do(ctx context.Context, method, path string, params Params, body any) (*Envelope, error) {
	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(path).Observe(time.Since(startTime).Seconds())
	}()

	if c.notifier != nil {
		c.notifier.IncrementActive()
		defer c.notifier.DecrementActive()
	}

	values, err := params.Values()
	if err != nil {
		c.notifySendFailure()
		return nil, &APIError{Message: "Could not send request.", Err: err}
	}

	var bodyBytes []byte
	if body != nil {
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			c.notifySendFailure()
			return nil, &APIError{Message: "Could not send request.", Err: err}
		}
	}

	requestURL := c.config.BaseURL + path
	if len(values) > 0 {
		requestURL += "?" + values.Encode()
	}

	c.logger.Debug().
		Str("method", method).
		Str("endpoint", path).
		Msg("Executing CMS request")

	env, err := retry.Do(ctx, func(ctx context.Context) (*Envelope, error) {
		return c.attempt(ctx, method, path, requestURL, bodyBytes)
	},
		retry.WithMaxRetries(c.config.MaxRetries),
		retry.WithInitialDelay(c.config.InitialDelay),
		retry.WithMaxDelay(c.config.MaxDelay),
		retry.WithMultiplier(c.config.Multiplier),
		retry.WithRetryable(Retryable),
		retry.WithOperation(path),
	)
	if err != nil {
		errorsTotal.WithLabelValues(string(Classify(err))).Inc()
		c.notifyFailure(err)
		return nil, err
	}

	if isMutation(method) {
		c.notifySuccess()
	}
	return env, nil
}

// attempt performs a single wire attempt and classifies its outcome.
func (c *Client) attempt(ctx context.Context, method, path, requestURL string, body []byte) (*Envelope, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, reader)
	if err != nil {
		return nil, &APIError{Message: "Could not send request.", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("endpoint", path).Msg("CMS request failed")
		requestsTotal.WithLabelValues(path, "network_error").Inc()
		return nil, &NetworkError{
			Message: "Could not reach the server. Please check your internet connection.",
			Err:     err,
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		requestsTotal.WithLabelValues(path, "network_error").Inc()
		return nil, &NetworkError{
			Message: "Could not reach the server. Please check your internet connection.",
			Err:     err,
		}
	}

	requestsTotal.WithLabelValues(path, fmt.Sprintf("%d", resp.StatusCode)).Inc()

	if resp.StatusCode >= 400 {
		apiErr := c.errorFromResponse(resp.StatusCode, respBody)
		c.logger.Warn().
			Str("endpoint", path).
			Int("status", resp.StatusCode).
			Str("error_class", string(Classify(apiErr))).
			Msg("CMS request error")
		return nil, apiErr
	}

	var env Envelope
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &env); err != nil {
			return nil, &APIError{
				Message:    "Something went wrong",
				StatusCode: resp.StatusCode,
				Err:        err,
			}
		}
	}
	return &env, nil
}

// serverMessage extracts the optional {errors:[{message}]} or {message}
// shapes from an error response body.
func serverMessage(body []byte) string {
	var withErrors struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &withErrors); err == nil && len(withErrors.Errors) > 0 {
		return withErrors.Errors[0].Message
	}

	var withMessage struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &withMessage); err == nil {
		return withMessage.Message
	}
	return ""
}

// errorFromResponse maps a non-2xx response to its typed error with the
// user-visible message for that status.
func (c *Client) errorFromResponse(status int, body []byte) *APIError {
	message := ""
	switch status {
	case http.StatusBadRequest:
		message = serverMessage(body)
		if message == "" {
			message = "Invalid request."
		}
	case http.StatusUnauthorized:
		message = "You need to sign in to continue."
	case http.StatusForbidden:
		message = "You don't have permission to do that."
	case http.StatusNotFound:
		message = "Resource not found."
	case http.StatusTooManyRequests:
		message = "Too many requests. Please wait a moment."
	case http.StatusInternalServerError:
		message = "Server error. Our team has been notified."
	default:
		message = serverMessage(body)
		if message == "" {
			message = fmt.Sprintf("API error (%d)", status)
		}
	}
	return &APIError{Message: message, StatusCode: status}
}

// notifyFailure publishes the single user-facing notification for a
// terminal request failure.
func (c *Client) notifyFailure(err error) {
	if c.notifier == nil {
		return
	}

	if netErr, ok := asNetworkError(err); ok {
		c.notifier.Publish(notify.Notification{
			Kind:        notify.KindError,
			Title:       "Connection Error",
			Message:     netErr.Message,
			AutoDismiss: notify.Sticky,
		})
		return
	}

	if apiErr, ok := asAPIError(err); ok && apiErr.StatusCode > 0 {
		kind := notify.KindError
		title := "Error"
		dismiss := time.Duration(0)

		switch apiErr.StatusCode {
		case http.StatusBadRequest, http.StatusTooManyRequests:
			kind = notify.KindWarning
		case http.StatusUnauthorized:
			kind = notify.KindWarning
			title = "Unauthorized"
			dismiss = notify.Sticky
		}

		c.notifier.Publish(notify.Notification{
			Kind:        kind,
			Title:       title,
			Message:     apiErr.Message,
			AutoDismiss: dismiss,
		})
		return
	}

	c.notifier.Publish(notify.Notification{
		Kind:    notify.KindError,
		Title:   "Unexpected Error",
		Message: "An unknown error occurred. Please try again.",
	})
}

// notifySendFailure covers requests that never reached the network layer.
func (c *Client) notifySendFailure() {
	if c.notifier == nil {
		return
	}
	c.notifier.Publish(notify.Notification{
		Kind:    notify.KindError,
		Title:   "Request failed",
		Message: "Could not send request. Please check your connection.",
	})
}

// notifySuccess publishes the single notification for a settled mutation.
func (c *Client) notifySuccess() {
	if c.notifier == nil {
		return
	}
	c.notifier.Publish(notify.Notification{
		Kind:        notify.KindSuccess,
		Title:       "Success!",
		Message:     "Your changes were saved.",
		AutoDismiss: 3 * time.Second,
	})
}

func (c *Client) token() string {
	if c.config.TokenSource != nil {
		return c.config.TokenSource()
	}
	return c.config.Token
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}
