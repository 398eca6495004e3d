package backend

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

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/onegreenvn/xreacher-gateway/internal/config"
	"github.com/onegreenvn/xreacher-gateway/internal/metrics"
	"github.com/sirupsen/logrus"
)

const maxResponseBody = 10 << 20

// Client calls the backend REST API. A Client is bound to at most one bearer token,
// use WithToken to derive a per-request client sharing the transport and breaker.
type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   failsafe.Executor[*http.Response]
	token      string
}

// NewClient creates a backend client guarded by a circuit breaker.
// Failed calls are never retried.
func NewClient(cfg config.BackendConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	breaker := circuitbreaker.NewBuilder[*http.Response]().
		HandleIf(func(resp *http.Response, err error) bool {
			return err != nil || (resp != nil && resp.StatusCode >= http.StatusInternalServerError)
		}).
		WithFailureThresholdRatio(5, 10).
		WithDelay(15 * time.Second).
		WithSuccessThreshold(1).
		OnStateChanged(func(event circuitbreaker.StateChangedEvent) {
			logrus.WithFields(logrus.Fields{
				"from": event.OldState,
				"to":   event.NewState,
			}).Warn("Backend circuit breaker state changed")
		}).
		Build()

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		executor:   failsafe.With[*http.Response](breaker),
	}
}

// WithToken returns a copy of the client that authenticates as token
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.token = token
	return &clone
}

// envelope is the common shape of backend error payloads
type envelope struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Msg     string `json:"msg"`
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}
	contentType := ""
	if in != nil {
		contentType = "application/json"
	}
	return c.do(ctx, method, path, body, contentType, out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "xreacher-gateway/1.0")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.executor.WithContext(ctx).Get(func() (*http.Response, error) {
		return c.httpClient.Do(req)
	})
	if err != nil {
		metrics.BackendRequests.WithLabelValues(method, "error").Inc()
		if errors.Is(err, circuitbreaker.ErrOpen) {
			return fmt.Errorf("%w: circuit open", ErrUnavailable)
		}
		logrus.WithFields(logrus.Fields{"method": method, "path": path}).Warnf("Backend request failed: %v", err)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	metrics.BackendRequests.WithLabelValues(method, strconv.Itoa(resp.StatusCode/100)+"xx").Inc()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}

	var env envelope
	if len(data) > 0 {
		// Non-JSON error pages still produce an APIError below
		_ = json.Unmarshal(data, &env)
	}

	// flask-jwt-extended answers malformed tokens with 422 {"msg": ...}
	if resp.StatusCode == http.StatusUnprocessableEntity && env.Msg != "" && env.Error == "" {
		return ErrUnauthorized
	}

	if resp.StatusCode >= http.StatusBadRequest || (env.Success != nil && !*env.Success) {
		message := env.Error
		if message == "" {
			message = env.Message
		}
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: message}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}
