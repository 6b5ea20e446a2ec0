// Package gateway is a thin client for the managed backend: PostgREST rows,
// auth and named functions. It owns no business logic.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/IGSolution/carehappyfarmsdemo/pkg/circuitbreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Config struct {
	URL        string
	APIKey     string
	HTTPClient *http.Client
	Breaker    *circuitbreaker.Breaker
	Retry      RetryConfig
	// Observe receives the duration and outcome of every call.
	Observe func(op string, d time.Duration, err error)
}

type RetryConfig struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
	}
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *circuitbreaker.Breaker
	retry      RetryConfig
	observe    func(op string, d time.Duration, err error)
}

func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("URL is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("APIKey is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	breaker := cfg.Breaker
	if breaker == nil {
		bc := circuitbreaker.DefaultConfig()
		bc.IsSuccessful = func(err error) bool {
			return err == nil || (!errors.Is(err, ErrUnavailable) && !isTransport(err))
		}
		breaker = circuitbreaker.New("backend", bc)
	}

	retry := cfg.Retry
	if retry.MaxAttempts < 1 {
		retry = DefaultRetryConfig()
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		breaker:    breaker,
		retry:      retry,
		observe:    cfg.Observe,
	}, nil
}

type tokenKey struct{}

// WithAccessToken makes calls made with ctx act as the signed-in user.
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func accessToken(ctx context.Context) string {
	if t, ok := ctx.Value(tokenKey{}).(string); ok {
		return t
	}
	return ""
}

type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("apikey", c.apiKey)
	bearer := accessToken(ctx)
	if bearer == "" {
		bearer = c.apiKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) do(req *http.Request) (*Response, error) {
	start := time.Now()
	resp, err := c.send(req)
	if c.observe != nil {
		c.observe(operation(req), time.Since(start), err)
	}
	return resp, err
}

// send retries reads only; writes and function calls are single attempts.
func (c *Client) send(req *http.Request) (*Response, error) {
	attempts := 1
	if req.Method == http.MethodGet {
		attempts = c.retry.MaxAttempts
	}

	backoff := c.retry.InitialBackoff
	for i := 0; ; i++ {
		resp, err := circuitbreaker.Do(c.breaker, func() (*Response, error) {
			return c.roundTrip(req)
		})
		if err == nil || i+1 >= attempts || !retryable(err) {
			return resp, err
		}

		wait := backoff + time.Duration(rand.Int63n(int64(backoff)/5+1))
		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(wait):
		}
		backoff *= 2
		if backoff > c.retry.MaxBackoff {
			backoff = c.retry.MaxBackoff
		}
	}
}

func (c *Client) roundTrip(req *http.Request) (*Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &transportError{err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &transportError{err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, newAPIError(resp.StatusCode, body)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
		Headers:    resp.Header,
	}, nil
}

type transportError struct {
	err error
}

func (e *transportError) Error() string { return "http request: " + e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

func isTransport(err error) bool {
	var te *transportError
	return errors.As(err, &te)
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return isTransport(err) || errors.Is(err, ErrUnavailable)
}

// operation gives a low-cardinality label such as "rest:products".
func operation(req *http.Request) string {
	parts := strings.Split(strings.Trim(req.URL.Path, "/"), "/")
	if len(parts) >= 3 {
		return parts[0] + ":" + parts[2]
	}
	return strings.Join(parts, ":")
}
