// Package backend talks to the experiment analysis service over HTTP.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/huangsam/deepdive/internal/contract"
	"github.com/huangsam/deepdive/schema"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// RequestIDHeader carries a unique ID for every outgoing call.
const RequestIDHeader = "X-Request-ID"

// upstreamAbortMarker is how the service reports a data fetch the user aborted.
const upstreamAbortMarker = "Konom fetch failed"

// Client is a wrapper for HTTP client with rate limiting and retries.
type Client struct {
	baseURL         string
	httpClient      *http.Client
	limiter         *rate.Limiter
	retryMaxElapsed time.Duration
	log             zerolog.Logger
}

var _ contract.AnalysisClient = &Client{} // Compile-time check

// ClientOptions holds options for creating a new Client.
type ClientOptions struct {
	BaseURL         string
	Timeout         time.Duration
	RequestsPerSec  float64 // 0 disables pacing
	MaxRetryTimeout time.Duration
	HTTPClient      *http.Client
}

// NewClient creates a new backend client.
func NewClient(opts ClientOptions) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = schema.DefaultBackendURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = contract.DefaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	limit := rate.Inf
	if opts.RequestsPerSec > 0 {
		limit = rate.Limit(opts.RequestsPerSec)
	}

	return &Client{
		baseURL:         strings.TrimRight(opts.BaseURL, "/"),
		httpClient:      httpClient,
		limiter:         rate.NewLimiter(limit, 1),
		retryMaxElapsed: opts.MaxRetryTimeout,
		log:             contract.ComponentLogger("backend"),
	}
}

// NewClientFromConfig builds a client from the validated configuration.
func NewClientFromConfig(cfg *contract.Config) *Client {
	return NewClient(ClientOptions{
		BaseURL:         cfg.BackendURL,
		Timeout:         cfg.Timeout,
		RequestsPerSec:  cfg.Rate,
		MaxRetryTimeout: cfg.RetryMaxElapsed,
	})
}

// Ping reports whether the backend answers its health endpoint.
func (c *Client) Ping(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/ping", nil)
	if err != nil {
		return false
	}
	req.Header.Set(RequestIDHeader, uuid.NewString())
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Msg("Ping to backend failed")
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// UploadConfig registers the backend configuration files.
func (c *Client) UploadConfig(ctx context.Context, files []contract.ConfigUpload) error {
	body, contentType, err := buildMultipart(func(mw *multipart.Writer) error {
		for _, f := range files {
			part, err := mw.CreateFormFile(f.Field, f.FileName)
			if err != nil {
				return err
			}
			if _, err := part.Write(f.Content); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to encode config upload: %w", err)
	}
	_, err = c.post(ctx, "/upload-config", contentType, body)
	return err
}

// AnalyzeRequest submits an experiment request and returns the raw flat response.
func (c *Client) AnalyzeRequest(ctx context.Context, requestJSON []byte, system string) ([]byte, error) {
	body, contentType, err := buildMultipart(func(mw *multipart.Writer) error {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="request_file"; filename="request.json"`)
		header.Set("Content-Type", "application/json")
		part, err := mw.CreatePart(header)
		if err != nil {
			return err
		}
		if _, err := part.Write(requestJSON); err != nil {
			return err
		}
		return mw.WriteField("system", system)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode analyze request: %w", err)
	}
	return c.post(ctx, "/analyze-request", contentType, body)
}

// DeepDive runs a segmented analysis and returns the raw segmented response.
func (c *Client) DeepDive(ctx context.Context, query schema.DeepDiveQuery) ([]byte, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to encode deep dive query: %w", err)
	}
	return c.post(ctx, "/deep-dive-query", "application/json", body)
}

func buildMultipart(fill func(*multipart.Writer) error) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := fill(mw); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

// post sends body to path with pacing and retries, returning the response body.
func (c *Client) post(ctx context.Context, path, contentType string, body []byte) ([]byte, error) {
	url := c.baseURL + path
	requestID := uuid.NewString()
	log := c.log.With().Str("request_id", requestID).Str("path", path).Logger()

	var payload []byte
	attempt := 0
	operation := func() error {
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Accept", "application/json")
		req.Header.Set(RequestIDHeader, requestID)

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return backoff.Permanent(ctxErr)
			}
			log.Debug().Err(err).Int("attempt", attempt).Msg("Backend call failed")
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return backoff.Permanent(ctxErr)
			}
			return err
		}
		log.Debug().Int("status", resp.StatusCode).Int("attempt", attempt).Dur("elapsed", time.Since(start)).Msg("Backend responded")

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			statusErr := &StatusError{StatusCode: resp.StatusCode, Body: string(data)}
			if statusErr.Retryable() {
				return statusErr
			}
			return backoff.Permanent(statusErr)
		}
		payload = data
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = c.retryMaxElapsed
	var strategy backoff.BackOff = policy
	if c.retryMaxElapsed <= 0 {
		strategy = &backoff.StopBackOff{}
	}

	if err := backoff.Retry(operation, backoff.WithContext(strategy, ctx)); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			return nil, statusErr
		}
		return nil, fmt.Errorf("backend request to %s failed: %w", path, err)
	}
	return payload, nil
}

// StatusError represents a non-2xx answer from the backend.
type StatusError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("Backend error: %d - %s", e.StatusCode, e.Body)
}

// Detail returns the service's "detail" message when the body carries one.
func (e *StatusError) Detail() string {
	var payload struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal([]byte(e.Body), &payload); err == nil && payload.Detail != nil {
		if s, ok := payload.Detail.(string); ok {
			return s
		}
		if b, err := json.Marshal(payload.Detail); err == nil {
			return string(b)
		}
	}
	return e.Body
}

// Retryable reports whether the same call may succeed later.
func (e *StatusError) Retryable() bool {
	if strings.Contains(e.Body, upstreamAbortMarker) {
		return false
	}
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// IsCancellation reports whether err means the user gave up on the call,
// either locally or while the service was fetching data.
func IsCancellation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	var statusErr *StatusError
	return errors.As(err, &statusErr) && strings.Contains(statusErr.Body, upstreamAbortMarker)
}
