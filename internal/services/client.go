package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/podx/internal/shared"
)

const defaultBaseURL string = "http://127.0.0.1:5000"

// RequestIDHeader carries a per-request id the back end can log.
const RequestIDHeader = "X-Request-ID"

// ClientOptions configures [NewClient]. Zero values fall back to defaults.
//
// Timeout bounds whole JSON requests. Uploads are not bound by it: they fail
// only after Timeout without progress, or after UploadWait without a reply
// once the body is sent.
type ClientOptions struct {
	BaseURL           string
	HTTPClient        *http.Client
	Timeout           time.Duration
	UploadWait        time.Duration
	RequestsPerSecond float64
	Logger            *log.Logger
}

// Client talks to the media manager's JSON API.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	uploadClient *http.Client
	stallAfter   time.Duration
	uploadWait   time.Duration
	limiter      *rate.Limiter
	logger       *log.Logger
}

// NewClient creates a new API client.
func NewClient(opts ClientOptions) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	// Same transport, no overall deadline.
	uploadClient := &http.Client{Transport: client.Transport, CheckRedirect: client.CheckRedirect, Jar: client.Jar}

	stallAfter := opts.Timeout
	if stallAfter <= 0 {
		stallAfter = client.Timeout
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Client{
		baseURL:      baseURL,
		httpClient:   client,
		uploadClient: uploadClient,
		stallAfter:   stallAfter,
		uploadWait:   opts.UploadWait,
		limiter:      limiter,
		logger:       logger,
	}
}

// BaseURL returns the back end address requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// APIError is a non-2xx response. Message holds the server-provided text when there was one.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}

// StatusOf returns the HTTP status carried by err, or 0 for transport failures.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// MessageOf returns the server-provided message carried by err, or fallback.
func MessageOf(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// newAPIError extracts {"error"|"detail"|"message": "..."} from body, falling back to the status text.
func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		Error   string `json:"error"`
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	msg := ""
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, candidate := range []string{payload.Error, payload.Detail, payload.Message} {
			if candidate != "" {
				msg = candidate
				break
			}
		}
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{Status: status, Message: msg}
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// send executes req after pacing and tagging it, returning the status and body.
func (c *Client) send(req *http.Request) (*http.Response, error) {
	return c.sendWith(c.httpClient, req)
}

func (c *Client) sendWith(client *http.Client, req *http.Request) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
	}

	requestID := shared.GenerateID()
	req.Header.Set(RequestIDHeader, requestID)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "method", req.Method, "path", req.URL.Path, "id", requestID, "err", err)
		return nil, fmt.Errorf("%w: %s %s: %v", shared.ErrAPIRequest, req.Method, req.URL.Path, err)
	}
	c.logger.Debug("request", "method", req.Method, "path", req.URL.Path, "status", resp.StatusCode, "id", requestID, "took", time.Since(start))
	return resp, nil
}

// do sends a JSON request and decodes a JSON response into result (when non-nil).
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.send(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeResponse(resp, result)
}

// decodeResponse turns non-2xx into [APIError] and decodes 2xx bodies into result.
func decodeResponse(resp *http.Response, result any) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %v", shared.ErrAPIRequest, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %w", shared.ErrAPIRequest, newAPIError(resp.StatusCode, data))
	}

	if result == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidResponse, err)
	}
	return nil
}
