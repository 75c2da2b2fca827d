// Package redreport is the HTTP client for the RedReport backend API.
// Payload shapes belong to RedReport; responses are passed through as raw JSON.
package redreport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/jrsteele09/did-storefront/identity"
	"github.com/jrsteele09/did-storefront/internal/errors"
	"github.com/jrsteele09/did-storefront/internal/metrics"
	"github.com/rs/zerolog/log"
)

const (
	HeaderUID    = "X-UID"
	HeaderSiteID = "X-Site-ID"

	maxResponseBytes = 8 << 20
)

// Caller carries the identity headers of an outbound call.
type Caller struct {
	BearerToken string
	AnonymousID string
}

// StatusError is a non-2xx response from RedReport.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("redreport returned %d: %s", e.StatusCode, strings.TrimSpace(string(e.Body)))
}

func (e *StatusError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		return errors.ErrNotAuthenticated
	case e.StatusCode == http.StatusNotFound:
		return errors.ErrNotFound
	case e.StatusCode >= 400 && e.StatusCode < 500:
		return errors.ErrValidation
	default:
		return errors.ErrServer
	}
}

// Message is the backend's error message when the body carries one, otherwise the status text
func (e *StatusError) Message() string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(e.Body, &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return strings.ToLower(http.StatusText(e.StatusCode))
}

type Client struct {
	baseURL    string
	siteID     string
	httpClient *http.Client
	timeout    time.Duration
	memo       *Memoizer
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithSiteID tags every request with the storefront site
func WithSiteID(siteID string) Option {
	return func(c *Client) {
		c.siteID = siteID
	}
}

// WithTimeout bounds each backend call. It applies to a copy of the HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

func WithMemoizer(memo *Memoizer) Option {
	return func(c *Client) {
		c.memo = memo
	}
}

func New(baseURL string, options ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range options {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if c.timeout > 0 {
		withTimeout := *c.httpClient
		withTimeout.Timeout = c.timeout
		c.httpClient = &withTimeout
	}
	if c.memo == nil {
		c.memo = NewMemoizer()
	}
	return c
}

// URL is the absolute backend URL for path
func (c *Client) URL(path string) string {
	return c.baseURL + path
}

func (c *Client) Get(ctx context.Context, path string, caller Caller) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodGet, path, caller, nil)
}

func (c *Client) Post(ctx context.Context, path string, caller Caller, body interface{}) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodPost, path, caller, body)
}

func (c *Client) Put(ctx context.Context, path string, caller Caller, body interface{}) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodPut, path, caller, body)
}

func (c *Client) Delete(ctx context.Context, path string, caller Caller) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodDelete, path, caller, nil)
}

// Do sends a JSON request and returns the raw JSON response body.
func (c *Client) Do(ctx context.Context, method, path string, caller Caller, body interface{}) (json.RawMessage, error) {
	var encoded []byte
	if body != nil {
		var err error
		if encoded, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("[Client.Do] marshal request body: %w", err)
		}
	}
	return c.send(ctx, method, path, caller, encoded, "application/json")
}

// Memoized performs a public GET through the memoizer, sending no caller identity.
func (c *Client) Memoized(ctx context.Context, path string, ttl time.Duration) (json.RawMessage, error) {
	return c.memo.Fetch(ctx, http.MethodGet, c.URL(path), nil, ttl, func(ctx context.Context) (json.RawMessage, error) {
		return c.send(ctx, http.MethodGet, path, Caller{}, nil, "")
	})
}

// Upload posts a single file as multipart/form-data under the "file" field and returns
// the stored document's metadata.
func (c *Client) Upload(ctx context.Context, path string, caller Caller, filename, contentType string, r io.Reader) (*Upload, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("[Client.Upload] create part: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("[Client.Upload] copy file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("[Client.Upload] close multipart: %w", err)
	}
	payload, err := c.send(ctx, http.MethodPost, path, caller, buf.Bytes(), mw.FormDataContentType())
	if err != nil {
		return nil, err
	}

	var upload Upload
	if err := json.Unmarshal(payload, &upload); err != nil || upload.ID == "" {
		return nil, errors.Wrapf(errors.ErrServer, "[Client.Upload] unexpected upload response: %s", payload)
	}
	return &upload, nil
}

func (c *Client) send(ctx context.Context, method, path string, caller Caller, body []byte, contentType string) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), reader)
	if err != nil {
		return nil, fmt.Errorf("[Client.send] new request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil && contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.siteID != "" {
		req.Header.Set(HeaderSiteID, c.siteID)
	}
	if caller.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+caller.BearerToken)
	}
	if identity.Valid(caller.AnonymousID) {
		req.Header.Set(HeaderUID, caller.AnonymousID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveBackendRequest(method, 0)
		return nil, errors.Wrapf(errors.ErrServer, "[Client.send] %s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	metrics.ObserveBackendRequest(method, resp.StatusCode)

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, errors.Wrapf(errors.ErrServer, "[Client.send] read response: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Warn().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Msg("redreport request failed")
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: payload}
	}

	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(payload) {
		return nil, errors.Wrapf(errors.ErrServer, "[Client.send] %s %s: response is not JSON", method, path)
	}
	return json.RawMessage(payload), nil
}
