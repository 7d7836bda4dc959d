// Package http implements csvstory.Backend against the analytics web service.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/fwojciec/csvstory"
	"github.com/google/uuid"
)

// Endpoints of the analytics service.
const (
	EndpointAnalyze   = "/analyze"
	EndpointSequence  = "/generate_sequence"
	EndpointStory     = "/generate_story"
	EndpointCharts    = "/generate_ai_charts"
	EndpointTemplates = "/generate_templates"
	EndpointDownload  = "/download_zip"
)

// DefaultTimeout bounds a single request. Chart generation is slow, so the
// bound is generous.
const DefaultTimeout = 5 * time.Minute

// RequestIDHeader carries the per-request correlation ID.
const RequestIDHeader = "X-Request-ID"

// Compile-time interface verification.
var (
	_ csvstory.Backend      = (*Client)(nil)
	_ csvstory.ImageFetcher = (*Client)(nil)
)

// Client talks to the analytics service over HTTP.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
	newID      func() string

	timeout    time.Duration
	hasTimeout bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout. Zero disables it. A client
// passed to WithHTTPClient is copied, not modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout, c.hasTimeout = d, true
	}
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithRequestID sets the generator of X-Request-ID values.
func WithRequestID(fn func() string) Option {
	return func(c *Client) {
		c.newID = fn
	}
}

// NewClient returns a Client for the service at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse backend URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("backend URL %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("backend URL %q: missing host", baseURL)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")

	c := &Client{
		baseURL: u,
		logger:  slog.New(slog.DiscardHandler),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if c.hasTimeout {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c, nil
}

// BaseURL returns the service root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Analyze profiles the uploaded CSV.
func (c *Client) Analyze(ctx context.Context, p csvstory.Payload) (*csvstory.AnalysisResult, error) {
	var res csvstory.AnalysisResult
	if err := c.post(ctx, EndpointAnalyze, p, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GenerateSequence renders the six-step chart sequence.
func (c *Client) GenerateSequence(ctx context.Context, p csvstory.Payload) (*csvstory.Artifact, error) {
	return c.artifact(ctx, EndpointSequence, p)
}

// GenerateStory produces the narrative.
func (c *Client) GenerateStory(ctx context.Context, p csvstory.Payload) (*csvstory.Story, error) {
	var story csvstory.Story
	if err := c.post(ctx, EndpointStory, p, &story); err != nil {
		return nil, err
	}
	return &story, nil
}

// GenerateCharts renders the charts derived from the narrative.
func (c *Client) GenerateCharts(ctx context.Context, p csvstory.Payload) (*csvstory.Artifact, error) {
	return c.artifact(ctx, EndpointCharts, p)
}

// GenerateTemplates renders the selected chart templates.
func (c *Client) GenerateTemplates(ctx context.Context, p csvstory.Payload) (*csvstory.Artifact, error) {
	return c.artifact(ctx, EndpointTemplates, p)
}

func (c *Client) artifact(ctx context.Context, op string, p csvstory.Payload) (*csvstory.Artifact, error) {
	var a csvstory.Artifact
	if err := c.post(ctx, op, p, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Download streams the archive of every generated image into w.
func (c *Client) Download(ctx context.Context, w io.Writer) (int64, error) {
	resp, err := c.get(ctx, EndpointDownload, c.endpoint(EndpointDownload))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, &csvstory.Error{Kind: csvstory.ErrorTransport, Op: EndpointDownload, Status: resp.StatusCode, Err: err}
	}
	return n, nil
}

// FetchImage retrieves a generated image. Relative sources are resolved
// against the service root.
func (c *Client) FetchImage(ctx context.Context, src string, w io.Writer) error {
	target, err := c.ResolveURL(src)
	if err != nil {
		return err
	}
	resp, err := c.get(ctx, src, target)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if _, err := io.Copy(w, resp.Body); err != nil {
		return &csvstory.Error{Kind: csvstory.ErrorTransport, Op: src, Status: resp.StatusCode, Err: err}
	}
	return nil
}

// ResolveURL turns an image source reported by the service into an absolute
// URL.
func (c *Client) ResolveURL(src string) (string, error) {
	ref, err := url.Parse(src)
	if err != nil {
		return "", fmt.Errorf("parse image URL %q: %w", src, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	base := *c.baseURL
	if strings.HasPrefix(ref.Path, "/") {
		ref.Path = base.Path + ref.Path
	} else {
		base.Path += "/"
	}
	return base.ResolveReference(ref).String(), nil
}

func (c *Client) endpoint(op string) string {
	u := *c.baseURL
	u.Path += op
	return u.String()
}

func (c *Client) post(ctx context.Context, op string, p csvstory.Payload, out any) error {
	body, contentType, err := encodeMultipart(p)
	if err != nil {
		return &csvstory.Error{Kind: csvstory.ErrorTransport, Op: op, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(op), body)
	if err != nil {
		return &csvstory.Error{Kind: csvstory.ErrorTransport, Op: op, Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(req, op)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &csvstory.Error{Kind: csvstory.ErrorTransport, Op: op, Status: resp.StatusCode, Err: err}
	}
	return decodeResponse(op, resp.StatusCode, data, out)
}

// get issues a GET and returns the response when its status is 2xx.
func (c *Client) get(ctx context.Context, op, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &csvstory.Error{Kind: csvstory.ErrorTransport, Op: op, Err: err}
	}
	resp, err := c.do(req, op)
	if err != nil {
		return nil, err
	}
	if !isSuccess(resp.StatusCode) {
		defer resp.Body.Close()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return nil, &csvstory.Error{
			Kind:    csvstory.ErrorTransport,
			Op:      op,
			Status:  resp.StatusCode,
			Message: extractMessage(resp.StatusCode, data),
		}
	}
	return resp, nil
}

func (c *Client) do(req *http.Request, op string) (*http.Response, error) {
	id := c.newID()
	req.Header.Set(RequestIDHeader, id)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.logger.Warn("backend request failed",
			slog.String("op", op),
			slog.String("request_id", id),
			slog.Duration("elapsed", elapsed),
			slog.Any("error", err),
		)
		return nil, &csvstory.Error{Kind: csvstory.ErrorTransport, Op: op, Err: err}
	}
	c.logger.Info("backend request",
		slog.String("op", op),
		slog.String("method", req.Method),
		slog.String("request_id", id),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", elapsed),
	)
	return resp, nil
}

// encodeMultipart writes the named fields in sorted key order followed by the
// file part.
func encodeMultipart(p csvstory.Payload) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(p.Fields))
	for k := range p.Fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		for _, v := range p.Fields[k] {
			if err := mw.WriteField(k, v); err != nil {
				return nil, "", err
			}
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, p.File.Name))
	h.Set("Content-Type", "text/csv")
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(p.File.Data); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

// errorBody is the subset of a response body that carries error messages.
type errorBody struct {
	Error *string `json:"error"`
	Anom  []struct {
		Mensaje string `json:"mensaje"`
	} `json:"anom"`
}

func decodeResponse(op string, status int, data []byte, out any) error {
	if !isSuccess(status) {
		return &csvstory.Error{
			Kind:    csvstory.ErrorTransport,
			Op:      op,
			Status:  status,
			Message: extractMessage(status, data),
		}
	}

	var eb errorBody
	if err := json.Unmarshal(data, &eb); err == nil && eb.Error != nil && *eb.Error != "" {
		return &csvstory.Error{Kind: csvstory.ErrorApplication, Op: op, Status: status, Message: *eb.Error}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &csvstory.Error{
			Kind:    csvstory.ErrorTransport,
			Op:      op,
			Status:  status,
			Message: "invalid JSON response: " + truncate(string(data), 200),
			Err:     err,
		}
	}
	return nil
}

// extractMessage picks the most specific message from a failed response: the
// error field, then the first anomaly message, then the raw body.
func extractMessage(status int, data []byte) string {
	var eb errorBody
	if err := json.Unmarshal(data, &eb); err == nil {
		if eb.Error != nil && *eb.Error != "" {
			return *eb.Error
		}
		if len(eb.Anom) > 0 && eb.Anom[0].Mensaje != "" {
			return eb.Anom[0].Mensaje
		}
	}
	if raw := strings.TrimSpace(string(data)); raw != "" {
		return truncate(raw, 500)
	}
	return http.StatusText(status)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// IsTimeout reports whether err was caused by a request timeout or a
// cancelled context.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
