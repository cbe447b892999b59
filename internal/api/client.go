// Package api is the client for the remote ledger backend: auth, line
// CRUD, summaries and uploads, all wrapped in the backend's
// {status, message, data} envelope.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"duobook/internal/core"
)

// Client issues HTTP calls to the backend. The bearer token is re-read
// from the token source on every request.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	now     func() time.Time
}

// New creates a client for the backend at baseURL. A nil httpClient gets
// a 10 second timeout default.
func New(baseURL string, tokens TokenSource, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		tokens:  tokens,
		now:     time.Now,
	}
}

type envelope[T any] struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// do runs one request against the backend and unwraps the envelope.
func do[T any](ctx context.Context, c *Client, method, path string, query url.Values, body io.Reader, contentType string) (T, error) {
	var zero T

	token, err := c.tokens.Token()
	if err != nil {
		return zero, err
	}
	if token != "" && Expired(token, c.now()) {
		// Fail fast instead of bouncing an expired token off the backend.
		return zero, fmt.Errorf("%s %s: token expired: %w", method, path, ErrUnauthorized)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return zero, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Request-Id", uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		return zero, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, fmt.Errorf("%s %s: read response: %w", method, path, err)
	}

	slog.DebugContext(ctx, "Backend request completed",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", req.Header.Get("X-Request-Id"),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	var env envelope[T]
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return zero, &Error{StatusCode: resp.StatusCode, Message: env.Message}
	}
	if decodeErr != nil {
		return zero, fmt.Errorf("%s %s: decode response: %w", method, path, decodeErr)
	}
	return env.Data, nil
}

func doJSON[T any](ctx context.Context, c *Client, method, path string, query url.Values, body any) (T, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			var zero T
			return zero, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	return do[T](ctx, c, method, path, query, reader, "application/json; charset=UTF-8")
}

// Me returns the authenticated user, or an auth error on a missing or
// invalid token.
func (c *Client) Me(ctx context.Context) (core.User, error) {
	return doJSON[core.User](ctx, c, http.MethodGet, "/auth", nil, nil)
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	type tokenData struct {
		AccessToken string `json:"accessToken"`
	}
	data, err := doJSON[tokenData](ctx, c, http.MethodPost, "/auth", nil, map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return "", err
	}
	return data.AccessToken, nil
}

// SignUp registers a new account.
func (c *Client) SignUp(ctx context.Context, email, nickname, password string) error {
	_, err := doJSON[json.RawMessage](ctx, c, http.MethodPost, "/users", nil, map[string]string{
		"email":    email,
		"nickname": nickname,
		"password": password,
	})
	return err
}

// LinesQuery selects a page of lines inside a date range.
type LinesQuery struct {
	Page      int
	Limit     int
	StartDate core.Date
	EndDate   core.Date
}

func (q LinesQuery) values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", fmt.Sprint(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", fmt.Sprint(q.Limit))
	}
	if !q.StartDate.IsZero() {
		v.Set("startDate", q.StartDate.UTC().Format(time.RFC3339))
	}
	if !q.EndDate.IsZero() {
		v.Set("endDate", q.EndDate.UTC().Format(time.RFC3339))
	}
	return v
}

// Lines fetches one pagination window.
func (c *Client) Lines(ctx context.Context, q LinesQuery) (core.Page, error) {
	return doJSON[core.Page](ctx, c, http.MethodGet, "/lines", q.values(), nil)
}

// Line fetches a single line's detail.
func (c *Client) Line(ctx context.Context, id int64) (core.Line, error) {
	return doJSON[core.Line](ctx, c, http.MethodGet, fmt.Sprintf("/lines/%d", id), nil, nil)
}

type lineBody struct {
	Date        core.Date `json:"date"`
	Description string    `json:"description"`
	Price       int64     `json:"price"`
}

// CreateLine records a new expense line.
func (c *Client) CreateLine(ctx context.Context, in core.LineInput) (core.Line, error) {
	return doJSON[core.Line](ctx, c, http.MethodPost, "/lines", nil, lineBody{
		Date:        in.Date,
		Description: in.Description,
		Price:       in.Price,
	})
}

// UpdateLine edits an existing line. The backend rejects edits to lines
// created by someone else.
func (c *Client) UpdateLine(ctx context.Context, id int64, in core.LineInput) (core.Line, error) {
	return doJSON[core.Line](ctx, c, http.MethodPut, fmt.Sprintf("/lines/%d", id), nil, lineBody{
		Date:        in.Date,
		Description: in.Description,
		Price:       in.Price,
	})
}

// DeleteLine soft-removes a line. A forbidden response means the requester
// is not the creator.
func (c *Client) DeleteLine(ctx context.Context, id int64) error {
	_, err := doJSON[json.RawMessage](ctx, c, http.MethodDelete, fmt.Sprintf("/lines/%d", id), nil, nil)
	return err
}

func rangeValues(start, end core.Date) url.Values {
	v := url.Values{}
	v.Set("startDate", start.UTC().Format(time.RFC3339))
	v.Set("endDate", end.UTC().Format(time.RFC3339))
	return v
}

// TotalSummary returns the grand total and per-person totals for a range.
func (c *Client) TotalSummary(ctx context.Context, start, end core.Date) (core.Summary, error) {
	summary, err := doJSON[core.Summary](ctx, c, http.MethodGet, "/lines/total-price/summary", rangeValues(start, end), nil)
	if err != nil {
		return core.Summary{}, err
	}
	if !summary.Consistent() {
		slog.WarnContext(ctx, "Summary total does not match per-person sum",
			"total", summary.TotalPrice,
			"sum", summary.SumResults(),
		)
	}
	return summary, nil
}

// DailySummary returns one point per day with spending in the range.
func (c *Client) DailySummary(ctx context.Context, start, end core.Date) ([]core.DailyPoint, error) {
	return doJSON[[]core.DailyPoint](ctx, c, http.MethodGet, "/lines/daily-price/summary", rangeValues(start, end), nil)
}

// UploadResult identifies a stored object.
type UploadResult struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// Upload stores a file in the backend's object storage.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (UploadResult, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return UploadResult{}, fmt.Errorf("create multipart: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return UploadResult{}, fmt.Errorf("copy upload body: %w", err)
	}
	if err := w.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("finish multipart: %w", err)
	}
	return do[UploadResult](ctx, c, http.MethodPost, "/aws/upload", nil, &buf, w.FormDataContentType())
}

// DeleteUpload removes a stored object by key.
func (c *Client) DeleteUpload(ctx context.Context, key string) error {
	_, err := doJSON[json.RawMessage](ctx, c, http.MethodDelete, "/aws/upload/"+url.PathEscape(key), nil, nil)
	return err
}
