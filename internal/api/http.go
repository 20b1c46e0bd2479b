package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/prompt2production/needled-mobile-sub000/internal/errors"
	"github.com/prompt2production/needled-mobile-sub000/internal/models"
)

// DefaultTimeout bounds every request made by HTTPClient.
const DefaultTimeout = 15 * time.Second

// HTTPClient talks to the backend over JSON/HTTP. It is safe for concurrent use.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithToken sends token as a bearer credential.
func WithToken(token string) HTTPOption {
	return func(c *HTTPClient) {
		c.token = token
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) HTTPOption {
	return func(c *HTTPClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewHTTPClient creates a client for the API rooted at baseURL.
func NewHTTPClient(baseURL string, opts ...HTTPOption) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid API URL %q: scheme must be http or https", baseURL)
	}
	c := &HTTPClient{
		baseURL:    strings.TrimRight(u.String(), "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	op := method + " " + path

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Network(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		// A truncated body means the response never fully arrived.
		return apperrors.Network(op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body ErrorResponse
	if err := json.Unmarshal(raw, &body); err != nil || body.Error == "" {
		body.Error = strings.TrimSpace(string(raw))
		if body.Error == "" {
			body.Error = http.StatusText(resp.StatusCode)
		}
	}
	if body.Field != "" && (resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity) {
		return &apperrors.ValidationError{Field: body.Field, Message: body.Error}
	}
	return apperrors.FromStatus(resp.StatusCode, body.Error)
}

func userQuery(userID string) url.Values {
	q := url.Values{}
	q.Set("userId", userID)
	return q
}

func (c *HTTPClient) TodayHabits(ctx context.Context, userID string, date models.LocalDate) (models.HabitDay, error) {
	q := userQuery(userID)
	if !date.IsZero() {
		q.Set("date", date.String())
	}
	var out models.HabitDay
	err := c.do(ctx, http.MethodGet, "/habits/today", q, nil, &out)
	return out, err
}

func (c *HTTPClient) HabitRange(ctx context.Context, userID string, from, to models.LocalDate) ([]models.HabitDay, error) {
	q := userQuery(userID)
	q.Set("startDate", from.String())
	q.Set("endDate", to.String())
	var out []models.HabitDay
	err := c.do(ctx, http.MethodGet, "/habits", q, nil, &out)
	return out, err
}

func (c *HTTPClient) ToggleHabit(ctx context.Context, req ToggleHabitRequest) (models.HabitDay, error) {
	var out models.HabitDay
	err := c.do(ctx, http.MethodPatch, "/habits/today", nil, req, &out)
	return out, err
}

func (c *HTTPClient) InjectionStatus(ctx context.Context, userID string, today models.LocalDate) (models.InjectionStatus, error) {
	q := userQuery(userID)
	if !today.IsZero() {
		q.Set("date", today.String())
	}
	var out models.InjectionStatus
	err := c.do(ctx, http.MethodGet, "/injections/status", q, nil, &out)
	return out, err
}

func (c *HTTPClient) Injections(ctx context.Context, userID string, limit int) ([]models.Injection, error) {
	q := userQuery(userID)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out []models.Injection
	err := c.do(ctx, http.MethodGet, "/injections", q, nil, &out)
	return out, err
}

func (c *HTTPClient) LogInjection(ctx context.Context, req LogInjectionRequest) (models.Injection, error) {
	var out models.Injection
	err := c.do(ctx, http.MethodPost, "/injections", nil, req, &out)
	return out, err
}

func (c *HTTPClient) LatestWeighIn(ctx context.Context, userID string, today models.LocalDate) (models.WeighInLatest, error) {
	q := userQuery(userID)
	if !today.IsZero() {
		q.Set("date", today.String())
	}
	var out models.WeighInLatest
	err := c.do(ctx, http.MethodGet, "/weigh-ins/latest", q, nil, &out)
	return out, err
}

func (c *HTTPClient) WeighIns(ctx context.Context, userID string, limit int) ([]models.WeighIn, error) {
	q := userQuery(userID)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out []models.WeighIn
	err := c.do(ctx, http.MethodGet, "/weigh-ins", q, nil, &out)
	return out, err
}

func (c *HTTPClient) LogWeighIn(ctx context.Context, req LogWeighInRequest) (models.WeighIn, error) {
	var out models.WeighIn
	err := c.do(ctx, http.MethodPost, "/weigh-ins", nil, req, &out)
	return out, err
}

func (c *HTTPClient) Month(ctx context.Context, userID string, year int, month time.Month) (models.MonthAggregate, error) {
	var out models.MonthAggregate
	path := fmt.Sprintf("/calendar/%d/%d", year, int(month))
	err := c.do(ctx, http.MethodGet, path, userQuery(userID), nil, &out)
	return out, err
}

var _ Client = (*HTTPClient)(nil)
