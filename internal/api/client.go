// Package api talks to the external budget REST API.
//
// All endpoints except login and signup go through a Gateway, which adds
// the session's credentials at send time. Nothing here retries.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"budgettracker/internal/core"
	applog "budgettracker/internal/log"
)

// DefaultBaseURL matches the API's local development address.
const DefaultBaseURL = "http://localhost:5000/api"

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// LoginResult is the credential pair issued by a successful login.
type LoginResult struct {
	Token  string
	UserID string
}

// Client is a typed client for the budget API.
type Client struct {
	baseURL *url.URL
	public  *http.Client
	authed  *http.Client
}

// Option configures a Client.
type Option func(*options)

type options struct {
	timeout time.Duration
}

// WithTimeout bounds every request. Default 10s.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// NewClient returns a client for the API rooted at baseURL.
func NewClient(baseURL string, sessions SessionSource, opts ...Option) (*Client, error) {
	o := options{timeout: 10 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}

	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api base url %q: scheme must be http or https", baseURL)
	}

	base := NewTransport()
	gw := NewGateway(sessions, base)
	return &Client{
		baseURL: u,
		public:  &http.Client{Timeout: o.timeout, Transport: base},
		authed:  &http.Client{Timeout: o.timeout, Transport: gw},
	}, nil
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string { return c.baseURL.String() }

// Login exchanges credentials for a token. It does not touch the session;
// the caller stores the result.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var out loginResponse
	err := c.do(ctx, c.public, http.MethodPost, "/auth/login", nil, credentials{Email: email, Password: password}, &out)
	if err != nil {
		return LoginResult{}, err
	}
	if out.Token == "" || out.UserID == "" {
		return LoginResult{}, ErrMalformedLogin
	}
	return LoginResult{Token: out.Token, UserID: out.UserID}, nil
}

// Signup creates an account.
func (c *Client) Signup(ctx context.Context, email, password string) error {
	return c.do(ctx, c.public, http.MethodPost, "/auth/signup", nil, credentials{Email: email, Password: password}, nil)
}

func (c *Client) ListCategories(ctx context.Context) ([]core.Category, error) {
	var wire []categoryWire
	if err := c.do(ctx, c.authed, http.MethodGet, "/categories", nil, nil, &wire); err != nil {
		return nil, err
	}
	out := make([]core.Category, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.toCore())
	}
	return out, nil
}

func (c *Client) CreateCategory(ctx context.Context, name, color string) error {
	return c.do(ctx, c.authed, http.MethodPost, "/categories", nil, categoryBody{Name: name, Color: color}, nil)
}

func (c *Client) UpdateCategory(ctx context.Context, id, name, color string) error {
	return c.do(ctx, c.authed, http.MethodPut, "/categories/"+url.PathEscape(id), nil, categoryBody{Name: name, Color: color}, nil)
}

func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	return c.do(ctx, c.authed, http.MethodDelete, "/categories/"+url.PathEscape(id), nil, nil, nil)
}

// ListBudgets returns the budgets set for month.
func (c *Client) ListBudgets(ctx context.Context, month core.Month) ([]core.Budget, error) {
	var wire []budgetWire
	q := url.Values{"month": {month.String()}}
	if err := c.do(ctx, c.authed, http.MethodGet, "/budgets", q, nil, &wire); err != nil {
		return nil, err
	}
	out := make([]core.Budget, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.toCore())
	}
	return out, nil
}

func (c *Client) CreateBudget(ctx context.Context, categoryID string, limit core.Money, month core.Month) error {
	body := budgetBody{CategoryID: categoryID, Limit: limit.Float(), Month: month.String()}
	return c.do(ctx, c.authed, http.MethodPost, "/budgets", nil, body, nil)
}

func (c *Client) UpdateBudgetLimit(ctx context.Context, id string, limit core.Money) error {
	return c.do(ctx, c.authed, http.MethodPut, "/budgets/"+url.PathEscape(id), nil, budgetLimitBody{Limit: limit.Float()}, nil)
}

func (c *Client) DeleteBudget(ctx context.Context, id string) error {
	return c.do(ctx, c.authed, http.MethodDelete, "/budgets/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) CreateExpense(ctx context.Context, e core.Expense) error {
	body := expenseBody{Amount: e.Amount.Float(), Description: e.Description, CategoryID: e.CategoryID}
	return c.do(ctx, c.authed, http.MethodPost, "/expenses", nil, body, nil)
}

// Dashboard returns per-category spending for a month number (1-12) of
// the current year, as computed by the server.
func (c *Client) Dashboard(ctx context.Context, month int) ([]core.DashboardCategory, error) {
	var wire []dashboardWire
	q := url.Values{"month": {strconv.Itoa(month)}}
	if err := c.do(ctx, c.authed, http.MethodGet, "/dashboard", q, nil, &wire); err != nil {
		return nil, err
	}
	out := make([]core.DashboardCategory, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.toCore())
	}
	return out, nil
}

// BudgetVsExpense returns the budget-vs-expense report for month.
func (c *Client) BudgetVsExpense(ctx context.Context, month core.Month) ([]core.ReportRow, error) {
	var wire []reportWire
	q := url.Values{"month": {month.String()}}
	if err := c.do(ctx, c.authed, http.MethodGet, "/reports/budget-vs-expense", q, nil, &wire); err != nil {
		return nil, err
	}
	out := make([]core.ReportRow, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.toCore())
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, query url.Values, body, out any) error {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		slog.WarnContext(ctx, "API request failed",
			applog.FieldComponent, applog.ComponentAPI,
			applog.FieldMethod, method,
			applog.FieldPath, path,
			applog.FieldError, err.Error())
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	slog.DebugContext(ctx, "API request completed",
		applog.FieldComponent, applog.ComponentAPI,
		applog.FieldMethod, method,
		applog.FieldPath, path,
		applog.FieldStatusCode, resp.StatusCode,
		applog.FieldDuration, time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(method, path, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%s %s: empty response body", method, path)
		}
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func newAPIError(method, path string, resp *http.Response) *APIError {
	apiErr := &APIError{Method: method, Path: path, Status: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var eb errorBody
	if json.Unmarshal(raw, &eb) == nil {
		apiErr.Message = eb.Message
		if apiErr.Message == "" {
			apiErr.Message = eb.Error
		}
	}
	return apiErr
}
