// Package api provides a client for the envbudget REST backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/envbudget/internal/model"
)

const (
	requestTimeout = 10 * time.Second
	maxBodySize    = 1 << 20 // 1 MB
	userAgent      = "envbudget/1.0"
)

var (
	// ErrNotFound indicates the budget or envelope does not exist.
	ErrNotFound = errors.New("api: not found")
	// ErrInvalidInput indicates the backend rejected the payload. It also
	// matches model.ErrInvalidInput.
	ErrInvalidInput = fmt.Errorf("api: %w", model.ErrInvalidInput)
	// ErrUnavailable indicates the backend could not be reached or failed.
	ErrUnavailable = errors.New("api: backend unavailable")
)

// Client talks to the budget backend over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the given base URL.
// Returns nil if the URL is empty or not absolute.
func NewClient(baseURL string) *Client {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
}

// BaseURL returns the backend URL the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// LoadBudgets returns every budget.
func (c *Client) LoadBudgets(ctx context.Context) ([]model.Budget, error) {
	var budgets []model.Budget
	if err := c.do(ctx, http.MethodGet, "/api/budget/load", nil, &budgets); err != nil {
		return nil, err
	}
	return budgets, nil
}

// CreateBudget creates a budget and returns its id.
func (c *Client) CreateBudget(ctx context.Context, b model.NewBudget) (int64, error) {
	if err := b.Validate(); err != nil {
		return 0, err
	}
	var resp idResponse
	if err := c.do(ctx, http.MethodPost, "/api/budget/create", b, &resp); err != nil {
		return 0, err
	}
	return resp.ID, nil
}

// DeleteBudget deletes a budget together with its envelopes.
func (c *Client) DeleteBudget(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/api/budget/delete/"+itoa(id), nil, nil)
}

// LoadEnvelopes returns the envelopes of one budget.
func (c *Client) LoadEnvelopes(ctx context.Context, budgetID int64) ([]model.RemainingBudget, error) {
	var envelopes []model.RemainingBudget
	if err := c.do(ctx, http.MethodGet, "/api/anvelopes/load/"+itoa(budgetID), nil, &envelopes); err != nil {
		return nil, err
	}
	return envelopes, nil
}

// CreateEnvelope creates an envelope and returns its id.
func (c *Client) CreateEnvelope(ctx context.Context, e model.NewEnvelope) (int64, error) {
	e.Name = strings.TrimSpace(e.Name)
	if err := e.Validate(); err != nil {
		return 0, err
	}
	var resp idResponse
	if err := c.do(ctx, http.MethodPost, "/api/anvelopes/create", e, &resp); err != nil {
		return 0, err
	}
	return resp.ID, nil
}

// AddMoney adds amount to an envelope.
func (c *Client) AddMoney(ctx context.Context, envelopeID, amount int64) error {
	return c.adjust(ctx, "add_money", envelopeID, amount)
}

// SpendMoney takes amount out of an envelope. The balance may go negative.
func (c *Client) SpendMoney(ctx context.Context, envelopeID, amount int64) error {
	return c.adjust(ctx, "spend_money", envelopeID, amount)
}

// DeleteEnvelope deletes one envelope.
func (c *Client) DeleteEnvelope(ctx context.Context, envelopeID int64) error {
	return c.do(ctx, http.MethodDelete, "/api/anvelopes/delete/"+itoa(envelopeID), nil, nil)
}

// FetchAll loads budgets and the envelopes of budgetID (0 = first budget).
// Partial data is returned even if the envelope request fails.
func (c *Client) FetchAll(ctx context.Context, budgetID int64) *Snapshot {
	result := &Snapshot{FetchedAt: time.Now()}

	budgets, err := c.LoadBudgets(ctx)
	if err != nil {
		result.Error = err
		return result
	}
	result.Budgets = budgets

	if budgetID == 0 {
		if len(budgets) == 0 {
			return result
		}
		budgetID = budgets[0].ID
	}
	result.BudgetID = budgetID

	envelopes, err := c.LoadEnvelopes(ctx, budgetID)
	if err != nil {
		result.Error = err
		return result
	}
	result.Envelopes = envelopes
	return result
}

func (c *Client) adjust(ctx context.Context, action string, envelopeID, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("%w: amount must be >= 0, got %d", model.ErrInvalidInput, amount)
	}
	path := fmt.Sprintf("/api/anvelopes/%s/%d/%d", action, envelopeID, amount)
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

// do performs a request, encoding in as JSON when non-nil and decoding the
// response into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("api: encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("api: creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("api: reading response: %w", err)
	}

	if err := statusError(resp.StatusCode, data); err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("api: parsing %s response: %w", path, err)
	}
	return nil
}

// statusError maps a non-2xx status to a sentinel error carrying the
// backend's detail message.
func statusError(status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}

	var eb errorResponse
	detail := ""
	if json.Unmarshal(body, &eb) == nil {
		detail = eb.Detail
	}

	var base error
	switch {
	case status == http.StatusNotFound:
		base = ErrNotFound
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		base = ErrInvalidInput
	case status >= 500:
		base = ErrUnavailable
	default:
		return fmt.Errorf("api: unexpected status %d", status)
	}

	if detail == "" {
		return base
	}
	return fmt.Errorf("%w: %s", base, detail)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
