package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

type Customer struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Phone     *string `json:"phone,omitempty"`
	Address   *string `json:"address,omitempty"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

type CustomerInput struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
}

type SearchOptions struct {
	Search    string
	Email     string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
	DateFrom  string
	DateTo    string
}

type SearchResult struct {
	Items      []Customer `json:"items"`
	TotalCount int64      `json:"totalCount"`
	Page       int32      `json:"page"`
	PageSize   int32      `json:"pageSize"`
	TotalPages int32      `json:"totalPages"`
}

type BulkCreateError struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

type BulkCreateResult struct {
	SuccessCount     int               `json:"successCount"`
	FailureCount     int               `json:"failureCount"`
	CreatedCustomers []Customer        `json:"createdCustomers"`
	Errors           []BulkCreateError `json:"errors"`
}

type HealthCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type HealthStatus struct {
	Status    string                 `json:"status"`
	Checks    map[string]HealthCheck `json:"checks"`
	Timestamp time.Time              `json:"timestamp"`
}

func (c *Client) SearchCustomers(ctx context.Context, opts SearchOptions) (*SearchResult, error) {
	query := url.Values{}
	if opts.Search != "" {
		query.Set("search", opts.Search)
	}
	if opts.Email != "" {
		query.Set("email", opts.Email)
	}
	if opts.Page > 0 {
		query.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.PageSize > 0 {
		query.Set("pageSize", strconv.Itoa(opts.PageSize))
	}
	if opts.SortBy != "" {
		query.Set("sortBy", opts.SortBy)
	}
	if opts.SortOrder != "" {
		query.Set("sortOrder", opts.SortOrder)
	}
	if opts.DateFrom != "" {
		query.Set("dateFrom", opts.DateFrom)
	}
	if opts.DateTo != "" {
		query.Set("dateTo", opts.DateTo)
	}

	path := "/api/customers"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var result SearchResult
	if err := c.do(ctx, http.MethodGet, path, defaultTimeout, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	var customer Customer
	if err := c.do(ctx, http.MethodGet, "/api/customers/"+url.PathEscape(id), defaultTimeout, nil, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

func (c *Client) CreateCustomer(ctx context.Context, input CustomerInput) (*Customer, error) {
	var customer Customer
	if err := c.do(ctx, http.MethodPost, "/api/customers", defaultTimeout, input, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

func (c *Client) UpdateCustomer(ctx context.Context, id string, input CustomerInput) (*Customer, error) {
	var customer Customer
	if err := c.do(ctx, http.MethodPut, "/api/customers/"+url.PathEscape(id), defaultTimeout, input, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

func (c *Client) DeleteCustomer(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/customers/"+url.PathEscape(id), defaultTimeout, nil, nil)
}

// BulkCreateCustomers uses a longer per-attempt timeout, the server may make
// up to 1000 insert attempts before responding.
func (c *Client) BulkCreateCustomers(ctx context.Context, count int) (*BulkCreateResult, error) {
	body := map[string]int{"count": count}
	var result BulkCreateResult
	if err := c.do(ctx, http.MethodPost, "/api/customers/bulk", bulkCreateTimeout, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var status HealthStatus
	if err := c.do(ctx, http.MethodGet, "/health", defaultTimeout, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}
