package restbase

import (
	"context"
	"net/http"
)

// Read returns rows from table shaped by opts. A nil opts reads every
// column of every row in the backend's natural order.
func (c *Client) Read(ctx context.Context, table string, opts *Options) ([]Record, error) {
	return c.do(ctx, "read", table, http.MethodGet, endpointURL(c.baseURL, table, nil, opts), nil)
}

// Query returns rows from table matching every filter, shaped by opts.
// An unmatched filter set yields an empty sequence, not an error.
func (c *Client) Query(ctx context.Context, table string, filters Filters, opts *Options) ([]Record, error) {
	return c.do(ctx, "query", table, http.MethodGet, endpointURL(c.baseURL, table, filters, opts), nil)
}

// GetByID returns the row whose id column equals id. It is Query with an
// id filter and an implicit limit of 1; zero matching rows is not an error
// but an explicit absent result, reported through the second return value.
func (c *Client) GetByID(ctx context.Context, table string, id any, opts *Options) (Record, bool, error) {
	var shaped Options
	if opts != nil {
		shaped = *opts
	}
	shaped.Limit = 1

	rows, err := c.Query(ctx, table, ByID(id), &shaped)
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return rows[0], true, nil
}

// Insert stores one row and returns the backend's echo of it.
func (c *Client) Insert(ctx context.Context, table string, record Record) ([]Record, error) {
	return c.do(ctx, "insert", table, http.MethodPost, endpointURL(c.baseURL, table, nil, nil), record)
}

// InsertMany stores several rows in one request and returns their echoes.
func (c *Client) InsertMany(ctx context.Context, table string, records []Record) ([]Record, error) {
	return c.do(ctx, "insertMany", table, http.MethodPost, endpointURL(c.baseURL, table, nil, nil), records)
}

// Update patches every row matching filters and returns the updated rows.
func (c *Client) Update(ctx context.Context, table string, filters Filters, patch Record) ([]Record, error) {
	return c.do(ctx, "update", table, http.MethodPatch, endpointURL(c.baseURL, table, filters, nil), patch)
}

// UpdateByID is Update with a single id filter.
func (c *Client) UpdateByID(ctx context.Context, table string, id any, patch Record) ([]Record, error) {
	return c.Update(ctx, table, ByID(id), patch)
}

// Delete removes every row matching filters and returns the deleted rows.
func (c *Client) Delete(ctx context.Context, table string, filters Filters) ([]Record, error) {
	return c.do(ctx, "delete", table, http.MethodDelete, endpointURL(c.baseURL, table, filters, nil), nil)
}

// DeleteByID is Delete with a single id filter.
func (c *Client) DeleteByID(ctx context.Context, table string, id any) ([]Record, error) {
	return c.Delete(ctx, table, ByID(id))
}
