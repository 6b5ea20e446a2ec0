package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// From starts a query against a backend collection.
func (c *Client) From(table string) *QueryBuilder {
	return &QueryBuilder{client: c, table: table}
}

// QueryBuilder builds PostgREST requests. Builders are single use.
type QueryBuilder struct {
	client  *Client
	table   string
	columns string
	filters url.Values
	orders  []string
	limit   int
	single  bool
}

func (q *QueryBuilder) Select(columns string) *QueryBuilder {
	q.columns = columns
	return q
}

func (q *QueryBuilder) filter(column, op string, value any) *QueryBuilder {
	if q.filters == nil {
		q.filters = url.Values{}
	}
	q.filters.Add(column, fmt.Sprintf("%s.%v", op, value))
	return q
}

func (q *QueryBuilder) Eq(column string, value any) *QueryBuilder {
	return q.filter(column, "eq", value)
}

func (q *QueryBuilder) Neq(column string, value any) *QueryBuilder {
	return q.filter(column, "neq", value)
}

func (q *QueryBuilder) Gt(column string, value any) *QueryBuilder {
	return q.filter(column, "gt", value)
}

func (q *QueryBuilder) Lt(column string, value any) *QueryBuilder {
	return q.filter(column, "lt", value)
}

func (q *QueryBuilder) In(column string, values []string) *QueryBuilder {
	return q.filter(column, "in", "("+strings.Join(values, ",")+")")
}

func (q *QueryBuilder) Order(column string, ascending bool) *QueryBuilder {
	dir := "asc"
	if !ascending {
		dir = "desc"
	}
	q.orders = append(q.orders, column+"."+dir)
	return q
}

func (q *QueryBuilder) Limit(n int) *QueryBuilder {
	q.limit = n
	return q
}

// Single expects exactly one row; zero rows yields ErrNotFound.
func (q *QueryBuilder) Single() *QueryBuilder {
	q.single = true
	return q
}

func (q *QueryBuilder) path(read bool) string {
	params := url.Values{}
	for k, vs := range q.filters {
		for _, v := range vs {
			params.Add(k, v)
		}
	}
	if q.columns != "" {
		params.Set("select", q.columns)
	}
	if read {
		if len(q.orders) > 0 {
			params.Set("order", strings.Join(q.orders, ","))
		}
		if q.limit > 0 {
			params.Set("limit", fmt.Sprintf("%d", q.limit))
		}
	}

	p := "/rest/v1/" + q.table
	if len(params) > 0 {
		p += "?" + params.Encode()
	}
	return p
}

func (q *QueryBuilder) send(ctx context.Context, method string, read bool, body any) (*Response, error) {
	req, err := q.client.newRequest(ctx, method, q.path(read), body)
	if err != nil {
		return nil, err
	}
	if q.single {
		req.Header.Set("Accept", "application/vnd.pgrst.object+json")
	}
	if method != http.MethodGet {
		req.Header.Set("Prefer", "return=representation")
	}
	return q.client.do(req)
}

// Execute runs a read and decodes the rows into dst.
func (q *QueryBuilder) Execute(ctx context.Context, dst any) error {
	resp, err := q.send(ctx, http.MethodGet, true, nil)
	if err != nil {
		return err
	}
	return resp.Decode(dst)
}

// Insert creates rows and decodes the stored representation into dst
// when dst is not nil.
func (q *QueryBuilder) Insert(ctx context.Context, rows any, dst any) error {
	resp, err := q.send(ctx, http.MethodPost, false, rows)
	if err != nil {
		return err
	}
	if dst == nil {
		return nil
	}
	return resp.Decode(dst)
}

// Update patches every row matching the filters.
func (q *QueryBuilder) Update(ctx context.Context, patch any, dst any) error {
	if len(q.filters) == 0 {
		return fmt.Errorf("update on %s without filters", q.table)
	}
	resp, err := q.send(ctx, http.MethodPatch, false, patch)
	if err != nil {
		return err
	}
	if dst == nil {
		return nil
	}
	return resp.Decode(dst)
}

// Delete removes every row matching the filters.
func (q *QueryBuilder) Delete(ctx context.Context) error {
	if len(q.filters) == 0 {
		return fmt.Errorf("delete on %s without filters", q.table)
	}
	_, err := q.send(ctx, http.MethodDelete, false, nil)
	return err
}
