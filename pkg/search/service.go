package search

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rubiojr/catalog/pkg/catalog"
	"github.com/rubiojr/catalog/pkg/log"
	"github.com/rubiojr/catalog/pkg/paging"
	"github.com/rubiojr/catalog/pkg/projection"
	"github.com/rubiojr/catalog/pkg/query"
)

// Store is everything a retrieval needs from the product store.
type Store interface {
	paging.Querier
	projection.Reader
	projection.UserResolver
	Categories(ctx context.Context) ([]catalog.Category, error)
}

// Response is one page of a retrieval.
type Response struct {
	Rows     []projection.Row `json:"rows"`
	HasMore  bool             `json:"has_more"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Query    string           `json:"query"`
	Field    string           `json:"field"`
	Category string           `json:"category,omitempty"`
	Sort     query.Sort       `json:"sort"`
}

// Service runs retrievals against a Store. It holds no per-request state
// and is safe for concurrent use.
type Service struct {
	store           Store
	schema          *catalog.Schema
	planner         *query.Planner
	engine          *paging.Engine
	projector       *projection.Projector
	defaultPageSize int
	timeout         time.Duration
	log             *log.Logger
}

type options struct {
	pageSize int
	timeout  time.Duration
	workers  int
}

type Option func(*options)

// WithDefaultPageSize sets the page size used when a query leaves it unset.
func WithDefaultPageSize(n int) Option {
	return func(o *options) { o.pageSize = n }
}

// WithStoreTimeout bounds every store read made for one retrieval or one
// details lookup.
func WithStoreTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithProjectionWorkers bounds concurrent row projection.
func WithProjectionWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

func New(store Store, schema *catalog.Schema, opts ...Option) *Service {
	o := options{pageSize: query.DefaultPageSize}
	for _, opt := range opts {
		opt(&o)
	}
	if schema == nil {
		schema = catalog.DefaultSchema()
	}

	return &Service{
		store:           store,
		schema:          schema,
		planner:         query.NewPlanner(schema),
		engine:          paging.NewEngine(store, paging.WithTimeout(o.timeout)),
		projector:       projection.New(store, store, schema, projection.WithWorkers(o.workers)),
		defaultPageSize: query.ClampPageSize(o.pageSize),
		timeout:         o.timeout,
		log:             log.For("search"),
	}
}

// Schema returns the attribute schema searches run against.
func (s *Service) Schema() *catalog.Schema {
	return s.schema
}

// Columns returns the attributes present in every row, in display order.
func (s *Service) Columns() []catalog.AttrName {
	return s.projector.Columns()
}

// Normalize applies the service default page size and the query clamps.
func (s *Service) Normalize(q query.SearchQuery) query.SearchQuery {
	if q.PageSize == 0 {
		q.PageSize = s.defaultPageSize
	}
	return q.Normalize()
}

// Search runs one retrieval. A page past the end of the result set is empty
// with HasMore false. Store failures are returned, never turned into an empty
// page; catalog.IsRetryable tells whether the same request may be retried.
func (s *Service) Search(ctx context.Context, q query.SearchQuery) (*Response, error) {
	q = s.Normalize(q)
	expr := s.planner.Plan(q)
	s.log.Debugf("search q=%q field=%s category=%s sort=%s filter=%s", q.Text, q.Field, q.Category, q.Sort, expr)

	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	page, err := s.engine.FetchPage(ctx, expr, q.Sort, q.Page, q.PageSize)
	if err != nil {
		return nil, fmt.Errorf("searching products: %w", err)
	}

	rows, err := s.projector.ProjectAll(ctx, page.IDs)
	if err != nil {
		return nil, fmt.Errorf("projecting page %d: %w", page.Page, s.deadlineError(ctx, "project rows", err))
	}
	if rows == nil {
		rows = []projection.Row{}
	}

	return &Response{
		Rows:     rows,
		HasMore:  page.HasMore,
		Total:    page.Total,
		Page:     page.Page,
		PageSize: page.PageSize,
		Query:    q.Text,
		Field:    q.Field,
		Category: q.Category.String(),
		Sort:     q.Sort,
	}, nil
}

// Walk calls fn for every page of q starting at q.Page, until the result set
// is exhausted or fn returns an error.
func (s *Service) Walk(ctx context.Context, q query.SearchQuery, fn func(*Response) error) error {
	q = s.Normalize(q)
	for {
		resp, err := s.Search(ctx, q)
		if err != nil {
			return err
		}
		if err := fn(resp); err != nil {
			return err
		}
		if !resp.HasMore {
			return nil
		}
		q.Page++
	}
}

// Product returns the details view of id, catalog.ErrNotFound if unknown.
func (s *Service) Product(ctx context.Context, id catalog.ProductID) (*projection.Detail, error) {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	d, err := s.projector.Detail(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading product %s: %w", id, s.deadlineError(ctx, "load product", err))
	}
	return d, nil
}

// withDeadline bounds ctx by the store timeout, if one is set.
func (s *Service) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// deadlineError turns an expired store deadline into a retryable store
// error. Other errors, including caller cancellation, pass through.
func (s *Service) deadlineError(ctx context.Context, op string, err error) error {
	var se *catalog.StoreError
	if errors.As(err, &se) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return catalog.Unavailable(op, fmt.Errorf("deadline of %s exceeded: %w", s.timeout, context.DeadlineExceeded))
	}
	return err
}

// Categories lists every category.
func (s *Service) Categories(ctx context.Context) ([]catalog.Category, error) {
	cats, err := s.store.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	if cats == nil {
		cats = []catalog.Category{}
	}
	return cats, nil
}

// Parameter aliases accepted by ParseSearchQuery, first match wins.
var (
	categoryParams = []string{"category", "cat"}
	pageParams     = []string{"page", "paged"}
	pageSizeParams = []string{"page_size", "pageSize", "per_page", "per"}
)

// ParseSearchQuery builds a SearchQuery from HTTP query parameters.
//
// Supported parameters:
//   - q: search text
//   - field: "all" (default), "title" or an attribute key
//   - category, cat: numeric category ID or slug
//   - page, paged: page number, 1-based
//   - page_size, pageSize, per_page, per: rows per page
//   - sort: newest (default), title, sku, vendor, type
//
// Non-numeric page or page size values are ignored. The result is not
// normalized; page size 0 means "use the default".
func ParseSearchQuery(params map[string][]string) query.SearchQuery {
	q := query.SearchQuery{
		Text:     first(params, "q"),
		Field:    first(params, "field"),
		Category: catalog.ParseCategoryRef(first(params, categoryParams...)),
		Sort:     query.ParseSort(first(params, "sort")),
	}
	if n, ok := number(first(params, pageParams...)); ok {
		q.Page = n
	}
	if n, ok := number(first(params, pageSizeParams...)); ok {
		q.PageSize = query.RequestedPageSize(&n)
	}
	return q
}

func first(params map[string][]string, names ...string) string {
	for _, name := range names {
		if v := params[name]; len(v) > 0 && strings.TrimSpace(v[0]) != "" {
			return strings.TrimSpace(v[0])
		}
	}
	return ""
}

func number(raw string) (int, bool) {
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}
