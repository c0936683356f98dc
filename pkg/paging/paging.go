// Package paging slices a filtered, stably ordered product set into pages
// for incremental list loading.
//
// Pages are addressed by number; there is no cursor or server-side session.
// Fetching pages 1..N until HasMore is false visits every matching product
// exactly once as long as the data does not change in between.
package paging

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rubiojr/catalog/pkg/catalog"
	"github.com/rubiojr/catalog/pkg/log"
	"github.com/rubiojr/catalog/pkg/query"
)

// Querier executes a filter expression. It returns the IDs in
// [offset, offset+limit) of the sorted result and the total match count.
type Querier interface {
	QueryIDs(ctx context.Context, expr query.Expr, sort query.Sort, offset, limit int) ([]catalog.ProductID, int, error)
}

// Page is one slice of a result set.
type Page struct {
	IDs      []catalog.ProductID
	Total    int
	Page     int
	PageSize int
	HasMore  bool
}

// Engine fetches pages from a Querier. It keeps no per-request state.
type Engine struct {
	store   Querier
	timeout time.Duration
	log     *log.Logger
}

type Option func(*Engine)

// WithTimeout bounds each store call. Zero disables the deadline.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

func NewEngine(store Querier, opts ...Option) *Engine {
	e := &Engine{store: store, log: log.For("paging")}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FetchPage returns page number page of the result of expr. Page and size
// are clamped (page >= 1, size in [1, query.MaxPageSize]). A page past the
// end is empty with HasMore false. Store failures, including an exceeded
// deadline, come back as retryable errors; nothing is retried here.
func (e *Engine) FetchPage(ctx context.Context, expr query.Expr, sort query.Sort, page, size int) (*Page, error) {
	page = query.ClampPage(page)
	size = query.ClampPageSize(size)
	offset := pageOffset(page, size)

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	ids, total, err := e.store.QueryIDs(ctx, expr, sort, offset, size)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = catalog.Unavailable("query ids", fmt.Errorf("deadline of %s exceeded: %w", e.timeout, context.DeadlineExceeded))
		}
		return nil, fmt.Errorf("fetching page %d: %w", page, err)
	}

	ids = distinct(ids, size)
	p := &Page{
		IDs:      ids,
		Total:    total,
		Page:     page,
		PageSize: size,
		HasMore:  hasMore(total, page, size),
	}
	e.log.Debugf("page %d of %s: %d ids, total %d (%s)", page, expr, len(ids), total, time.Since(start))
	return p, nil
}

// Each walks every page of expr in order until HasMore is false or fn
// returns an error.
func (e *Engine) Each(ctx context.Context, expr query.Expr, sort query.Sort, size int, fn func(*Page) error) error {
	for page := 1; ; page++ {
		p, err := e.FetchPage(ctx, expr, sort, page, size)
		if err != nil {
			return err
		}
		if err := fn(p); err != nil {
			return err
		}
		if !p.HasMore {
			return nil
		}
	}
}

// pageOffset saturates instead of overflowing for absurd page numbers.
func pageOffset(page, size int) int {
	if page-1 > math.MaxInt/size {
		return math.MaxInt
	}
	return (page - 1) * size
}

// hasMore reports total > page*size without computing the product.
func hasMore(total, page, size int) bool {
	return total > 0 && (total-1)/size >= page
}

// distinct drops repeated IDs, keeping first occurrences, and caps the
// result at limit.
func distinct(ids []catalog.ProductID, limit int) []catalog.ProductID {
	seen := make(map[catalog.ProductID]struct{}, len(ids))
	out := make([]catalog.ProductID, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
		if len(out) == limit {
			break
		}
	}
	return out
}
