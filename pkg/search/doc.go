// Package search is the single entry point used by the HTTP API, the MCP
// server and the CLI to run a catalog retrieval.
//
// A retrieval takes an immutable query.SearchQuery, plans it into a filter
// expression, fetches one page of matching product IDs and projects those IDs
// into list rows:
//
//	svc := search.New(store, catalog.DefaultSchema())
//	resp, err := svc.Search(ctx, query.SearchQuery{Text: "x-100", Page: 1})
//	if catalog.IsRetryable(err) {
//		// the store is unavailable, the caller may retry the same page
//	}
//
// ParseSearchQuery converts HTTP query parameters (or any map of string
// slices) into a SearchQuery. Parsing never fails: unknown or malformed
// values fall back to their defaults.
package search
