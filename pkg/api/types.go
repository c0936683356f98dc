package api

import (
	"time"

	"github.com/rubiojr/catalog/pkg/catalog"
	"github.com/rubiojr/catalog/pkg/search"
)

type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// RowsResponse carries one page as a pre-rendered HTML fragment for the
// infinite-scroll table.
type RowsResponse struct {
	Rows     string `json:"rows"`
	HasMore  bool   `json:"has_more"`
	Total    int    `json:"total"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}

type SchemaResponse struct {
	Attributes []catalog.Attribute `json:"attributes"`
	Columns    []catalog.AttrName  `json:"columns"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	API       string    `json:"api"`
}

// Frame types sent over the websocket.
const (
	FramePage  = "page"
	FrameError = "error"
)

// PageFrame is a websocket frame answering one page request.
type PageFrame struct {
	Type string `json:"type"`
	*search.Response
}

// ErrorFrame is a websocket frame reporting a failed page request. The
// connection stays usable after it.
type ErrorFrame struct {
	Type string `json:"type"`
	ErrorResponse
}

// PageRequest is a websocket frame sent by the client. Fields mirror the
// HTTP query parameters.
type PageRequest struct {
	Q        string `json:"q"`
	Field    string `json:"field"`
	Category string `json:"category"`
	Page     int    `json:"page"`
	PageSize *int   `json:"page_size"`
	Sort     string `json:"sort"`
}
