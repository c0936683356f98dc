// Package mcp exposes catalog search to MCP clients over stdio.
package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rubiojr/catalog/pkg/log"
	"github.com/rubiojr/catalog/pkg/search"
	"github.com/rubiojr/catalog/pkg/version"
)

var ErrMissingSearchService = errors.New("mcp: search service is required")

type Server struct {
	search *search.Service
	server *mcp.Server
	log    *log.Logger
}

func NewServer(svc *search.Service) (*Server, error) {
	if svc == nil {
		return nil, ErrMissingSearchService
	}

	s := &Server{
		search: svc,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "catalog",
			Version: version.Version,
		}, nil),
		log: log.For("mcp"),
	}
	s.registerTools()
	return s, nil
}

// Run serves over stdio until ctx is canceled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.log.Infof("serving MCP over stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}
