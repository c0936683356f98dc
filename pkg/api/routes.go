package api

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
)

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	gz := func(h http.HandlerFunc) http.Handler { return gzhttp.GzipHandler(h) }

	// List endpoints stay outside /api/products/ so any product ID resolves.
	mux.Handle("GET /api/products", gz(s.HandleProducts))
	mux.Handle("GET /api/rows", gz(s.HandleProductRows))
	mux.Handle("GET /api/products/{id}", gz(s.HandleProduct))
	mux.Handle("GET /api/categories", gz(s.HandleCategories))
	mux.Handle("GET /api/schema", gz(s.HandleSchema))
	mux.Handle("GET /products/{id}", gz(s.HandleProductPage))
	mux.HandleFunc("GET /health", s.HandleHealth)

	// Compression would break the upgrade handshake.
	mux.HandleFunc("GET /api/ws", s.HandleProductsWS)
}
