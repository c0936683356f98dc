package api

import (
	"net/http"
	"time"

	"github.com/rubiojr/catalog/pkg/catalog"
	"github.com/rubiojr/catalog/pkg/render"
	"github.com/rubiojr/catalog/pkg/search"
	"github.com/rubiojr/catalog/pkg/version"
)

func (s *Server) HandleProducts(w http.ResponseWriter, r *http.Request) {
	resp, err := s.search.Search(r.Context(), search.ParseSearchQuery(r.URL.Query()))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) HandleProductRows(w http.ResponseWriter, r *http.Request) {
	resp, err := s.search.Search(r.Context(), search.ParseSearchQuery(r.URL.Query()))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	html, err := render.String(r.Context(), render.Rows(s.search.Schema(), s.search.Columns(), resp.Rows))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, RowsResponse{
		Rows:     html,
		HasMore:  resp.HasMore,
		Total:    resp.Total,
		Page:     resp.Page,
		PageSize: resp.PageSize,
	})
}

func (s *Server) HandleProduct(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		s.writeError(w, http.StatusBadRequest, "Invalid path", "Product ID is required")
		return
	}

	d, err := s.search.Product(r.Context(), catalog.ProductID(id))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, d)
}

func (s *Server) HandleProductPage(w http.ResponseWriter, r *http.Request) {
	d, err := s.search.Product(r.Context(), catalog.ProductID(r.PathValue("id")))
	if err != nil {
		status, resp := errorResponse(err)
		http.Error(w, resp.Error, status)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.Detail(d).Render(r.Context(), w); err != nil {
		s.log.Warnf("rendering product %s: %v", d.ID, err)
	}
}

func (s *Server) HandleCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.search.Categories(r.Context())
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, cats)
}

func (s *Server) HandleSchema(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, SchemaResponse{
		Attributes: s.search.Schema().Attributes(),
		Columns:    s.search.Columns(),
	})
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Version:   version.Version,
		API:       version.API,
	}

	s.writeJSON(w, http.StatusOK, health)
}
