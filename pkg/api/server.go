package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rubiojr/catalog/pkg/catalog"
	"github.com/rubiojr/catalog/pkg/log"
	"github.com/rubiojr/catalog/pkg/search"
	"golang.org/x/time/rate"
)

// Server exposes a search.Service over HTTP and websockets.
type Server struct {
	search   *search.Service
	upgrader websocket.Upgrader
	log      *log.Logger

	mu      sync.RWMutex
	limiter *rate.Limiter
}

type Option func(*Server)

// WithRateLimit limits API requests to rps per second with the given burst.
// rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		s.SetRateLimit(rps, burst)
	}
}

func NewServer(svc *search.Service, opts ...Option) *Server {
	s := &Server{
		search: svc,
		log:    log.For("api"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 16384,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetRateLimit replaces the request limit. It is safe to call while serving.
func (s *Server) SetRateLimit(rps float64, burst int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rps <= 0 {
		s.limiter = nil
		return
	}
	if burst < 1 {
		burst = 1
	}
	if s.limiter == nil {
		s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		return
	}
	s.limiter.SetLimit(rate.Limit(rps))
	s.limiter.SetBurst(burst)
}

func (s *Server) allow() bool {
	s.mu.RLock()
	l := s.limiter
	s.mu.RUnlock()
	return l == nil || l.Allow()
}

// Handler returns the routes wrapped with rate limiting and CORS.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return CorsMiddleware(s.RateLimitMiddleware(mux))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Warnf("encoding JSON response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, error, message string) {
	s.writeJSON(w, status, ErrorResponse{
		Error:   error,
		Message: message,
	})
}

// StatusClientClosedRequest reports a request abandoned by its client. It
// is nginx's non-standard 499, kept apart from store outages in access logs.
const StatusClientClosedRequest = 499

// errorResponse classifies err for clients.
func errorResponse(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "Not found", Message: err.Error()}
	case catalog.IsRetryable(err):
		return http.StatusServiceUnavailable, ErrorResponse{Error: "Store unavailable", Message: err.Error(), Retryable: true}
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, ErrorResponse{Error: "Request canceled", Message: err.Error()}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "Internal error", Message: err.Error()}
	}
}

// writeFailure maps service errors to HTTP responses. Retryable failures get
// a Retry-After hint.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := errorResponse(err)
	if status >= http.StatusInternalServerError {
		s.log.Warnf("%s %s: %v", r.Method, r.URL.Path, err)
	}
	if resp.Retryable {
		w.Header().Set("Retry-After", "1")
	}
	s.writeJSON(w, status, resp)
}

func CorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RateLimitMiddleware rejects requests over the configured limit with 429.
// Health checks are never limited.
func (s *Server) RateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" && !s.allow() {
			w.Header().Set("Retry-After", "1")
			s.writeJSON(w, http.StatusTooManyRequests, ErrorResponse{
				Error:     "Too many requests",
				Message:   "rate limit exceeded",
				Retryable: true,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
