package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rubiojr/catalog/pkg/catalog"
	"github.com/rubiojr/catalog/pkg/query"
)

const (
	wsWriteWait = 10 * time.Second
	// a client that stops asking for pages is dropped after this long
	wsIdleTimeout = 5 * time.Minute
)

// HandleProductsWS serves incremental list loading over a websocket. Every
// client frame is a PageRequest; every answer is a PageFrame or ErrorFrame.
// Frames are independent, so a failed page can be requested again on the
// same connection.
func (s *Server) HandleProductsWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnf("websocket upgrade: %v", err)
		return
	}
	defer func() {
		if err := conn.Close(); err != nil {
			s.log.Debugf("closing websocket: %v", err)
		}
	}()

	ctx := r.Context()
	for {
		if err := conn.SetReadDeadline(time.Now().Add(wsIdleTimeout)); err != nil {
			s.log.Debugf("websocket read deadline: %v", err)
			return
		}

		var req PageRequest
		if err := conn.ReadJSON(&req); err != nil {
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) {
				s.log.Debugf("websocket read: %v", err)
			}
			return
		}

		var frame any
		if !s.allow() {
			frame = ErrorFrame{Type: FrameError, ErrorResponse: ErrorResponse{
				Error: "Too many requests", Message: "rate limit exceeded", Retryable: true,
			}}
		} else if resp, err := s.search.Search(ctx, req.query()); err != nil {
			_, e := errorResponse(err)
			frame = ErrorFrame{Type: FrameError, ErrorResponse: e}
		} else {
			frame = PageFrame{Type: FramePage, Response: resp}
		}

		if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
			s.log.Debugf("websocket write deadline: %v", err)
			return
		}
		if err := conn.WriteJSON(frame); err != nil {
			s.log.Debugf("websocket write: %v", err)
			return
		}
	}
}

func (p PageRequest) query() query.SearchQuery {
	return query.SearchQuery{
		Text:     p.Q,
		Field:    p.Field,
		Category: catalog.ParseCategoryRef(p.Category),
		Page:     p.Page,
		PageSize: query.RequestedPageSize(p.PageSize),
		Sort:     query.ParseSort(p.Sort),
	}
}
