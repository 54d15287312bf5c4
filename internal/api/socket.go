package api

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/hlog"

	"github.com/y-pakorn/friendwithbets/pkg/memory/buffer"
	"github.com/y-pakorn/friendwithbets/pkg/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// createSocket serves a chat over one websocket. Each inbound frame is a full
// transcript; the turn's responses are written back followed by a done frame.
func (s *Server) createSocket(w http.ResponseWriter, r *http.Request) {
	l := hlog.FromRequest(r)
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	for {
		var transcript buffer.Transcript
		if err := conn.ReadJSON(&transcript); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				l.Warn().Err(err).Msg("websocket read failed")
			}
			return
		}
		if err := s.socketTurn(r.Context(), conn, transcript); err != nil {
			l.Warn().Err(err).Msg("websocket write failed")
			return
		}
	}
}

func (s *Server) socketTurn(ctx context.Context, conn *websocket.Conn, transcript buffer.Transcript) error {
	ctx, cancel := context.WithTimeout(ctx, s.deps.CreateTimeout)
	defer cancel()

	ch, err := s.deps.Creator.Stream(ctx, transcript)
	if err != nil {
		if err := conn.WriteJSON(models.StreamResponse{Type: models.ErrorResponse, Error: models.NewError(err)}); err != nil {
			return err
		}
		return conn.WriteJSON(models.StreamResponse{Type: models.DoneResponse})
	}

	var done bool
	for resp := range ch {
		if err := conn.WriteJSON(resp); err != nil {
			cancel()
			for range ch {
			}
			return err
		}
		done = resp.Type == models.DoneResponse
	}
	if !done {
		return conn.WriteJSON(models.StreamResponse{Type: models.DoneResponse})
	}
	return nil
}
