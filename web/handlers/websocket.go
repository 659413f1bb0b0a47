package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/theogognf/toi/pkg/types"
)

// socketEvent ends a turn on the websocket stream.
type socketEvent struct {
	Done  bool   `json:"done,omitempty"`
	Error string `json:"error,omitempty"`
}

// AssistSocket handles GET /assist/ws. Each text message from the client
// is a chat turn; the reply is sent as text frames of generated deltas,
// followed by a {"done":true} or {"error":...} frame.
func (h *AssistHandler) AssistSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Ctx(r.Context()).Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()
	conn.SetReadLimit(maxBodyBytes)

	ctx := r.Context()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				log.Ctx(ctx).Debug().Err(err).Msg("websocket read ended")
			}
			return
		}
		if err := h.turn(ctx, conn, data); err != nil {
			log.Ctx(ctx).Debug().Err(err).Msg("websocket write failed")
			return
		}
	}
}

// turn answers one chat turn. Only connection failures are returned.
func (h *AssistHandler) turn(ctx context.Context, conn *websocket.Conn, data []byte) error {
	var req ChatRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return wsjson.Write(ctx, conn, socketEvent{Error: "invalid JSON message: " + err.Error()})
	}
	if err := req.Validate(); err != nil {
		return wsjson.Write(ctx, conn, socketEvent{Error: types.MessageOf(err)})
	}

	fw := &frameWriter{ctx: ctx, conn: conn}
	err := h.assistant.Respond(ctx, req.Messages, fw)
	if fw.err != nil {
		return fw.err
	}
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("kind", types.KindOf(err).String()).Msg("assist turn ended with an error")
		message := types.MessageOf(err)
		if types.KindOf(err) == types.KindInternal {
			message = "internal server error"
		}
		return wsjson.Write(ctx, conn, socketEvent{Error: message})
	}
	return wsjson.Write(ctx, conn, socketEvent{Done: true})
}

// frameWriter sends each write as one text frame.
type frameWriter struct {
	ctx  context.Context
	conn *websocket.Conn
	err  error
}

var errFrameWriterFailed = errors.New("websocket: earlier write failed")

func (f *frameWriter) Write(p []byte) (int, error) {
	if f.err != nil {
		return 0, errFrameWriterFailed
	}
	if err := f.conn.Write(f.ctx, websocket.MessageText, p); err != nil {
		f.err = err
		return 0, err
	}
	return len(p), nil
}
