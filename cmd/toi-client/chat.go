package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/theogognf/toi/internal/llm"
	"github.com/theogognf/toi/web/handlers"
)

// Transport sends one chat turn and streams the reply into w.
type Transport interface {
	Turn(ctx context.Context, history []llm.Message, w io.Writer) error
}

// Chat keeps the conversation history across turns.
type Chat struct {
	transport Transport
	history   []llm.Message
}

func NewChat(t Transport) *Chat {
	return &Chat{transport: t}
}

// Send streams the reply to message into out. Failed turns are dropped
// from the history.
func (c *Chat) Send(ctx context.Context, message string, out io.Writer) error {
	history := append(c.history, llm.Message{Role: llm.RoleUser, Content: message})

	var reply bytes.Buffer
	if err := c.transport.Turn(ctx, history, io.MultiWriter(out, &reply)); err != nil {
		return err
	}
	c.history = append(history, llm.Message{Role: llm.RoleAssistant, Content: reply.String()})
	return nil
}

// History returns the turns so far.
func (c *Chat) History() []llm.Message {
	return c.history
}

// HTTPTransport posts turns to /assist and copies the streamed body.
type HTTPTransport struct {
	client *resty.Client
}

func NewHTTPTransport(baseURL string) *HTTPTransport {
	return &HTTPTransport{client: resty.New().SetBaseURL(strings.TrimRight(baseURL, "/"))}
}

func (t *HTTPTransport) Turn(ctx context.Context, history []llm.Message, w io.Writer) error {
	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(handlers.ChatRequest{Messages: history}).
		SetDoNotParseResponse(true).
		Post("/assist")
	if err != nil {
		return err
	}
	body := resp.RawBody()
	defer func() { _ = body.Close() }()

	if resp.StatusCode() != http.StatusOK {
		var e handlers.ErrorResponse
		if err := json.NewDecoder(body).Decode(&e); err != nil || e.Message == "" {
			return fmt.Errorf("server replied %s", resp.Status())
		}
		return fmt.Errorf("server replied %s: %s", resp.Status(), e.Message)
	}
	_, err = io.Copy(w, body)
	return err
}

// SocketTransport streams turns over /assist/ws. A cancelled turn closes
// the connection; the next turn redials.
type SocketTransport struct {
	url  string
	conn *websocket.Conn
}

// DialSocket connects to the server's websocket endpoint.
func DialSocket(ctx context.Context, baseURL string) (*SocketTransport, error) {
	u := strings.TrimRight(baseURL, "/") + "/assist/ws"
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	t := &SocketTransport{url: u}
	if err := t.dial(ctx); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *SocketTransport) dial(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, t.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", t.url, err)
	}
	t.conn = conn
	return nil
}

func (t *SocketTransport) Turn(ctx context.Context, history []llm.Message, w io.Writer) error {
	if t.conn == nil {
		if err := t.dial(ctx); err != nil {
			return err
		}
	}
	err := t.turn(ctx, history, w)
	var reply replyError
	if err != nil && !errors.As(err, &reply) {
		log.Debug().Err(err).Msg("dropping websocket connection")
		_ = t.conn.Close(websocket.StatusGoingAway, "")
		t.conn = nil
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return err
}

// replyError is an error reported by the server for one turn.
type replyError string

func (e replyError) Error() string { return "server replied: " + string(e) }

type socketEvent struct {
	Done  bool    `json:"done"`
	Error *string `json:"error"`
}

func (t *SocketTransport) turn(ctx context.Context, history []llm.Message, w io.Writer) error {
	if err := wsjson.Write(ctx, t.conn, handlers.ChatRequest{Messages: history}); err != nil {
		return err
	}
	for {
		_, data, err := t.conn.Read(ctx)
		if err != nil {
			return err
		}
		var ev socketEvent
		if bytes.HasPrefix(data, []byte("{")) && json.Unmarshal(data, &ev) == nil {
			if ev.Error != nil {
				return replyError(*ev.Error)
			}
			if ev.Done {
				return nil
			}
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
	}
}

// Close closes the connection, if open.
func (t *SocketTransport) Close() {
	if t.conn != nil {
		_ = t.conn.Close(websocket.StatusNormalClosure, "")
	}
}
