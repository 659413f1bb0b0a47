package handlers

import (
	"context"
	"encoding/json"
	"io"

	"github.com/theogognf/toi/internal/llm"
	"github.com/theogognf/toi/pkg/types"
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ChatRequest is one assistant turn: the chat history ending with the
// user's latest message.
type ChatRequest struct {
	Messages []llm.Message `json:"messages"`
}

// Assistant streams replies to chat turns.
type Assistant interface {
	Respond(ctx context.Context, history []llm.Message, w io.Writer) error
}

// Forecaster serves weather data for free-form locations.
type Forecaster interface {
	Alerts(ctx context.Context, query string) (json.RawMessage, error)
	GridpointForecast(ctx context.Context, query string) (json.RawMessage, error)
	ZoneForecast(ctx context.Context, query string) (json.RawMessage, error)
}

// Headlines serves news headlines behind short redirects.
type Headlines interface {
	Latest(ctx context.Context, req types.NewsRequest) ([]types.NewsItem, error)
	Resolve(ctx context.Context, alias string) (string, error)
}
