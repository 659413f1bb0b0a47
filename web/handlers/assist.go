package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/theogognf/toi/internal/llm"
	"github.com/theogognf/toi/pkg/types"
)

// Validate requires a history that ends with a user message.
func (c ChatRequest) Validate() error {
	if len(c.Messages) == 0 {
		return types.Validation("messages must not be empty")
	}
	for i, m := range c.Messages {
		switch m.Role {
		case llm.RoleSystem, llm.RoleUser, llm.RoleAssistant:
		default:
			return types.Validation("messages[%d]: unknown role %q", i, m.Role)
		}
	}
	if last := c.Messages[len(c.Messages)-1]; last.Role != llm.RoleUser {
		return types.Validation("the last message must be from the user")
	}
	return nil
}

// AssistHandler runs chat turns through the assistant.
type AssistHandler struct {
	assistant Assistant
}

// NewAssistHandler creates a new AssistHandler instance.
func NewAssistHandler(assistant Assistant) *AssistHandler {
	return &AssistHandler{assistant: assistant}
}

// Assist handles POST /assist. The reply is streamed as plain text and
// flushed as it is generated.
func (h *AssistHandler) Assist(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	sw := &streamWriter{w: w}
	err := h.assistant.Respond(r.Context(), req.Messages, sw)
	if err == nil {
		return
	}
	if !sw.started {
		respondError(w, r, err)
		return
	}
	// The status line is gone; the reply already tells the user what failed.
	log.Ctx(r.Context()).Warn().Err(err).Str("kind", types.KindOf(err).String()).Msg("assist turn ended with an error")
}

// streamWriter sends the plain text headers on the first write.
type streamWriter struct {
	w       http.ResponseWriter
	started bool
}

func (s *streamWriter) Write(p []byte) (int, error) {
	if !s.started {
		s.w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		s.w.Header().Set("Cache-Control", "no-cache")
		s.w.WriteHeader(http.StatusOK)
		s.started = true
	}
	return s.w.Write(p)
}

func (s *streamWriter) Flush() {
	if f, ok := s.w.(http.Flusher); ok {
		f.Flush()
	}
}
