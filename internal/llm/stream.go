package llm

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/theogognf/toi/pkg/types"
)

const (
	dataPrefix = "data:"
	doneMarker = "[DONE]"
)

// Usage is the token accounting sent in the final stream frame.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Delta is one decoded stream frame.
type Delta struct {
	Content string
	Usage   *Usage
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Usage *Usage `json:"usage"`
}

// Stream reads server-sent chat completion frames.
type Stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	done    bool
}

func newStream(body io.ReadCloser) *Stream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64<<10), 4<<20)
	return &Stream{body: body, scanner: scanner}
}

// NewStream wraps a raw event stream body.
func NewStream(body io.ReadCloser) *Stream {
	return newStream(body)
}

// Next returns the next frame, or io.EOF after [DONE] or the end of the
// body. Blank lines and non-data lines are skipped.
func (s *Stream) Next() (Delta, error) {
	if s.done {
		return Delta{}, io.EOF
	}
	for s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if !bytes.HasPrefix(line, []byte(dataPrefix)) {
			continue
		}
		payload := bytes.TrimSpace(line[len(dataPrefix):])
		if len(payload) == 0 {
			continue
		}
		if string(payload) == doneMarker {
			s.done = true
			return Delta{}, io.EOF
		}

		var chunk streamChunk
		if err := json.Unmarshal(payload, &chunk); err != nil {
			return Delta{}, types.UpstreamParse(fmt.Errorf("generation: malformed stream frame: %w", err))
		}
		delta := Delta{Usage: chunk.Usage}
		if len(chunk.Choices) > 0 {
			delta.Content = chunk.Choices[0].Delta.Content
		}
		return delta, nil
	}
	s.done = true
	if err := s.scanner.Err(); err != nil {
		return Delta{}, types.UpstreamConnection(fmt.Errorf("generation: stream interrupted: %w", err))
	}
	return Delta{}, io.EOF
}

// WriteTo copies content deltas to w until the stream ends, flushing after
// each delta when w is an http.Flusher.
func (s *Stream) WriteTo(w io.Writer) (int64, error) {
	flusher, _ := w.(http.Flusher)
	var written int64
	for {
		delta, err := s.Next()
		if err == io.EOF {
			return written, nil
		}
		if err != nil {
			return written, err
		}
		if delta.Content == "" {
			continue
		}
		n, err := io.WriteString(w, delta.Content)
		written += int64(n)
		if err != nil {
			return written, err
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

// Close releases the underlying response body.
func (s *Stream) Close() error {
	return s.body.Close()
}
