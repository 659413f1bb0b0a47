package llm

import (
	"context"
	"fmt"

	"github.com/theogognf/toi/internal/config"
	"github.com/theogognf/toi/internal/metrics"
	"github.com/theogognf/toi/pkg/types"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerationRequest is a chat completion request. ResponseFormat, when set,
// is forwarded verbatim as the response_format field.
type GenerationRequest struct {
	Messages       []Message
	ResponseFormat any
}

// RerankResult is one scored document, in the order the service returned it.
type RerankResult struct {
	Index          int     `json:"index"`
	RelevanceScore float64 `json:"relevance_score"`
	Document       *struct {
		Text string `json:"text"`
	} `json:"document,omitempty"`
}

// Client talks to the embedding, generation and reranking services.
type Client struct {
	embedding  *Upstream
	generation *Upstream
	reranking  *Upstream
}

// NewClient creates one upstream per configured model service.
func NewClient(cfg *config.Config, m *metrics.Metrics) (*Client, error) {
	embedding, err := NewUpstream("embedding", cfg.Embedding, m)
	if err != nil {
		return nil, err
	}
	generation, err := NewUpstream("generation", cfg.Generation, m)
	if err != nil {
		return nil, err
	}
	reranking, err := NewUpstream("reranking", cfg.Reranking, m)
	if err != nil {
		return nil, err
	}
	return &Client{embedding: embedding, generation: generation, reranking: reranking}, nil
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed returns the embedding of text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	var resp embeddingResponse
	if err := c.embedding.postJSON(ctx, "embed", "/embeddings", map[string]any{"input": text}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, types.UpstreamParse(fmt.Errorf("embedding: response has no embedding"))
	}
	return resp.Data[0].Embedding, nil
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (r GenerationRequest) fields() map[string]any {
	messages := r.Messages
	if messages == nil {
		messages = []Message{}
	}
	fields := map[string]any{"messages": messages}
	if r.ResponseFormat != nil {
		fields["response_format"] = r.ResponseFormat
	}
	return fields
}

// Generate returns the content of the first completion choice.
func (c *Client) Generate(ctx context.Context, req GenerationRequest) (string, error) {
	var resp chatResponse
	if err := c.generation.postJSON(ctx, "generate", "/chat/completions", req.fields(), &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", types.UpstreamParse(fmt.Errorf("generation: response has no choices"))
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateStream starts a streamed completion. The caller must Close the
// returned stream.
func (c *Client) GenerateStream(ctx context.Context, req GenerationRequest) (*Stream, error) {
	fields := req.fields()
	fields["stream"] = true
	fields["stream_options"] = map[string]any{"include_usage": true}

	resp, err := c.generation.post(ctx, "generate_stream", "/chat/completions", fields)
	if err != nil {
		return nil, err
	}
	return newStream(resp.Body), nil
}

type rerankResponse struct {
	Results []RerankResult `json:"results"`
}

// Rerank scores documents against query.
func (c *Client) Rerank(ctx context.Context, query string, documents []string) ([]RerankResult, error) {
	if len(documents) == 0 {
		return nil, nil
	}

	var resp rerankResponse
	fields := map[string]any{"query": query, "documents": documents}
	if err := c.reranking.postJSON(ctx, "rerank", "/rerank", fields, &resp); err != nil {
		return nil, err
	}
	for _, r := range resp.Results {
		if r.Index < 0 || r.Index >= len(documents) {
			return nil, types.UpstreamParse(fmt.Errorf("reranking: result index %d out of range for %d documents", r.Index, len(documents)))
		}
	}
	return resp.Results, nil
}

// Compile-time assertions.
var (
	_ Embedder        = (*Client)(nil)
	_ Generator       = (*Client)(nil)
	_ StreamGenerator = (*Client)(nil)
	_ Reranker        = (*Client)(nil)
)
