package llm

import "context"

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator returns a whole chat completion.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}

// StreamGenerator returns a chat completion as a stream of deltas.
type StreamGenerator interface {
	GenerateStream(ctx context.Context, req GenerationRequest) (*Stream, error)
}

// Reranker scores documents against a query.
type Reranker interface {
	Rerank(ctx context.Context, query string, documents []string) ([]RerankResult, error)
}

// ChatModel is everything the assistant needs from the generation service.
type ChatModel interface {
	Generator
	StreamGenerator
}
