package embedding

import (
	"context"
	"fmt"

	genai "google.golang.org/genai"
)

const defaultEmbedModel = "gemini-embedding-001"

// GeminiEmbedder is a thin wrapper around the official genai client. It only
// focuses on the API call itself; caching and batching policy live in
// CachedEmbedder and the callers.
type GeminiEmbedder struct {
	cli   *genai.Client
	model string
}

// NewGeminiEmbedder builds a Gemini-backed embedder. The genai client reads
// GEMINI_API_KEY from the environment; model "" uses the default embedding
// model.
func NewGeminiEmbedder(ctx context.Context, model string) (*GeminiEmbedder, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, &BackendError{Backend: "gemini", Err: err}
	}
	if model == "" {
		model = defaultEmbedModel
	}
	return &GeminiEmbedder{cli: cli, model: model}, nil
}

func (g *GeminiEmbedder) Name() string { return "Gemini:" + g.model }

func (g *GeminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}
	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = &genai.Content{Parts: []*genai.Part{{Text: t}}}
	}
	resp, err := g.cli.Models.EmbedContent(ctx, g.model, contents, nil)
	if err != nil {
		return nil, &BackendError{Backend: g.Name(), Err: err}
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, &BackendError{
			Backend: g.Name(),
			Err:     fmt.Errorf("got %d embeddings for %d texts", len(resp.Embeddings), len(texts)),
		}
	}
	out := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		if e == nil || len(e.Values) == 0 {
			return nil, &BackendError{Backend: g.Name(), Err: fmt.Errorf("empty embedding at index %d", i)}
		}
		out[i] = e.Values
	}
	return out, nil
}
