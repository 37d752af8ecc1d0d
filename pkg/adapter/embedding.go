package adapter

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"google.golang.org/genai"
)

// OpenAIEmbedder implements the Embedder interface using the OpenAI
// embeddings endpoint.
type OpenAIEmbedder struct {
	client openai.Client
	model  openai.EmbeddingModel
	dim    int
}

// NewOpenAIEmbedder creates a new OpenAI embedder. An empty model selects
// text-embedding-3-small.
func NewOpenAIEmbedder(apiKey, model string) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	m := openai.EmbeddingModelTextEmbedding3Small
	if model != "" {
		m = openai.EmbeddingModel(model)
	}

	return &OpenAIEmbedder{
		client: openai.NewClient(),
		model:  m,
		dim:    1536,
	}, nil
}

// Name returns the embedder identifier.
func (e *OpenAIEmbedder) Name() string {
	return "openai"
}

// Dimension returns the embedding dimension.
func (e *OpenAIEmbedder) Dimension() int {
	return e.dim
}

// Embed returns one vector per input text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings error: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai returned %d embeddings for %d inputs", len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, item := range resp.Data {
		vec := make([]float32, len(item.Embedding))
		for i, v := range item.Embedding {
			vec[i] = float32(v)
		}
		vectors[int(item.Index)] = vec
	}

	return vectors, nil
}

// GoogleEmbedder implements the Embedder interface using Gemini's
// embedContent endpoint.
type GoogleEmbedder struct {
	client *genai.Client
	model  string
	dim    int
}

// NewGoogleEmbedder creates a new Google embedder. An empty model selects
// text-embedding-004.
func NewGoogleEmbedder(apiKey, model string) (*GoogleEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("google API key is required")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create google client: %w", err)
	}

	if model == "" {
		model = "text-embedding-004"
	}

	return &GoogleEmbedder{
		client: client,
		model:  model,
		dim:    768,
	}, nil
}

// Name returns the embedder identifier.
func (e *GoogleEmbedder) Name() string {
	return "google"
}

// Dimension returns the embedding dimension.
func (e *GoogleEmbedder) Dimension() int {
	return e.dim
}

// Embed returns one vector per input text.
func (e *GoogleEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, 0, len(texts))
	for _, text := range texts {
		contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
	}

	resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("google embeddings error: %w", err)
	}

	if resp == nil || len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("google returned unexpected embedding count")
	}

	vectors := make([][]float32, len(texts))
	for i, emb := range resp.Embeddings {
		vectors[i] = emb.Values
	}

	return vectors, nil
}
