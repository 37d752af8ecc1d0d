package adapter

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
)

// MockAdapter returns deterministic responses for local runs and tests.
type MockAdapter struct {
	responses       map[string]string
	defaultResponse string
	// Err, when set, makes every Generate call fail. Used to exercise
	// degradation paths in tests.
	Err   error
	Calls int
}

// NewMockAdapter creates a mock adapter with a default response.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{
		responses:       make(map[string]string),
		defaultResponse: "mock response:",
	}
}

// NewMockAdapterWithResponses creates a mock adapter with predefined responses.
func NewMockAdapterWithResponses(responses map[string]string, defaultResponse string) *MockAdapter {
	if defaultResponse == "" {
		defaultResponse = "mock response:"
	}
	return &MockAdapter{responses: responses, defaultResponse: defaultResponse}
}

// Name returns the adapter identifier.
func (a *MockAdapter) Name() string {
	return "mock"
}

// Models returns the list of supported mock models.
func (a *MockAdapter) Models() []string {
	return []string{"mock-1"}
}

// Generate returns a deterministic response for the prompt. Predefined
// responses are matched by substring so callers can key on the part of a
// templated prompt they control.
func (a *MockAdapter) Generate(_ context.Context, model string, prompt string) (*Response, error) {
	a.Calls++
	if a.Err != nil {
		return nil, a.Err
	}
	for key, response := range a.responses {
		if strings.Contains(prompt, key) {
			return &Response{Content: response}, nil
		}
	}
	return &Response{Content: fmt.Sprintf("%s\n%s", a.defaultResponse, prompt)}, nil
}

// MockEmbedder produces deterministic embeddings without a provider. Texts
// are hashed token-by-token into a fixed-size vector, so texts sharing words
// land near each other. Good enough for offline demos and tests.
type MockEmbedder struct {
	// Vectors overrides the hashed embedding for exact texts.
	Vectors map[string][]float32
	// Err, when set, makes every Embed call fail.
	Err   error
	Calls int

	dim int
}

// NewMockEmbedder creates a mock embedder with 64-dimensional vectors.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{Vectors: make(map[string][]float32), dim: 64}
}

// Name returns the embedder identifier.
func (e *MockEmbedder) Name() string {
	return "mock"
}

// Dimension returns the embedding dimension.
func (e *MockEmbedder) Dimension() int {
	return e.dim
}

// Embed returns one deterministic vector per input text.
func (e *MockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.Calls++
	if e.Err != nil {
		return nil, e.Err
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if vec, ok := e.Vectors[text]; ok {
			vectors[i] = vec
			continue
		}
		vectors[i] = e.hash(text)
	}
	return vectors, nil
}

func (e *MockEmbedder) hash(text string) []float32 {
	vec := make([]float32, e.dim)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(word))
		vec[h.Sum32()%uint32(e.dim)] += 1
	}
	return vec
}
