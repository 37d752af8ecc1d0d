package semantic

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"github.com/zen-systems/intentgate/pkg/adapter"
	"github.com/zen-systems/intentgate/pkg/registry"
	"github.com/zen-systems/intentgate/pkg/schema"
)

const (
	defaultTimeout = 3 * time.Second
	defaultTopK    = 5
)

// Matcher ranks categories by similarity between a query and each
// category's prototype examples. Prototype vectors are embedded once at
// index-build time; only the query is embedded per request.
type Matcher struct {
	reg      *registry.Registry
	embedder adapter.Embedder
	timeout  time.Duration
	topK     int
	debug    bool

	index []categoryIndex
}

type categoryIndex struct {
	id      string
	order   int
	vectors [][]float32
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithTimeout sets the per-request embedding timeout.
func WithTimeout(d time.Duration) Option {
	return func(m *Matcher) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithTopK caps the ranked candidate list length.
func WithTopK(k int) Option {
	return func(m *Matcher) {
		if k > 0 {
			m.topK = k
		}
	}
}

// WithDebug enables debug logging.
func WithDebug(debug bool) Option {
	return func(m *Matcher) {
		m.debug = debug
	}
}

// NewMatcher creates a matcher over a registry and embedding provider.
// BuildIndex must be called before Match.
func NewMatcher(reg *registry.Registry, embedder adapter.Embedder, opts ...Option) *Matcher {
	m := &Matcher{
		reg:      reg,
		embedder: embedder,
		timeout:  defaultTimeout,
		topK:     defaultTopK,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// BuildIndex embeds every prototype in the registry. Called once at startup;
// a failure here is fatal because the matcher cannot operate without
// prototype vectors.
func (m *Matcher) BuildIndex(ctx context.Context) error {
	var texts []string
	for _, cat := range m.reg.Categories() {
		for _, proto := range cat.Prototypes {
			texts = append(texts, proto.Text)
		}
	}

	vectors, err := m.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("semantic: embed prototypes: %w", err)
	}
	if len(vectors) != len(texts) {
		return fmt.Errorf("semantic: embedder returned %d vectors for %d prototypes", len(vectors), len(texts))
	}

	m.index = m.index[:0]
	i := 0
	for _, cat := range m.reg.Categories() {
		ci := categoryIndex{id: cat.ID, order: m.reg.Order(cat.ID)}
		for range cat.Prototypes {
			ci.vectors = append(ci.vectors, vectors[i])
			i++
		}
		m.index = append(m.index, ci)
	}

	return nil
}

// Match embeds the query and returns the full ranked candidate list,
// descending by similarity, ties broken by registry declaration order.
// Categories in excluding are omitted. On embedder failure the matcher
// degrades: it returns an empty list and degraded=true, never an error.
func (m *Matcher) Match(ctx context.Context, query string, excluding map[string]bool) (candidates []schema.CandidateScore, degraded bool) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	vectors, err := m.embedder.Embed(ctx, []string{query})
	if err != nil || len(vectors) != 1 {
		if m.debug {
			log.Printf("[semantic] embedder degraded (transient=%v): %v", adapter.IsTransient(err), err)
		}
		return nil, true
	}
	queryVec := vectors[0]

	for _, ci := range m.index {
		if excluding[ci.id] {
			continue
		}
		// A category is only as good as its single best prototype.
		best := 0.0
		for _, vec := range ci.vectors {
			if sim := similarity(queryVec, vec); sim > best {
				best = sim
			}
		}
		candidates = append(candidates, schema.CandidateScore{CategoryID: ci.id, Similarity: best})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Similarity == candidates[j].Similarity {
			return m.reg.Order(candidates[i].CategoryID) < m.reg.Order(candidates[j].CategoryID)
		}
		return candidates[i].Similarity > candidates[j].Similarity
	})

	if len(candidates) > m.topK {
		candidates = candidates[:m.topK]
	}

	return candidates, false
}

// similarity is cosine similarity clamped to [0,1].
func similarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim < 0 {
		return 0
	}
	return sim
}
