package search

import (
	"context"

	"github.com/poiesic/chunkd/core"
	"github.com/poiesic/chunkd/storage"
)

// DefaultVectorWeight is the vector share of the hybrid fusion score.
const DefaultVectorWeight = 0.6

// DefaultGraphBoost is the additive lift applied to chunks connected by
// an edge to a top-ranked chunk.
const DefaultGraphBoost = 0.1

// Strategy ranks the candidate chunks of one index against a query.
// Implementations score every candidate; truncation to TopK happens in
// the engine after tie-breaking.
type Strategy interface {
	Rank(ctx context.Context, q *Query, queryVec []float32, candidates []*core.Chunk) ([]*core.SearchResult, error)
}

// queryTerms resolves the keyword terms of a query: explicit keywords
// win, otherwise the query text is tokenized and stop-word filtered.
func queryTerms(q *Query) []string {
	if len(q.Keywords) > 0 {
		return normalizeTerms(q.Keywords)
	}
	return tokenizeAndFilter(q.Text)
}

// VectorStrategy ranks purely by cosine similarity between the query
// embedding and chunk embeddings.
type VectorStrategy struct{}

var _ Strategy = (*VectorStrategy)(nil)

// Rank scores every candidate by vector similarity alone.
func (s *VectorStrategy) Rank(ctx context.Context, q *Query, queryVec []float32, candidates []*core.Chunk) ([]*core.SearchResult, error) {
	results := make([]*core.SearchResult, 0, len(candidates))
	for _, chunk := range candidates {
		score := cosineSimilarity(queryVec, chunk.Embedding)
		results = append(results, &core.SearchResult{
			Chunk:       chunk,
			Score:       score,
			VectorScore: score,
		})
	}
	return results, nil
}

// HybridStrategy fuses vector similarity and keyword overlap. Each
// signal is min-max normalized across the candidate set, then combined
// as weight*vector + (1-weight)*keyword. The fusion is monotone in both
// signals: raising either raw score never lowers the combined score.
type HybridStrategy struct {
	// VectorWeight is the vector share in [0,1]. Zero value means
	// DefaultVectorWeight.
	VectorWeight float32
}

var _ Strategy = (*HybridStrategy)(nil)

func (s *HybridStrategy) weight() float32 {
	if s.VectorWeight > 0 {
		return s.VectorWeight
	}
	return DefaultVectorWeight
}

// Rank scores every candidate on both signals and fuses them.
func (s *HybridStrategy) Rank(ctx context.Context, q *Query, queryVec []float32, candidates []*core.Chunk) ([]*core.SearchResult, error) {
	terms := queryTerms(q)

	vectorScores := make([]float32, len(candidates))
	keywordScores := make([]float32, len(candidates))
	for i, chunk := range candidates {
		vectorScores[i] = cosineSimilarity(queryVec, chunk.Embedding)
		keywordScores[i] = keywordOverlap(terms, chunk)
	}

	normVector := minMaxNormalize(vectorScores)
	normKeyword := minMaxNormalize(keywordScores)

	w := s.weight()
	results := make([]*core.SearchResult, 0, len(candidates))
	for i, chunk := range candidates {
		results = append(results, &core.SearchResult{
			Chunk:        chunk,
			Score:        w*normVector[i] + (1-w)*normKeyword[i],
			VectorScore:  vectorScores[i],
			KeywordScore: keywordScores[i],
		})
	}
	return results, nil
}

// GraphBoostedStrategy wraps another strategy and lifts chunks that are
// edge-connected to a top-ranked chunk. Each chunk is boosted at most
// once, so the lift stays bounded regardless of edge count.
type GraphBoostedStrategy struct {
	inner Strategy
	edges storage.EdgeRepository
	boost float32
}

var _ Strategy = (*GraphBoostedStrategy)(nil)

// NewGraphBoostedStrategy wraps inner with an edge-connectivity boost.
// A non-positive boost means DefaultGraphBoost.
func NewGraphBoostedStrategy(inner Strategy, edges storage.EdgeRepository, boost float32) (*GraphBoostedStrategy, error) {
	if inner == nil {
		inner = &HybridStrategy{}
	}
	if edges == nil {
		return nil, ErrEdgeRepositoryRequired
	}
	if boost <= 0 {
		boost = DefaultGraphBoost
	}
	return &GraphBoostedStrategy{inner: inner, edges: edges, boost: boost}, nil
}

// Rank delegates to the inner strategy, then boosts neighbors of the
// provisional top TopK chunks.
func (s *GraphBoostedStrategy) Rank(ctx context.Context, q *Query, queryVec []float32, candidates []*core.Chunk) ([]*core.SearchResult, error) {
	results, err := s.inner.Rank(ctx, q, queryVec, candidates)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return results, nil
	}

	byDoc := make(map[string]*core.SearchResult, len(results))
	for _, result := range results {
		byDoc[result.Chunk.DocID] = result
	}

	seeds := provisionalTop(results, q.TopK)
	boosted := make(map[string]bool, len(results))
	for _, seed := range seeds {
		edges, err := s.edges.ListEdgesForChunk(ctx, q.Index, seed.Chunk.DocID)
		if err != nil {
			return nil, err
		}
		for _, edge := range edges {
			neighbor := edge.TargetID
			if neighbor == seed.Chunk.DocID {
				neighbor = edge.SourceID
			}
			result, ok := byDoc[neighbor]
			if !ok || boosted[neighbor] {
				continue
			}
			result.Score += s.boost
			boosted[neighbor] = true
		}
	}
	return results, nil
}

// provisionalTop returns the k highest-scoring results without
// disturbing the input order.
func provisionalTop(results []*core.SearchResult, k int) []*core.SearchResult {
	if k <= 0 || k > len(results) {
		k = len(results)
	}
	sorted := make([]*core.SearchResult, len(results))
	copy(sorted, results)
	sortResults(sorted)
	return sorted[:k]
}
