package search

import "github.com/poiesic/chunkd/core"

// Monitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps during a search.
type Monitor interface {
	Start(query string)
	AfterEmbedding(dimension int)
	AfterCandidateLoad(count int)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                {}
func (n *noopMonitor) AfterEmbedding(_ int)          {}
func (n *noopMonitor) AfterCandidateLoad(_ int)      {}
func (n *noopMonitor) Finish(_ []*core.SearchResult) {}
