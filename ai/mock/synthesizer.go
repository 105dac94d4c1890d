package mock

import (
	"context"
	"fmt"

	"github.com/poiesic/chunkd/core"
)

// MockSynthesizer is a test double for ai.Synthesizer.
type MockSynthesizer struct {
	// SynthesizeFunc is called by Synthesize if set.
	// If nil, a canned answer mentioning the chunk count is returned.
	SynthesizeFunc func(ctx context.Context, query string, chunks []*core.Chunk) (string, error)

	callCount int
}

// NewMockSynthesizer creates a mock synthesizer with default behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockSynthesizer() *MockSynthesizer {
	return &MockSynthesizer{}
}

// Synthesize returns a deterministic canned answer.
func (m *MockSynthesizer) Synthesize(ctx context.Context, query string, chunks []*core.Chunk) (string, error) {
	m.callCount++

	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, query, chunks)
	}

	return fmt.Sprintf("answer to %q from %d chunks", query, len(chunks)), nil
}

// CallCount returns the number of times Synthesize was called.
func (m *MockSynthesizer) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockSynthesizer) Reset() {
	m.callCount = 0
	m.SynthesizeFunc = nil
}
