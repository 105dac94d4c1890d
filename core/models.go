package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier derived from content hashing.
// It is used for relationship edges, whose identity is their tuple.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Index is a named partition of chunks. Its dimension fixes the valid
// embedding length for every chunk it owns.
type Index struct {
	Name        string
	Description string
	Dimension   int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Chunk is the atomic retrievable unit: text content, open metadata and
// an optional embedding. DocID is generated by the store, never by callers.
type Chunk struct {
	DocID     string
	IndexName string
	Content   string
	Metadata  Metadata
	Embedding []float32
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Edge is a typed, directed relationship between two chunks of the same
// index. Its identity is the (index, source, target, type) tuple; Reason
// is descriptive payload and does not participate in identity.
type Edge struct {
	IndexName string
	SourceID  string
	TargetID  string
	RelType   string
	Reason    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Tuple returns the identity tuple of the edge as "(index,source,target,type)".
// This is used for generating deterministic IDs.
func (e *Edge) Tuple() string {
	return "(" + e.IndexName + "," + e.SourceID + "," + e.TargetID + "," + e.RelType + ")"
}

// ID returns the content-based identifier of the edge tuple.
func (e *Edge) ID() ID {
	return IDFromContent(e.Tuple())
}

// SearchResult is a ranked chunk with its fused relevance score and the
// individual signals that produced it.
type SearchResult struct {
	Chunk        *Chunk
	Score        float32
	VectorScore  float32
	KeywordScore float32
}

// Analytics holds aggregate counts for one index plus a bounded sample
// of its edges.
type Analytics struct {
	IndexName  string
	ChunkCount int
	EdgeCount  int
	Sample     []*Edge
}
