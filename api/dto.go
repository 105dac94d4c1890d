package api

import (
	"time"

	"github.com/poiesic/chunkd/core"
)

type indexCreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Dimension   int    `json:"dimension,omitempty"`
}

type indexUpdateRequest struct {
	Description *string `json:"description,omitempty"`
}

type indexResponse struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Dimension   int    `json:"dimension"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

type documentCreateRequest struct {
	Content   string        `json:"content"`
	Metadata  core.Metadata `json:"metadata,omitempty"`
	Embedding []float32     `json:"embedding,omitempty"`
}

type documentBatchRequest struct {
	Documents []documentCreateRequest `json:"documents"`
}

type documentUpdateRequest struct {
	Content   *string       `json:"content,omitempty"`
	Metadata  core.Metadata `json:"metadata,omitempty"`
	Embedding []float32     `json:"embedding,omitempty"`
}

type documentResponse struct {
	DocID     string        `json:"doc_id"`
	IndexName string        `json:"index_name"`
	Content   string        `json:"content"`
	Metadata  core.Metadata `json:"metadata,omitempty"`
	Embedding []float32     `json:"embedding,omitempty"`
	CreatedAt string        `json:"created_at,omitempty"`
	UpdatedAt string        `json:"updated_at,omitempty"`
}

type batchItemResponse struct {
	Position int               `json:"position"`
	Document *documentResponse `json:"document,omitempty"`
	Error    string            `json:"error,omitempty"`
}

type batchResponse struct {
	Documents []batchItemResponse `json:"documents"`
}

type searchRequest struct {
	IndexName string   `json:"index_name"`
	Query     string   `json:"query"`
	Keywords  []string `json:"keywords,omitempty"`
	TopK      int      `json:"top_k,omitempty"`
}

type searchChunk struct {
	DocID    string        `json:"doc_id"`
	Content  string        `json:"content"`
	Metadata core.Metadata `json:"metadata,omitempty"`
	Score    float32       `json:"score"`
}

type searchResponse struct {
	Answer string        `json:"answer,omitempty"`
	Chunks []searchChunk `json:"chunks"`
}

type relationshipRequest struct {
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
	RelType  string `json:"rel_type"`
	Reason   string `json:"reason,omitempty"`
}

type relationshipResponse struct {
	SourceID  string `json:"source_id"`
	TargetID  string `json:"target_id"`
	RelType   string `json:"rel_type"`
	Reason    string `json:"reason,omitempty"`
	Created   bool   `json:"created"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

type edgeResponse struct {
	SourceID  string `json:"source_id"`
	TargetID  string `json:"target_id"`
	RelType   string `json:"rel_type"`
	Reason    string `json:"reason,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

type analyticsResponse struct {
	IndexName  string         `json:"index_name"`
	ChunkCount int            `json:"chunk_count"`
	EdgeCount  int            `json:"edge_count"`
	Edges      []edgeResponse `json:"edges"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func toIndexResponse(index *core.Index) indexResponse {
	return indexResponse{
		Name:        index.Name,
		Description: index.Description,
		Dimension:   index.Dimension,
		CreatedAt:   formatTime(index.CreatedAt),
		UpdatedAt:   formatTime(index.UpdatedAt),
	}
}

func toDocumentResponse(chunk *core.Chunk) *documentResponse {
	return &documentResponse{
		DocID:     chunk.DocID,
		IndexName: chunk.IndexName,
		Content:   chunk.Content,
		Metadata:  chunk.Metadata,
		Embedding: chunk.Embedding,
		CreatedAt: formatTime(chunk.CreatedAt),
		UpdatedAt: formatTime(chunk.UpdatedAt),
	}
}

func toEdgeResponse(edge *core.Edge) edgeResponse {
	return edgeResponse{
		SourceID:  edge.SourceID,
		TargetID:  edge.TargetID,
		RelType:   edge.RelType,
		Reason:    edge.Reason,
		CreatedAt: formatTime(edge.CreatedAt),
		UpdatedAt: formatTime(edge.UpdatedAt),
	}
}
