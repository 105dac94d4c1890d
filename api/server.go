// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package api exposes the store over a JSON HTTP interface. Routes live
// under /api; domain errors map to stable status codes (409 conflict,
// 404 not found, 422 dimension mismatch, 400 validation, 502/504
// upstream, 207 partial batch failure).
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/poiesic/chunkd/ai"
	"github.com/poiesic/chunkd/core"
	"github.com/poiesic/chunkd/graph"
	"github.com/poiesic/chunkd/ingestion"
	"github.com/poiesic/chunkd/search"
	"github.com/poiesic/chunkd/storage"
)

// DefaultTopK is used when a search request omits top_k.
const DefaultTopK = 5

// Server routes HTTP requests to the store services.
type Server struct {
	indexes     storage.IndexRepository
	pipeline    *ingestion.Pipeline
	engine      *search.Engine
	graph       *graph.Graph
	synthesizer ai.Synthesizer
	logger      *slog.Logger
	mux         *http.ServeMux
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithSynthesizer enables answer synthesis on search responses.
// Without it search returns ranked chunks only.
func WithSynthesizer(s ai.Synthesizer) ServerOption {
	return func(srv *Server) {
		srv.synthesizer = s
	}
}

// WithServerLogger sets a custom logger.
// Default is slog.Default().
func WithServerLogger(logger *slog.Logger) ServerOption {
	return func(srv *Server) {
		if logger != nil {
			srv.logger = logger
		}
	}
}

// NewServer creates the HTTP server over the given services.
func NewServer(
	indexes storage.IndexRepository,
	pipeline *ingestion.Pipeline,
	engine *search.Engine,
	g *graph.Graph,
	opts ...ServerOption,
) (*Server, error) {
	if indexes == nil {
		return nil, errors.New("api: index repository required")
	}
	if pipeline == nil {
		return nil, errors.New("api: ingestion pipeline required")
	}
	if engine == nil {
		return nil, errors.New("api: search engine required")
	}
	if g == nil {
		return nil, errors.New("api: graph service required")
	}

	s := &Server{
		indexes:  indexes,
		pipeline: pipeline,
		engine:   engine,
		graph:    g,
		logger:   slog.Default().With("component", "api"),
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)

	mux.HandleFunc("GET /api/indexes", s.handleListIndexes)
	mux.HandleFunc("POST /api/indexes", s.handleCreateIndex)
	mux.HandleFunc("GET /api/indexes/{name}", s.handleGetIndex)
	mux.HandleFunc("PUT /api/indexes/{name}", s.handleUpdateIndex)
	mux.HandleFunc("DELETE /api/indexes/{name}", s.handleDeleteIndex)

	mux.HandleFunc("GET /api/indexes/{name}/documents", s.handleListDocuments)
	mux.HandleFunc("POST /api/indexes/{name}/documents", s.handleCreateDocument)
	mux.HandleFunc("POST /api/indexes/{name}/documents/batch", s.handleCreateDocumentBatch)
	mux.HandleFunc("GET /api/indexes/{name}/documents/{doc_id}", s.handleGetDocument)
	mux.HandleFunc("PUT /api/indexes/{name}/documents/{doc_id}", s.handleUpdateDocument)
	mux.HandleFunc("DELETE /api/indexes/{name}/documents/{doc_id}", s.handleDeleteDocument)

	mux.HandleFunc("POST /api/indexes/{name}/relationships", s.handleDeclareRelationship)
	mux.HandleFunc("DELETE /api/indexes/{name}/relationships", s.handleRemoveRelationship)
	mux.HandleFunc("GET /api/indexes/{name}/analytics", s.handleAnalytics)

	mux.HandleFunc("POST /api/search", s.handleSearch)
	s.mux = mux

	return s, nil
}

// Handler returns the routing handler for use with an http.Server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListIndexes(w http.ResponseWriter, r *http.Request) {
	indexes, err := s.indexes.ListIndexes(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]indexResponse, 0, len(indexes))
	for _, index := range indexes {
		out = append(out, toIndexResponse(index))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateIndex(w http.ResponseWriter, r *http.Request) {
	var req indexCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	index, err := s.indexes.CreateIndex(r.Context(), &core.Index{
		Name:        req.Name,
		Description: req.Description,
		Dimension:   req.Dimension,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toIndexResponse(index))
}

func (s *Server) handleGetIndex(w http.ResponseWriter, r *http.Request) {
	index, err := s.indexes.GetIndex(r.Context(), r.PathValue("name"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toIndexResponse(index))
}

func (s *Server) handleUpdateIndex(w http.ResponseWriter, r *http.Request) {
	var req indexUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	name := r.PathValue("name")
	if req.Description == nil {
		// Nothing to change; return the current record.
		index, err := s.indexes.GetIndex(r.Context(), name)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toIndexResponse(index))
		return
	}

	index, err := s.indexes.UpdateIndex(r.Context(), name, *req.Description)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toIndexResponse(index))
}

func (s *Server) handleDeleteIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.indexes.DeleteIndex(r.Context(), r.PathValue("name")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	chunks, err := s.pipeline.ListChunks(r.Context(), r.PathValue("name"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]*documentResponse, 0, len(chunks))
	for _, chunk := range chunks {
		out = append(out, toDocumentResponse(chunk))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var req documentCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	chunk, err := s.pipeline.CreateChunk(r.Context(), r.PathValue("name"), &ingestion.ChunkInput{
		Content:   req.Content,
		Metadata:  req.Metadata,
		Embedding: req.Embedding,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDocumentResponse(chunk))
}

func (s *Server) handleCreateDocumentBatch(w http.ResponseWriter, r *http.Request) {
	var req documentBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	inputs := make([]*ingestion.ChunkInput, len(req.Documents))
	for i, doc := range req.Documents {
		inputs[i] = &ingestion.ChunkInput{
			Content:   doc.Content,
			Metadata:  doc.Metadata,
			Embedding: doc.Embedding,
		}
	}

	outcomes, err := s.pipeline.CreateChunks(r.Context(), r.PathValue("name"), inputs)
	if err != nil && !errors.Is(err, core.ErrPartialFailure) {
		writeDomainError(w, err)
		return
	}

	resp := batchResponse{Documents: make([]batchItemResponse, len(outcomes))}
	for i, outcome := range outcomes {
		item := batchItemResponse{Position: outcome.Position}
		if outcome.Err != nil {
			item.Error = outcome.Err.Error()
		} else {
			item.Document = toDocumentResponse(outcome.Chunk)
		}
		resp.Documents[i] = item
	}

	status := http.StatusCreated
	if err != nil {
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	chunk, err := s.pipeline.GetChunk(r.Context(), r.PathValue("name"), r.PathValue("doc_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDocumentResponse(chunk))
}

func (s *Server) handleUpdateDocument(w http.ResponseWriter, r *http.Request) {
	var req documentUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	chunk, err := s.pipeline.UpdateChunk(r.Context(), r.PathValue("name"), r.PathValue("doc_id"), &ingestion.ChunkUpdate{
		Content:   req.Content,
		Metadata:  req.Metadata,
		Embedding: req.Embedding,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDocumentResponse(chunk))
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.pipeline.DeleteChunk(r.Context(), r.PathValue("name"), r.PathValue("doc_id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeclareRelationship(w http.ResponseWriter, r *http.Request) {
	var req relationshipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	edge, created, err := s.graph.Declare(r.Context(), &core.Edge{
		IndexName: r.PathValue("name"),
		SourceID:  req.SourceID,
		TargetID:  req.TargetID,
		RelType:   req.RelType,
		Reason:    req.Reason,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, relationshipResponse{
		SourceID:  edge.SourceID,
		TargetID:  edge.TargetID,
		RelType:   edge.RelType,
		Reason:    edge.Reason,
		Created:   created,
		CreatedAt: formatTime(edge.CreatedAt),
		UpdatedAt: formatTime(edge.UpdatedAt),
	})
}

func (s *Server) handleRemoveRelationship(w http.ResponseWriter, r *http.Request) {
	var req relationshipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	err := s.graph.Remove(r.Context(), r.PathValue("name"), req.SourceID, req.TargetID, req.RelType)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := s.graph.Analytics(r.Context(), r.PathValue("name"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	edges := make([]edgeResponse, 0, len(analytics.Sample))
	for _, edge := range analytics.Sample {
		edges = append(edges, toEdgeResponse(edge))
	}
	writeJSON(w, http.StatusOK, analyticsResponse{
		IndexName:  analytics.IndexName,
		ChunkCount: analytics.ChunkCount,
		EdgeCount:  analytics.EdgeCount,
		Edges:      edges,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Query == "" {
		writeJSONError(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.TopK == 0 {
		req.TopK = DefaultTopK
	}

	results, err := s.engine.Search(r.Context(), &search.Query{
		Index:    req.IndexName,
		Text:     req.Query,
		Keywords: req.Keywords,
		TopK:     req.TopK,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := searchResponse{Chunks: make([]searchChunk, 0, len(results))}
	chunks := make([]*core.Chunk, 0, len(results))
	for _, result := range results {
		chunks = append(chunks, result.Chunk)
		resp.Chunks = append(resp.Chunks, searchChunk{
			DocID:    result.Chunk.DocID,
			Content:  result.Chunk.Content,
			Metadata: result.Chunk.Metadata,
			Score:    result.Score,
		})
	}

	// Synthesis is best effort; a model failure never fails retrieval.
	if s.synthesizer != nil {
		answer, err := s.synthesizer.Synthesize(r.Context(), req.Query, chunks)
		if err != nil {
			s.logger.Warn("answer synthesis failed", "index", req.IndexName, "err", err)
		} else {
			resp.Answer = answer
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
