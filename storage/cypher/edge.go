package cypher

import (
	"context"
	"errors"
	"time"

	"github.com/poiesic/chunkd/core"
	"github.com/poiesic/chunkd/storage"
)

// EdgeRepository implements storage.EdgeRepository against a statement
// endpoint. Chunks stay in the primary store; the graph holds
// lightweight (:Chunk {index, doc_id}) nodes joined by RELATED
// relationships carrying rel_type, reason and timestamps. A chunk
// repository is consulted for endpoint existence so graph edges can
// never point at chunks the primary store does not have.
type EdgeRepository struct {
	client *Client
	chunks storage.ChunkRepository
}

var _ storage.EdgeRepository = (*EdgeRepository)(nil)

// NewEdgeRepository creates an EdgeRepository on the given client.
func NewEdgeRepository(client *Client, chunks storage.ChunkRepository) (*EdgeRepository, error) {
	if client == nil {
		return nil, errors.New("cypher: client is required")
	}
	if chunks == nil {
		return nil, errors.New("cypher: chunk repository is required")
	}
	return &EdgeRepository{client: client, chunks: chunks}, nil
}

// Close releases resources. The HTTP client needs no explicit cleanup.
func (r *EdgeRepository) Close() error {
	return nil
}

// WithTransaction runs fn directly. Every Commit call is already an
// auto-committed transaction on the endpoint side; cross-call
// transactions are not supported by this backend.
func (r *EdgeRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func tupleParams(indexName, sourceID, targetID, relType string) map[string]any {
	return map[string]any{
		"index":  indexName,
		"source": sourceID,
		"target": targetID,
		"type":   relType,
	}
}

// UpsertEdge declares an edge, creating the endpoint nodes on demand.
// Re-declaring an existing tuple updates reason and updated_at only.
func (r *EdgeRepository) UpsertEdge(ctx context.Context, edge *core.Edge) (*core.Edge, bool, error) {
	if err := core.ValidateEdge(edge); err != nil {
		return nil, false, err
	}

	for _, docID := range []string{edge.SourceID, edge.TargetID} {
		if _, err := r.chunks.GetChunk(ctx, edge.IndexName, docID); err != nil {
			return nil, false, err
		}
	}

	params := tupleParams(edge.IndexName, edge.SourceID, edge.TargetID, edge.RelType)
	params["reason"] = edge.Reason
	params["now"] = time.Now().UTC().UnixMicro()

	results, err := r.client.Commit(ctx, Statement{
		Statement: `MERGE (s:Chunk {index: $index, doc_id: $source})
MERGE (t:Chunk {index: $index, doc_id: $target})
MERGE (s)-[r:RELATED {rel_type: $type}]->(t)
ON CREATE SET r.reason = $reason, r.created_at = $now, r.updated_at = $now, r.was_created = true
ON MATCH SET r.reason = $reason, r.updated_at = $now, r.was_created = false
RETURN r.created_at, r.updated_at, r.was_created`,
		Parameters: params,
	})
	if err != nil {
		return nil, false, err
	}
	if len(results) == 0 || len(results[0].Rows) == 0 {
		return nil, false, core.ErrUpstream
	}

	row := results[0].Rows[0]
	edge.CreatedAt = rowTime(row, 0)
	edge.UpdatedAt = rowTime(row, 1)
	created, _ := row[2].(bool)
	return edge, created, nil
}

// GetEdge retrieves an edge by its identifying tuple.
func (r *EdgeRepository) GetEdge(ctx context.Context, indexName, sourceID, targetID, relType string) (*core.Edge, error) {
	results, err := r.client.Commit(ctx, Statement{
		Statement: `MATCH (s:Chunk {index: $index, doc_id: $source})-[r:RELATED {rel_type: $type}]->(t:Chunk {index: $index, doc_id: $target})
RETURN r.reason, r.created_at, r.updated_at`,
		Parameters: tupleParams(indexName, sourceID, targetID, relType),
	})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 || len(results[0].Rows) == 0 {
		return nil, core.ErrEdgeNotFound
	}

	row := results[0].Rows[0]
	reason, _ := row[0].(string)
	return &core.Edge{
		IndexName: indexName,
		SourceID:  sourceID,
		TargetID:  targetID,
		RelType:   relType,
		Reason:    reason,
		CreatedAt: rowTime(row, 1),
		UpdatedAt: rowTime(row, 2),
	}, nil
}

// DeleteEdge removes an edge by tuple.
func (r *EdgeRepository) DeleteEdge(ctx context.Context, indexName, sourceID, targetID, relType string) error {
	results, err := r.client.Commit(ctx, Statement{
		Statement: `MATCH (s:Chunk {index: $index, doc_id: $source})-[r:RELATED {rel_type: $type}]->(t:Chunk {index: $index, doc_id: $target})
DELETE r
RETURN count(r)`,
		Parameters: tupleParams(indexName, sourceID, targetID, relType),
	})
	if err != nil {
		return err
	}
	if rowCount(results) == 0 {
		return core.ErrEdgeNotFound
	}
	return nil
}

// ListEdges returns edges of the index, most recently updated first.
// A limit of zero or less means no limit.
func (r *EdgeRepository) ListEdges(ctx context.Context, indexName string, limit int) ([]*core.Edge, error) {
	statement := `MATCH (s:Chunk {index: $index})-[r:RELATED]->(t:Chunk)
RETURN s.doc_id, t.doc_id, r.rel_type, r.reason, r.created_at, r.updated_at
ORDER BY r.updated_at DESC`
	params := map[string]any{"index": indexName}
	if limit > 0 {
		statement += "\nLIMIT $limit"
		params["limit"] = limit
	}

	results, err := r.client.Commit(ctx, Statement{Statement: statement, Parameters: params})
	if err != nil {
		return nil, err
	}
	return decodeEdgeRows(indexName, results), nil
}

// CountEdges returns the number of edges in the index.
func (r *EdgeRepository) CountEdges(ctx context.Context, indexName string) (int, error) {
	results, err := r.client.Commit(ctx, Statement{
		Statement:  `MATCH (s:Chunk {index: $index})-[r:RELATED]->(t:Chunk) RETURN count(r)`,
		Parameters: map[string]any{"index": indexName},
	})
	if err != nil {
		return 0, err
	}
	return rowCount(results), nil
}

// ListEdgesForChunk returns every edge incident to the chunk, in either
// direction.
func (r *EdgeRepository) ListEdgesForChunk(ctx context.Context, indexName, docID string) ([]*core.Edge, error) {
	results, err := r.client.Commit(ctx, Statement{
		Statement: `MATCH (a:Chunk {index: $index, doc_id: $doc})-[r:RELATED]-(b:Chunk)
RETURN startNode(r).doc_id, endNode(r).doc_id, r.rel_type, r.reason, r.created_at, r.updated_at`,
		Parameters: map[string]any{"index": indexName, "doc": docID},
	})
	if err != nil {
		return nil, err
	}
	return decodeEdgeRows(indexName, results), nil
}

// decodeEdgeRows maps statement rows shaped
// [source, target, rel_type, reason, created_at, updated_at] to edges.
func decodeEdgeRows(indexName string, results []Result) []*core.Edge {
	if len(results) == 0 {
		return nil
	}
	edges := make([]*core.Edge, 0, len(results[0].Rows))
	for _, row := range results[0].Rows {
		if len(row) < 6 {
			continue
		}
		source, _ := row[0].(string)
		target, _ := row[1].(string)
		relType, _ := row[2].(string)
		reason, _ := row[3].(string)
		edges = append(edges, &core.Edge{
			IndexName: indexName,
			SourceID:  source,
			TargetID:  target,
			RelType:   relType,
			Reason:    reason,
			CreatedAt: rowTime(row, 4),
			UpdatedAt: rowTime(row, 5),
		})
	}
	return edges
}

// rowTime decodes a unix-microsecond timestamp from a row column.
// JSON numbers arrive as float64.
func rowTime(row []any, i int) time.Time {
	if i >= len(row) {
		return time.Time{}
	}
	micros, ok := row[i].(float64)
	if !ok {
		return time.Time{}
	}
	return time.UnixMicro(int64(micros)).UTC()
}

// rowCount reads a single count() column from the first row.
func rowCount(results []Result) int {
	if len(results) == 0 || len(results[0].Rows) == 0 || len(results[0].Rows[0]) == 0 {
		return 0
	}
	count, _ := results[0].Rows[0][0].(float64)
	return int(count)
}
