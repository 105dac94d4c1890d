package badger

import (
	"fmt"

	"github.com/poiesic/chunkd/core"
)

// Key prefixes for different record types. Chunk and edge keys embed the
// owning index name so that a single prefix scan yields exactly one
// partition, never more.
const (
	indexRecordPrefix  = "idxrec"
	chunkRecordPrefix  = "churec"
	edgeRecordPrefix   = "edgrec"
	edgeIncidentPrefix = "edginc"
)

// makeIndexKey generates a key for an index record by name.
func makeIndexKey(name string) []byte {
	return []byte(fmt.Sprintf("%s:%s", indexRecordPrefix, name))
}

// makeChunkKey generates a key for a chunk record.
// Format: prefix:index/docID
func makeChunkKey(indexName, docID string) []byte {
	return []byte(fmt.Sprintf("%s:%s/%s", chunkRecordPrefix, indexName, docID))
}

// makeChunkScanPrefix generates the prefix covering every chunk of one index.
func makeChunkScanPrefix(indexName string) []byte {
	return []byte(fmt.Sprintf("%s:%s/", chunkRecordPrefix, indexName))
}

// makeEdgeKey generates a key for an edge record. The tuple hash is
// rendered as fixed-width hex so iteration order is stable.
func makeEdgeKey(indexName string, id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%s/%016x", edgeRecordPrefix, indexName, uint64(id)))
}

// makeEdgeScanPrefix generates the prefix covering every edge of one index.
func makeEdgeScanPrefix(indexName string) []byte {
	return []byte(fmt.Sprintf("%s:%s/", edgeRecordPrefix, indexName))
}

// makeEdgeIncidentKey generates a key for the incident-edge index.
// One entry exists per (endpoint chunk, edge) pair, for both endpoints,
// so deleting a chunk can locate its edges with one prefix scan.
// Format: prefix:index/docID/edgeID
func makeEdgeIncidentKey(indexName, docID string, id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%s/%s/%016x", edgeIncidentPrefix, indexName, docID, uint64(id)))
}

// makeEdgeIncidentScanPrefix generates the prefix covering every edge
// incident to one chunk.
func makeEdgeIncidentScanPrefix(indexName, docID string) []byte {
	return []byte(fmt.Sprintf("%s:%s/%s/", edgeIncidentPrefix, indexName, docID))
}

// makeEdgeIncidentIndexPrefix covers every incident entry of one index.
func makeEdgeIncidentIndexPrefix(indexName string) []byte {
	return []byte(fmt.Sprintf("%s:%s/", edgeIncidentPrefix, indexName))
}
