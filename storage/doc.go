// Package storage defines the repository interfaces for indexes, chunks
// and relationship edges, together with the binary serialization used by
// backends to persist records.
package storage
