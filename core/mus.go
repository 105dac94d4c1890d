package core

import (
	"encoding/json"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// Hand-written MUS serializers for stored records. Chunk metadata is an
// open tagged variant, so it is carried as its canonical JSON encoding
// inside the binary record; everything else is serialized field by field.
// Timestamps are encoded as Unix microseconds.

var float32SliceMUS = ord.NewSliceSer[float32](varint.Float32)

// IndexMUS serializes Index records.
var IndexMUS = indexSer{}

// ChunkMUS serializes Chunk records.
var ChunkMUS = chunkSer{}

// EdgeMUS serializes Edge records.
var EdgeMUS = edgeSer{}

type indexSer struct{}

func (indexSer) Marshal(v Index, bs []byte) (n int) {
	n = ord.String.Marshal(v.Name, bs)
	n += ord.String.Marshal(v.Description, bs[n:])
	n += varint.Int.Marshal(v.Dimension, bs[n:])
	n += varint.Int64.Marshal(v.CreatedAt.UnixMicro(), bs[n:])
	n += varint.Int64.Marshal(v.UpdatedAt.UnixMicro(), bs[n:])
	return
}

func (indexSer) Unmarshal(bs []byte) (v Index, n int, err error) {
	var n1 int
	if v.Name, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if v.Description, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.Dimension, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	var micros int64
	if micros, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	v.CreatedAt = time.UnixMicro(micros).UTC()
	if micros, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	v.UpdatedAt = time.UnixMicro(micros).UTC()
	return
}

func (indexSer) Size(v Index) int {
	return ord.String.Size(v.Name) +
		ord.String.Size(v.Description) +
		varint.Int.Size(v.Dimension) +
		varint.Int64.Size(v.CreatedAt.UnixMicro()) +
		varint.Int64.Size(v.UpdatedAt.UnixMicro())
}

type chunkSer struct{}

func (chunkSer) Marshal(v Chunk, bs []byte) (n int) {
	n = ord.String.Marshal(v.DocID, bs)
	n += ord.String.Marshal(v.IndexName, bs[n:])
	n += ord.String.Marshal(v.Content, bs[n:])
	n += ord.String.Marshal(encodeMetadata(v.Metadata), bs[n:])
	n += float32SliceMUS.Marshal(v.Embedding, bs[n:])
	n += varint.Int64.Marshal(v.CreatedAt.UnixMicro(), bs[n:])
	n += varint.Int64.Marshal(v.UpdatedAt.UnixMicro(), bs[n:])
	return
}

func (chunkSer) Unmarshal(bs []byte) (v Chunk, n int, err error) {
	var n1 int
	if v.DocID, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if v.IndexName, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.Content, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	var meta string
	if meta, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.Metadata, err = decodeMetadata(meta); err != nil {
		return
	}
	if v.Embedding, n1, err = float32SliceMUS.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	var micros int64
	if micros, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	v.CreatedAt = time.UnixMicro(micros).UTC()
	if micros, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	v.UpdatedAt = time.UnixMicro(micros).UTC()
	return
}

func (chunkSer) Size(v Chunk) int {
	return ord.String.Size(v.DocID) +
		ord.String.Size(v.IndexName) +
		ord.String.Size(v.Content) +
		ord.String.Size(encodeMetadata(v.Metadata)) +
		float32SliceMUS.Size(v.Embedding) +
		varint.Int64.Size(v.CreatedAt.UnixMicro()) +
		varint.Int64.Size(v.UpdatedAt.UnixMicro())
}

type edgeSer struct{}

func (edgeSer) Marshal(v Edge, bs []byte) (n int) {
	n = ord.String.Marshal(v.IndexName, bs)
	n += ord.String.Marshal(v.SourceID, bs[n:])
	n += ord.String.Marshal(v.TargetID, bs[n:])
	n += ord.String.Marshal(v.RelType, bs[n:])
	n += ord.String.Marshal(v.Reason, bs[n:])
	n += varint.Int64.Marshal(v.CreatedAt.UnixMicro(), bs[n:])
	n += varint.Int64.Marshal(v.UpdatedAt.UnixMicro(), bs[n:])
	return
}

func (edgeSer) Unmarshal(bs []byte) (v Edge, n int, err error) {
	var n1 int
	if v.IndexName, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if v.SourceID, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.TargetID, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.RelType, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.Reason, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	var micros int64
	if micros, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	v.CreatedAt = time.UnixMicro(micros).UTC()
	if micros, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	v.UpdatedAt = time.UnixMicro(micros).UTC()
	return
}

func (edgeSer) Size(v Edge) int {
	return ord.String.Size(v.IndexName) +
		ord.String.Size(v.SourceID) +
		ord.String.Size(v.TargetID) +
		ord.String.Size(v.RelType) +
		ord.String.Size(v.Reason) +
		varint.Int64.Size(v.CreatedAt.UnixMicro()) +
		varint.Int64.Size(v.UpdatedAt.UnixMicro())
}

func encodeMetadata(m Metadata) string {
	if len(m) == 0 {
		return ""
	}
	data, err := json.Marshal(m)
	if err != nil {
		// Metadata is built from JSON input, so this cannot fail in practice.
		return ""
	}
	return string(data)
}

func decodeMetadata(s string) (Metadata, error) {
	if s == "" {
		return nil, nil
	}
	var m Metadata
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, err
	}
	return m, nil
}
