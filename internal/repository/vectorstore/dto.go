package vectorstore

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"github.com/civicassist/civicassist/internal/domain"
)

// record is the stored shape of one chunk. The embedding travels as a
// binary blob (4 bytes per float, little-endian) next to a JSON header.
type recordHeader struct {
	Text     string               `json:"text"`
	Metadata domain.ChunkMetadata `json:"metadata"`
}

// encodeRecord serializes a chunk as a length-prefixed JSON header
// followed by the binary embedding.
func encodeRecord(chunk domain.RegulationChunk) ([]byte, error) {
	header, err := json.Marshal(recordHeader{Text: chunk.Text, Metadata: chunk.Metadata})
	if err != nil {
		return nil, fmt.Errorf("marshal chunk header: %w", err)
	}

	buf := make([]byte, 4+len(header)+len(chunk.Embedding)*4)
	binary.LittleEndian.PutUint32(buf, uint32(len(header)))
	copy(buf[4:], header)
	vectorToBytes(buf[4+len(header):], chunk.Embedding)
	return buf, nil
}

// decodeRecord reverses encodeRecord.
func decodeRecord(id string, data []byte) (domain.RegulationChunk, error) {
	if len(data) < 4 {
		return domain.RegulationChunk{}, fmt.Errorf("chunk record %s too short", id)
	}
	headerLen := int(binary.LittleEndian.Uint32(data))
	if len(data) < 4+headerLen {
		return domain.RegulationChunk{}, fmt.Errorf("chunk record %s truncated header", id)
	}

	var header recordHeader
	if err := json.Unmarshal(data[4:4+headerLen], &header); err != nil {
		return domain.RegulationChunk{}, fmt.Errorf("unmarshal chunk header %s: %w", id, err)
	}

	embedding, err := bytesToVector(data[4+headerLen:])
	if err != nil {
		return domain.RegulationChunk{}, fmt.Errorf("decode embedding %s: %w", id, err)
	}

	return domain.RegulationChunk{
		ID:        id,
		Text:      header.Text,
		Embedding: embedding,
		Metadata:  header.Metadata,
	}, nil
}

// vectorToBytes serializes []float32 into dst (4 bytes per float, little-endian).
func vectorToBytes(dst []byte, v []float32) {
	for i, f := range v {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(f))
	}
}

// bytesToVector deserializes a binary blob back to []float32.
func bytesToVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("embedding blob length %d not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

// cosineDistance returns 1 - cosine similarity. Lower means more similar.
// Zero-norm vectors are maximally distant.
func cosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
