package domain

// ChunkMetadata describes the provenance of a regulation chunk.
type ChunkMetadata struct {
	RegulationName string `json:"regulation_name"`
	SourceFile     string `json:"source_file"`
	Department     string `json:"department"`
	ClauseID       string `json:"clause_id"`
	ChunkIndex     int    `json:"chunk_index"`
}

// RegulationChunk is the unit of ingested regulatory text. Created once
// during ingestion, immutable thereafter.
type RegulationChunk struct {
	ID        string        `json:"id"`
	Text      string        `json:"text"`
	Embedding []float32     `json:"embedding"`
	Metadata  ChunkMetadata `json:"metadata"`
}

// QueryHit is one ranked retrieval result. Distance is cosine distance,
// lower means more similar.
type QueryHit struct {
	ID       string
	Text     string
	Distance float64
	Metadata ChunkMetadata
}

// MetadataFilter restricts retrieval candidates to chunks whose metadata
// exactly matches all given key/value pairs before ranking.
type MetadataFilter map[string]string

// Matches reports whether the chunk metadata satisfies every filter pair.
// Unknown keys never match.
func (f MetadataFilter) Matches(m ChunkMetadata) bool {
	for key, want := range f {
		var got string
		switch key {
		case "regulation_name":
			got = m.RegulationName
		case "source_file":
			got = m.SourceFile
		case "department":
			got = m.Department
		case "clause_id":
			got = m.ClauseID
		default:
			return false
		}
		if got != want {
			return false
		}
	}
	return true
}
