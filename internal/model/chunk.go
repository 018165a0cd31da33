package model

// ChunkMetadata locates a chunk inside its source document.
type ChunkMetadata struct {
	Source   string `json:"source"`
	Page     int    `json:"page"`
	Position int    `json:"position"`
}

// Chunk is the unit of retrieval: a bounded fragment of extracted text.
type Chunk struct {
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
}

// SourceReference is the provenance attached to an answer. Content is a
// truncated excerpt of the retrieved chunk.
type SourceReference struct {
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
}
