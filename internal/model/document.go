package model

// DocumentRecord is the catalog row kept for every ingested document.
type DocumentRecord struct {
	Filename   string `json:"filename"`
	Size       int64  `json:"size"`
	UploadedAt int64  `json:"uploaded_at"`
	IndexName  string `json:"index_name"`
	Provider   string `json:"provider"`
	ChunkCount int    `json:"chunk_count"`
	Mtime      int64  `json:"mtime"`
}

// DocumentInfo is the API-facing view of an uploaded document.
type DocumentInfo struct {
	Filename          string `json:"filename"`
	Size              int64  `json:"size"`
	UploadedAt        string `json:"uploaded_at"`
	VectorstoreExists bool   `json:"vectorstore_exists"`
}
