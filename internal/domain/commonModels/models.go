package commonModels

import "time"

// Document only lives for the duration of one ingestion call.
type Document struct {
	Name    string
	Content []byte
}

// Chunk is an immutable piece of a document. Index is contiguous from 0 per document.
type Chunk struct {
	Text   string `json:"content"`
	Source string `json:"source"`
	Index  int    `json:"chunk_index"`
}

type RecordMetadata struct {
	Source     string    `json:"source"`
	ChunkIndex int       `json:"chunk_index"`
	IngestedAt time.Time `json:"ingested_at"`
}

// Record is what the vector index stores: a unit vector, the chunk text and its metadata.
type Record struct {
	Id       string
	Vector   []float32
	Text     string
	Metadata RecordMetadata
}

type ScoredRecord struct {
	Record
	Score float32
}

// RetrievedChunk is the retriever's view of a search hit. Metadata is kept for citation.
type RetrievedChunk struct {
	Text       string  `json:"text"`
	Source     string  `json:"source"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float32 `json:"score"`
}

type DocType string

var PDF DocType = "PDF"
var DOCX DocType = "DOCX"
var TXT DocType = "TXT"
var ERR DocType = "ERROR"
