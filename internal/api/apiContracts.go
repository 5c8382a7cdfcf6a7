package api

import "time"

type JobExternalStatus string

const (
	JobStatusError JobExternalStatus = "Error"
)

type HealthResponse struct {
	Status  string `json:"status" example:"ok"`
	Version string `json:"version" example:"0.1.0"`
}

type UploadResponse struct {
	Filename   string `json:"filename" example:"leaflet.pdf"`
	Size       int64  `json:"size" example:"48213"`
	ChunkCount int    `json:"chunk_count" example:"12"`
	Message    string `json:"message" example:"File indexed successfully"`
}

type JobResponse struct {
	Id        string            `json:"id" example:"job_cz109"`
	Result    Result            `json:"result"`
	Error     *JobOutgoingError `json:"error,omitempty"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time,omitempty"`
}

type JobOutgoingError struct {
	Code    int    `json:"code" example:"400"`
	Message string `json:"message" example:"Job not found"`
	Retry   bool   `json:"can_retry" example:"false"`
}

type Result struct {
	Status     string `json:"status"`
	Document   string `json:"document,omitempty"`
	ChunkCount int    `json:"chunk_count"`
}

type InitJobResponse struct {
	Id        string `json:"id"`
	StatusURL string `json:"status_url"`
}

type SourceResponse struct {
	Source     string  `json:"source"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float32 `json:"score"`
}

type ChatResponse struct {
	SessionId string           `json:"session_id" example:"default_session"`
	Response  string           `json:"response"`
	Context   []string         `json:"context"`
	Sources   []SourceResponse `json:"sources,omitempty"`
}

type MessageResponse struct {
	Role      string    `json:"role" example:"user"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type HistoryResponse struct {
	SessionId string            `json:"session_id"`
	Messages  []MessageResponse `json:"messages"`
}

type ErrorResponse struct {
	Error JobOutgoingError `json:"error"`
	Kind  string           `json:"kind,omitempty" example:"ExtractionError"`
}

// stream events---------------------

type TokenEvent struct {
	Text string `json:"text"`
}

type DoneEvent struct {
	SessionId string `json:"session_id"`
}

type ErrorEvent struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// requests---------------------

type ChatRequest struct {
	Message   string `json:"message" validate:"required"`
	SessionId string `json:"session_id,omitempty"`
}

type IngestDocumentRequest struct {
	DocumentName string `json:"document_name" validate:"required"`
}
