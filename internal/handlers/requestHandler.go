package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/akolanti/pharmadoc/internal/adapter"
	"github.com/akolanti/pharmadoc/internal/adapter/utils"
	"github.com/akolanti/pharmadoc/internal/api"
	"github.com/akolanti/pharmadoc/internal/config"
	"github.com/akolanti/pharmadoc/internal/job"
	"github.com/akolanti/pharmadoc/internal/rag"
	"github.com/akolanti/pharmadoc/pkg/logger_i"
)

const maxChatBodySize = 1 << 20

// Handler serves the HTTP API on top of the rag service and the job queue.
type Handler struct {
	rag     rag.Service
	jobs    *job.Service
	dataDir string
	logger  *logger_i.Logger
}

func NewHandler(ragService rag.Service, jobService *job.Service, dataDir string) *Handler {
	return &Handler{
		rag:     ragService,
		jobs:    jobService,
		dataDir: dataDir,
		logger:  logger_i.NewLogger("RequestHandler"),
	}
}

// HealthHandler godoc
// @Summary      Health check
// @Tags         Operations
// @Produce      json
// @Success      200  {object}  api.HealthResponse
// @Router       /health [get]
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJsonResponse(w, http.StatusOK, api.HealthResponse{Status: "ok", Version: config.AppVersion})
}

// UploadHandler godoc
// @Summary      Upload and index a document
// @Description  Extracts, chunks, embeds and indexes the file before responding.
// @Tags         Ingestion
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "PDF, DOCX or text document"
// @Success      200  {object}  api.UploadResponse
// @Failure      400  {object}  api.ErrorResponse  "Missing file or unreadable document"
// @Failure      502  {object}  api.ErrorResponse  "Embedding backend failure"
// @Failure      503  {object}  api.ErrorResponse  "Vector index failure"
// @Router       /upload [post]
func (h *Handler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	if !h.validateContext(r.Context()) {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, config.MaxUploadSize)
	if err := r.ParseMultipartForm(config.MaxUploadSize); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "File too large or bad request")
		return
	}

	fileReader, fileMetadata, err := r.FormFile("file")
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "Could not retrieve file")
		return
	}
	defer fileReader.Close()

	data, err := io.ReadAll(fileReader)
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "Could not read file")
		return
	}

	chunkCount, err := h.rag.Ingest(r.Context(), data, fileMetadata.Filename)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, api.UploadResponse{
		Filename:   fileMetadata.Filename,
		Size:       fileMetadata.Size,
		ChunkCount: chunkCount,
		Message:    "File indexed successfully",
	})
}

// ChatHandler godoc
// @Summary      Ask a question about the indexed documents
// @Description  The question and the answer are appended to the session's history.
// @Tags         Messaging
// @Accept       json
// @Produce      json
// @Param        request  body      api.ChatRequest   true  "Question and optional session id"
// @Success      200      {object}  api.ChatResponse
// @Failure      400      {object}  api.ErrorResponse  "Empty question"
// @Failure      502      {object}  api.ErrorResponse  "Embedding or LLM backend failure"
// @Router       /chat [post]
func (h *Handler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeChatRequest(w, r)
	if !ok {
		return
	}
	ans, err := h.rag.Chat(r.Context(), req.SessionId, req.Message)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToChatResponse(req.SessionId, ans))
}

// ChatStreamHandler godoc
// @Summary      Stream the answer to a question
// @Description  Server-sent events: "token" per fragment, then "done", or "error" on failure.
// @Tags         Messaging
// @Accept       json
// @Produce      text/event-stream
// @Param        request  body      api.ChatRequest   true  "Question and optional session id"
// @Success      200      {object}  api.TokenEvent
// @Failure      400      {object}  api.ErrorResponse  "Empty question"
// @Router       /chat/stream [post]
func (h *Handler) ChatStreamHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeChatRequest(w, r)
	if !ok {
		return
	}
	log := h.logger.FromContext(r.Context()).With("sessionId", req.SessionId)

	stream, err := h.rag.AnswerStream(r.Context(), req.SessionId, req.Message)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}

	rc := http.NewResponseController(w)
	// the server write timeout is sized for plain requests
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		log.Debug("Could not clear write deadline", "error", err)
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	for frag, err := range stream {
		if err != nil {
			_ = writeEvent(w, "error", adapter.ToErrorEvent(err))
			_ = rc.Flush()
			return
		}
		// leaving the loop stops generation, the answer is not logged
		if err := r.Context().Err(); err != nil {
			log.Warn("Client went away mid-stream", "error", err)
			return
		}
		if err := writeEvent(w, "token", api.TokenEvent{Text: frag}); err != nil {
			log.Warn("Client went away mid-stream", "error", err)
			return
		}
		_ = rc.Flush()
	}
	_ = writeEvent(w, "done", api.DoneEvent{SessionId: req.SessionId})
	_ = rc.Flush()
}

// HistoryHandler godoc
// @Summary      Conversation history of a session
// @Tags         Messaging
// @Produce      json
// @Param        session_id  path   string  true   "Session id"
// @Param        limit       query  int     false  "Maximum number of messages (default 50)"
// @Success      200  {object}  api.HistoryResponse
// @Failure      400  {object}  api.ErrorResponse
// @Router       /history/{session_id} [get]
func (h *Handler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	sessionId := utils.GetChiURLParam(r, "session_id")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			WriteErrorResponse(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	msgs, err := h.rag.History(r.Context(), sessionId, limit)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToHistoryResponse(sessionId, msgs))
}

func (h *Handler) decodeChatRequest(w http.ResponseWriter, r *http.Request) (api.ChatRequest, bool) {
	var requestData api.ChatRequest
	if !h.validateContext(r.Context()) {
		return requestData, false
	}
	defer r.Body.Close()

	body := http.MaxBytesReader(w, r.Body, maxChatBodySize)
	if err := json.NewDecoder(body).Decode(&requestData); err != nil || strings.TrimSpace(requestData.Message) == "" {
		h.logger.FromContext(r.Context()).Warn("Bad Chat Request", "error", err)
		WriteErrorResponse(w, http.StatusBadRequest, "message is required")
		return requestData, false
	}
	if requestData.SessionId == "" {
		requestData.SessionId = config.DefaultSessionID
	}
	return requestData, true
}
