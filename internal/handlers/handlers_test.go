package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"iter"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akolanti/pharmadoc/internal/api"
	"github.com/akolanti/pharmadoc/internal/config"
	"github.com/akolanti/pharmadoc/internal/data/store"
	"github.com/akolanti/pharmadoc/internal/domain/chatModel"
	"github.com/akolanti/pharmadoc/internal/domain/commonModels"
	"github.com/akolanti/pharmadoc/internal/domain/jobModel"
	"github.com/akolanti/pharmadoc/internal/domain/ragErrors"
	"github.com/akolanti/pharmadoc/internal/handlers"
	"github.com/akolanti/pharmadoc/internal/job"
	"github.com/akolanti/pharmadoc/internal/middleware"
	"github.com/akolanti/pharmadoc/internal/server"
)

type MockRagService struct {
	OnIngest  func(ctx context.Context, data []byte, filename string) (int, error)
	OnChat    func(ctx context.Context, sessionId, question string) (chatModel.Answer, error)
	OnStream  func(ctx context.Context, sessionId, question string) (iter.Seq2[string, error], error)
	OnHistory func(ctx context.Context, sessionId string, limit int) ([]chatModel.Message, error)
}

func (m *MockRagService) Ingest(ctx context.Context, data []byte, filename string) (int, error) {
	return m.OnIngest(ctx, data, filename)
}

func (m *MockRagService) IngestDocument(ctx context.Context, j jobModel.Job) jobModel.Job { return j }

func (m *MockRagService) Search(ctx context.Context, query string, k int) ([]commonModels.RetrievedChunk, error) {
	return nil, nil
}

func (m *MockRagService) Answer(ctx context.Context, question string) (chatModel.Answer, error) {
	return m.OnChat(ctx, "", question)
}

func (m *MockRagService) Chat(ctx context.Context, sessionId, question string) (chatModel.Answer, error) {
	return m.OnChat(ctx, sessionId, question)
}

func (m *MockRagService) AnswerStream(ctx context.Context, sessionId, question string) (iter.Seq2[string, error], error) {
	return m.OnStream(ctx, sessionId, question)
}

func (m *MockRagService) History(ctx context.Context, sessionId string, limit int) ([]chatModel.Message, error) {
	return m.OnHistory(ctx, sessionId, limit)
}

func (m *MockRagService) Close() error { return nil }

func newRouter(t *testing.T, rag *MockRagService) (http.Handler, *job.Service) {
	t.Helper()
	jobs := job.InitJobService(job.ServiceConfig{
		JobChannel:        make(chan jobModel.Job, 4),
		DispatcherChannel: make(chan bool, 1),
		JobStore:          store.NewInMemoryJobStore(),
	})
	h := handlers.NewHandler(rag, jobs, t.TempDir())
	return server.NewRouter(h, middleware.New(nil), nil), jobs
}

func postJSON(router http.Handler, path string, body any) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func multipartBody(t *testing.T, field, filename string, content []byte, extra map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range extra {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHealthHandler(t *testing.T) {
	router, _ := newRouter(t, &MockRagService{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var res api.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, api.HealthResponse{Status: "ok", Version: config.AppVersion}, res)
}

func TestChatHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		chatErr    error
		wantStatus int
		wantKind   string
	}{
		{"answer", api.ChatRequest{Message: "What is Alpha?", SessionId: "s1"}, nil, http.StatusOK, ""},
		{"empty message", api.ChatRequest{Message: "  "}, nil, http.StatusBadRequest, ""},
		{"not json", "{", nil, http.StatusBadRequest, ""},
		{"llm down", api.ChatRequest{Message: "q"}, ragErrors.Generation(errors.New("503"), "generation failed"), http.StatusBadGateway, "GenerationError"},
		{"log down", api.ChatRequest{Message: "q"}, ragErrors.Log(errors.New("redis"), "append failed"), http.StatusInternalServerError, "LogError"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newRouter(t, &MockRagService{OnChat: func(ctx context.Context, sessionId, q string) (chatModel.Answer, error) {
				if tt.chatErr != nil {
					return chatModel.Answer{}, tt.chatErr
				}
				return chatModel.Answer{
					Response: "Alpha is a compound.",
					Context:  []string{"Alpha is a compound."},
					Sources:  []chatModel.Source{{Source: "leaflet.pdf", ChunkIndex: 0, Score: 1}},
				}, nil
			}})

			rec := postJSON(router, "/chat", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.NotEmpty(t, rec.Header().Get(middleware.TraceHeader))

			if tt.wantStatus == http.StatusOK {
				var res api.ChatResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
				assert.Equal(t, "s1", res.SessionId)
				assert.Equal(t, "Alpha is a compound.", res.Response)
				assert.Equal(t, []string{"Alpha is a compound."}, res.Context)
				require.Len(t, res.Sources, 1)
				assert.Equal(t, "leaflet.pdf", res.Sources[0].Source)
			}
			if tt.wantKind != "" {
				var res api.ErrorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
				assert.Equal(t, tt.wantKind, res.Kind)
				assert.True(t, res.Error.Retry)
			}
		})
	}
}

func TestChatStreamHandler(t *testing.T) {
	var gotSession string
	router, _ := newRouter(t, &MockRagService{OnStream: func(ctx context.Context, sessionId, q string) (iter.Seq2[string, error], error) {
		gotSession = sessionId
		return func(yield func(string, error) bool) {
			for _, f := range []string{"Alpha ", "is\na compound."} {
				if !yield(f, nil) {
					return
				}
			}
		}, nil
	}})

	rec := postJSON(router, "/chat/stream", api.ChatRequest{Message: "What is Alpha?"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, config.DefaultSessionID, gotSession)
	assert.Equal(t,
		"event: token\ndata: {\"text\":\"Alpha \"}\n\n"+
			"event: token\ndata: {\"text\":\"is\\na compound.\"}\n\n"+
			"event: done\ndata: {\"session_id\":\"default_session\"}\n\n",
		rec.Body.String())
}

func TestChatStreamHandler_MidStreamError(t *testing.T) {
	router, _ := newRouter(t, &MockRagService{OnStream: func(ctx context.Context, sessionId, q string) (iter.Seq2[string, error], error) {
		return func(yield func(string, error) bool) {
			if !yield("Alpha ", nil) {
				return
			}
			yield("", ragErrors.Generation(errors.New("reset"), "stream failed"))
		}, nil
	}})

	rec := postJSON(router, "/chat/stream", api.ChatRequest{Message: "What is Alpha?"})
	body := rec.Body.String()
	assert.Contains(t, body, "event: token\n")
	assert.Contains(t, body, "event: error\ndata: {\"kind\":\"GenerationError\"")
	assert.NotContains(t, body, "event: done")
}

// brokenConnWriter accepts okWrites writes and then fails like a reset socket.
type brokenConnWriter struct {
	header   http.Header
	body     bytes.Buffer
	okWrites int
}

func (w *brokenConnWriter) Header() http.Header { return w.header }

func (w *brokenConnWriter) WriteHeader(int) {}

func (w *brokenConnWriter) Write(p []byte) (int, error) {
	if w.okWrites == 0 {
		return 0, errors.New("connection reset by peer")
	}
	w.okWrites--
	return w.body.Write(p)
}

// abandonableStream yields three fragments, calling onFirst after the first
// one, and reports whether the consumer stopped ranging early.
func abandonableStream(onFirst func(), stopped *bool) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for i, f := range []string{"Alpha ", "is ", "a compound."} {
			if !yield(f, nil) {
				*stopped = true
				return
			}
			if i == 0 {
				onFirst()
			}
		}
	}
}

func TestChatStreamHandler_ClientCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stopped bool
	router, _ := newRouter(t, &MockRagService{OnStream: func(_ context.Context, sessionId, q string) (iter.Seq2[string, error], error) {
		return abandonableStream(cancel, &stopped), nil
	}})

	payload, _ := json.Marshal(api.ChatRequest{Message: "What is Alpha?"})
	req := httptest.NewRequest(http.MethodPost, "/chat/stream", bytes.NewReader(payload)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if !stopped {
		t.Errorf("handler kept ranging over the stream after the client went away")
	}
	body := rec.Body.String()
	if strings.Count(body, "event: token") != 1 {
		t.Errorf("expected only the first token before cancellation, body: %q", body)
	}
	if strings.Contains(body, "event: done") {
		t.Errorf("done event written for an abandoned stream, body: %q", body)
	}
}

func TestChatStreamHandler_WriteFails(t *testing.T) {
	var stopped bool
	router, _ := newRouter(t, &MockRagService{OnStream: func(_ context.Context, sessionId, q string) (iter.Seq2[string, error], error) {
		return abandonableStream(func() {}, &stopped), nil
	}})

	payload, _ := json.Marshal(api.ChatRequest{Message: "What is Alpha?"})
	req := httptest.NewRequest(http.MethodPost, "/chat/stream", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := &brokenConnWriter{header: http.Header{}, okWrites: 1}
	router.ServeHTTP(w, req)

	if !stopped {
		t.Errorf("handler kept ranging over the stream after a failed write")
	}
	body := w.body.String()
	if body != "event: token\ndata: {\"text\":\"Alpha \"}\n\n" {
		t.Errorf("unexpected body %q", body)
	}
}

func TestChatStreamHandler_LogFailureBeforeStream(t *testing.T) {
	router, _ := newRouter(t, &MockRagService{OnStream: func(ctx context.Context, sessionId, q string) (iter.Seq2[string, error], error) {
		return nil, ragErrors.Log(errors.New("redis"), "append failed")
	}})

	rec := postJSON(router, "/chat/stream", api.ChatRequest{Message: "What is Alpha?"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestUploadHandler(t *testing.T) {
	var gotName string
	var gotData []byte
	router, _ := newRouter(t, &MockRagService{OnIngest: func(ctx context.Context, data []byte, filename string) (int, error) {
		gotName, gotData = filename, data
		if strings.HasSuffix(filename, ".png") {
			return 0, ragErrors.Extraction(nil, "unsupported document type")
		}
		return 4, nil
	}})

	body, contentType := multipartBody(t, "file", "leaflet.txt", []byte("Alpha is a compound."), nil)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var res api.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, api.UploadResponse{Filename: "leaflet.txt", Size: 20, ChunkCount: 4, Message: "File indexed successfully"}, res)
	assert.Equal(t, "leaflet.txt", gotName)
	assert.Equal(t, "Alpha is a compound.", string(gotData))

	body, contentType = multipartBody(t, "file", "scan.png", []byte{0x89}, nil)
	req = httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIngestAndStatus(t *testing.T) {
	router, jobs := newRouter(t, &MockRagService{})

	body, contentType := multipartBody(t, "document", "leaflet.pdf", []byte("%PDF-1.4"),
		map[string]string{"document_name": "Alpha leaflet"})
	req := httptest.NewRequest(http.MethodPost, "/ingest", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	var initRes api.InitJobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &initRes))
	assert.Equal(t, "status/"+initRes.Id, initRes.StatusURL)

	queued := <-jobs.JobChannel
	assert.Equal(t, initRes.Id, queued.Id)
	assert.Equal(t, "Alpha leaflet.pdf", queued.JobPayload.IngestFileName)
	assert.FileExists(t, queued.JobPayload.IngestURL)
	t.Cleanup(func() { os.Remove(queued.JobPayload.IngestURL) })

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status/"+initRes.Id, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var status api.JobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, string(jobModel.JobStatusQueued), status.Result.Status)
	assert.Nil(t, status.Error)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIngestHandler_RequiresName(t *testing.T) {
	router, _ := newRouter(t, &MockRagService{})
	body, contentType := multipartBody(t, "document", "leaflet.pdf", []byte("%PDF-1.4"), nil)
	req := httptest.NewRequest(http.MethodPost, "/ingest", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryHandler(t *testing.T) {
	var gotLimit int
	router, _ := newRouter(t, &MockRagService{OnHistory: func(ctx context.Context, sessionId string, limit int) ([]chatModel.Message, error) {
		gotLimit = limit
		return []chatModel.Message{
			{SessionId: sessionId, Role: chatModel.RoleUser, Content: "What is Alpha?"},
			{SessionId: sessionId, Role: chatModel.RoleAssistant, Content: "Alpha is a compound."},
		}, nil
	}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/history/s1?limit=10", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, gotLimit)

	var res api.HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "s1", res.SessionId)
	require.Len(t, res.Messages, 2)
	assert.Equal(t, "assistant", res.Messages[1].Role)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/history/s1?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
