package metrics

import (
	"bufio"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Dependency step labels.
const (
	StepExtract       = "extract"
	StepChunk         = "chunk"
	StepEmbedding     = "embedding"
	StepVectorInsert  = "vector_insert"
	StepVectorSearch  = "vector_search"
	StepLLMGeneration = "llm_generation"
	StepLLMStream     = "llm_stream"
	StepLogAppend     = "log_append"
)

var HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "http_requests_total",
	Help: "Total number of requests labelled by path and status",
}, []string{"path", "status"})

var countJobsInQueue = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "count_jobs_in_queue",
	Help: "Number of ingestion jobs in queue",
})

var dispatcherSignalCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "dispatcher_signal_count",
	Help: "How often the dispatcher has signaled to start a worker",
})

var activeWorkerCount = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "active_worker_count",
	Help: "Number of active ingestion workers",
})

var ingestedChunks = promauto.NewCounter(prometheus.CounterOpts{
	Name: "ingested_chunks_total",
	Help: "Chunks written to the vector index",
})

var streamFragments = promauto.NewCounter(prometheus.CounterOpts{
	Name: "stream_fragments_total",
	Help: "Answer fragments forwarded to stream consumers",
})

var logFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "conversation_log_failures_total",
	Help: "Failed conversation log appends labelled by role",
}, []string{"role"})

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "process_request_duration_seconds",
	Help:    "Total time spent in a pipeline operation.",
	Buckets: []float64{.1, .5, 1, 2, 5, 10, 30, 60},
}, []string{"operation", "status"})

var dependencyLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "dependency_latency_seconds",
	Help:    "Latency of pipeline steps and external service calls.",
	Buckets: []float64{.01, .05, .1, .25, .5, 1, 2, 5, 10},
}, []string{"service"})

// HttpStatusRecorder remembers the status code written by a handler.
type HttpStatusRecorder struct {
	http.ResponseWriter
	Status int
}

func NewHttpStatusRecorder(w http.ResponseWriter) *HttpStatusRecorder {
	return &HttpStatusRecorder{ResponseWriter: w, Status: http.StatusOK}
}

func (r *HttpStatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps server-sent events working behind the recorder.
func (r *HttpStatusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *HttpStatusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := r.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}

func (r *HttpStatusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func IncrementJobsInQueue() {
	countJobsInQueue.Inc()
}

func DecrementJobsInQueue() {
	countJobsInQueue.Dec()
}

func StartDispatcherSignalCount() {
	dispatcherSignalCount.Inc()
}

func IncrementActiveWorkerCount() {
	activeWorkerCount.Inc()
}

func DecrementActiveWorkerCount() {
	activeWorkerCount.Dec()
}

func AddIngestedChunks(n int) {
	ingestedChunks.Add(float64(n))
}

func IncrementStreamFragments() {
	streamFragments.Inc()
}

func IncrementLogFailures(role string) {
	logFailures.WithLabelValues(role).Inc()
}

func CaptureExecutionMetrics(label string, timeElapsed time.Duration) {
	dependencyLatency.WithLabelValues(label).Observe(timeElapsed.Seconds())
}

// Track is used as `defer metrics.Track(metrics.StepEmbedding)()`.
func Track(label string) func() {
	start := time.Now()
	return func() { CaptureExecutionMetrics(label, time.Since(start)) }
}

func CaptureJobMetrics(operation, status string, timeElapsed time.Duration) {
	requestDuration.WithLabelValues(operation, status).Observe(timeElapsed.Seconds())
}
