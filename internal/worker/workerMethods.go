package worker

import (
	"context"
	"time"

	"github.com/akolanti/pharmadoc/internal/domain/jobModel"
	"github.com/akolanti/pharmadoc/internal/metrics"
	"github.com/akolanti/pharmadoc/pkg/logger_i"
)

func (p *Pool) executeJob(job jobModel.Job) {
	start := time.Now()
	defer func() {
		metrics.CaptureJobMetrics("ingest_job", string(job.Status), time.Since(start))
	}()

	ctx, cancel := context.WithTimeout(logger_i.WithTraceID(context.Background(), job.TraceId), p.JobTimeout)
	defer cancel()
	log := p.logger.FromContext(ctx).With("jobId", job.Id)
	log.Debug("Processing job")

	job.Status = jobModel.JobStatusRunning
	p.saveJobState(ctx, job, log)

	job = p.ingester.IngestDocument(ctx, job)

	job.EndTime = time.Now()
	if job.Status == jobModel.JobStatusRunning {
		job.Status = jobModel.JobStatusComplete
	}
	p.saveJobState(ctx, job, log)
	log.Info("Job finished", "status", job.Status, "chunks", job.JobPayload.ChunkCount)
}

func (p *Pool) saveJobState(ctx context.Context, job jobModel.Job, log *logger_i.Logger) {
	// the final state must be stored even when the job ran out of time
	if err := p.jobService.JobStore.SaveJob(context.WithoutCancel(ctx), job); err != nil {
		log.Error("Failed to update job state", "status", job.Status, "error", err)
	}
}
