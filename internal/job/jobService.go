package job

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"

	"github.com/akolanti/pharmadoc/internal/config"
	"github.com/akolanti/pharmadoc/internal/domain/jobModel"
	"github.com/akolanti/pharmadoc/internal/metrics"
	"github.com/akolanti/pharmadoc/pkg/logger_i"
)

// Service queues ingestion jobs for the worker pool and answers status lookups.
type Service struct {
	JobChannel        chan jobModel.Job
	RequestCount      int64
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
	logger            *logger_i.Logger
}

type ServiceConfig struct {
	JobChannel        chan jobModel.Job
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
}

func InitJobService(cfg ServiceConfig) *Service {
	if cfg.JobChannel == nil {
		cfg.JobChannel = make(chan jobModel.Job, config.BufferLimit)
	}
	if cfg.DispatcherChannel == nil {
		cfg.DispatcherChannel = make(chan bool, 1)
	}
	return &Service{
		JobChannel:        cfg.JobChannel,
		DispatcherChannel: cfg.DispatcherChannel,
		JobStore:          cfg.JobStore,
		logger:            logger_i.NewLogger("JobService"),
	}
}

// SubmitIngest records a queued job for the uploaded file at path and hands it
// to the workers. It blocks while the queue is full, unless ctx ends first.
func (s *Service) SubmitIngest(ctx context.Context, documentName, path string) (jobModel.Job, error) {
	log := s.logger.FromContext(ctx)

	newJob := jobModel.Job{
		Id:          uuid.NewString(),
		TraceId:     logger_i.TraceID(ctx),
		CreatedTime: time.Now(),
		Status:      jobModel.JobStatusQueued,
		CurrentStep: jobModel.IngestInit,
		JobPayload: jobModel.JobPayload{
			IngestFileName: documentName,
			IngestURL:      path,
		},
	}
	if err := s.JobStore.SaveJob(ctx, newJob); err != nil {
		return jobModel.Job{}, goerr.Wrap(err, "failed to save queued job", goerr.V("jobId", newJob.Id))
	}

	select {
	case s.JobChannel <- newJob:
	case <-ctx.Done():
		s.JobStore.DeleteJob(context.WithoutCancel(ctx), newJob.Id)
		return jobModel.Job{}, goerr.Wrap(ctx.Err(), "job queue is full", goerr.V("jobId", newJob.Id))
	}
	metrics.IncrementJobsInQueue()
	log.Info("Created new job", "jobId", newJob.Id, "document", documentName)

	// ingestion makes slow external calls, so every ingest job asks for a worker;
	// idle workers retire on their own
	count := atomic.AddInt64(&s.RequestCount, 1)
	metrics.StartDispatcherSignalCount()
	log.Debug("Signal dispatcher", "requestCount", count)
	select {
	case s.DispatcherChannel <- true:
	default:
		// a signal is already pending
	}
	return newJob, nil
}

func (s *Service) GetJob(ctx context.Context, id string) (jobModel.Job, bool) {
	if id == "" {
		return jobModel.Job{}, false
	}
	return s.JobStore.GetJob(ctx, id)
}
