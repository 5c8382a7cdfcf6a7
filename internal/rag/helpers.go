package rag

import (
	"context"

	"github.com/akolanti/pharmadoc/internal/domain/chatModel"
	"github.com/akolanti/pharmadoc/internal/domain/jobModel"
	"github.com/akolanti/pharmadoc/internal/domain/ragErrors"
	"github.com/akolanti/pharmadoc/internal/metrics"
	"github.com/akolanti/pharmadoc/pkg/logger_i"
)

func returnOutput(job jobModel.Job, chunkCount int) jobModel.Job {
	job.JobPayload.ChunkCount = chunkCount
	job.CurrentStep = jobModel.Complete
	job.Status = jobModel.JobStatusComplete
	return job
}

func logOutput(job jobModel.Job, status jobModel.InternalStatus, log *logger_i.Logger) jobModel.Job {
	job.CurrentStep = status
	log.Debug("IngestDocument", "Current Status", job.CurrentStep)
	return job
}

func (s *service) jobError(job jobModel.Job, err error, message string, log *logger_i.Logger) jobModel.Job {
	log.Error(message, "error", err, "kind", ragErrors.Kind(err))

	job.Error = jobModel.JobError{
		Code:    ragErrors.StatusCode(err),
		Message: message,
		Retry:   ragErrors.Retryable(err),
	}
	if kind := ragErrors.Kind(err); kind != "" {
		job.Error.Message = message + ": " + kind
	}
	job.CurrentStep = jobModel.Error
	job.Status = jobModel.JobStatusError
	return job
}

func (s *service) appendMessage(ctx context.Context, sessionId string, role chatModel.Role, content string) (chatModel.Message, error) {
	stop := metrics.Track(metrics.StepLogAppend)
	msg, err := s.log.Append(ctx, sessionId, role, content)
	stop()
	if err != nil {
		metrics.IncrementLogFailures(string(role))
		s.logger.FromContext(ctx).Error("conversation log append failed", "sessionId", sessionId, "role", role, "error", err)
		return chatModel.Message{}, ragErrors.Log(err, "conversation log append failed")
	}
	return msg, nil
}

func statusLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if kind := ragErrors.Kind(err); kind != "" {
		return kind
	}
	return "error"
}
