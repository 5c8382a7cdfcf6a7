package adapter

import (
	"fmt"

	"github.com/akolanti/pharmadoc/internal/api"
	"github.com/akolanti/pharmadoc/internal/domain/chatModel"
	"github.com/akolanti/pharmadoc/internal/domain/jobModel"
	"github.com/akolanti/pharmadoc/internal/domain/ragErrors"
)

func ToInitJobResponse(id string) api.InitJobResponse {
	return api.InitJobResponse{
		Id:        id,
		StatusURL: fmt.Sprintf("status/%s", id),
	}
}

func ToAPIResponse(job jobModel.Job) api.JobResponse {
	var errorPtr *api.JobOutgoingError
	if job.Error.Message != "" || job.Error.Code != 0 {
		errorPtr = &api.JobOutgoingError{
			Code:    job.Error.Code,
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}

	return api.JobResponse{
		Id:        job.Id,
		StartTime: job.CreatedTime,
		EndTime:   job.EndTime,
		Error:     errorPtr,
		Result: api.Result{
			Status:     string(job.Status),
			Document:   job.JobPayload.IngestFileName,
			ChunkCount: job.JobPayload.ChunkCount,
		},
	}
}

func ToChatResponse(sessionId string, ans chatModel.Answer) api.ChatResponse {
	res := api.ChatResponse{
		SessionId: sessionId,
		Response:  ans.Response,
		Context:   ans.Context,
	}
	if res.Context == nil {
		res.Context = []string{}
	}
	for _, s := range ans.Sources {
		res.Sources = append(res.Sources, api.SourceResponse{Source: s.Source, ChunkIndex: s.ChunkIndex, Score: s.Score})
	}
	return res
}

func ToHistoryResponse(sessionId string, msgs []chatModel.Message) api.HistoryResponse {
	res := api.HistoryResponse{SessionId: sessionId, Messages: make([]api.MessageResponse, 0, len(msgs))}
	for _, m := range msgs {
		res.Messages = append(res.Messages, api.MessageResponse{
			Role:      string(m.Role),
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	return res
}

func BadRequest(message string, code int) api.ErrorResponse {
	return api.ErrorResponse{
		Error: api.JobOutgoingError{Code: code, Message: message},
	}
}

// FromError hides the cause chain; only the taxonomy kind and the outer message leave the service.
func FromError(err error) api.ErrorResponse {
	code := ragErrors.StatusCode(err)
	kind := ragErrors.Kind(err)
	message := "internal error"
	if kind != "" {
		message = kind
	}
	return api.ErrorResponse{
		Error: api.JobOutgoingError{Code: code, Message: message, Retry: ragErrors.Retryable(err)},
		Kind:  kind,
	}
}

func ToErrorEvent(err error) api.ErrorEvent {
	kind := ragErrors.Kind(err)
	if kind == "" {
		kind = "InternalError"
	}
	return api.ErrorEvent{Kind: kind, Message: err.Error()}
}
