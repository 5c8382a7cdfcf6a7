package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/akolanti/pharmadoc/internal/data/redisStore"
	"github.com/akolanti/pharmadoc/internal/domain/chatModel"
	"github.com/akolanti/pharmadoc/internal/domain/ragErrors"
	"github.com/akolanti/pharmadoc/pkg/logger_i"
)

// RedisConversationLog keeps one redis list per session, appended with RPUSH.
type RedisConversationLog struct {
	store  *redisStore.Store
	logger *logger_i.Logger
	now    func() time.Time
}

var _ chatModel.ConversationLog = (*RedisConversationLog)(nil)

func NewRedisConversationLog(store *redisStore.Store) *RedisConversationLog {
	return &RedisConversationLog{
		store:  store,
		logger: logger_i.NewLogger("MessageStore"),
		now:    time.Now,
	}
}

func sessionKey(sessionId string) string { return "chat:" + sessionId }

func (s *RedisConversationLog) Append(ctx context.Context, sessionId string, role chatModel.Role, content string) (chatModel.Message, error) {
	if err := validateAppend(sessionId, role); err != nil {
		return chatModel.Message{}, err
	}
	log := s.logger.FromContext(ctx).With("sessionId", sessionId)

	msg := chatModel.Message{SessionId: sessionId, Role: role, Content: content, CreatedAt: s.now().UTC()}
	data, err := json.Marshal(msg)
	if err != nil {
		return chatModel.Message{}, ragErrors.Log(err, "marshalling message")
	}
	if err := s.store.ListPush(ctx, sessionKey(sessionId), data); err != nil {
		log.Error("error saving message", "error", err, "role", role)
		return chatModel.Message{}, ragErrors.Log(err, "saving message", goerr.V("sessionId", sessionId))
	}
	log.Debug("Saved message", "role", role)
	return msg, nil
}

func (s *RedisConversationLog) List(ctx context.Context, sessionId string, limit int) ([]chatModel.Message, error) {
	log := s.logger.FromContext(ctx).With("sessionId", sessionId)
	res, err := s.store.ListHead(ctx, sessionKey(sessionId), int64(historyLimit(limit)))
	if err != nil {
		log.Error("Error getting history", "error", err)
		return nil, ragErrors.Log(err, "reading history", goerr.V("sessionId", sessionId))
	}

	out := make([]chatModel.Message, 0, len(res))
	for _, raw := range res {
		var msg chatModel.Message
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			return nil, ragErrors.Log(err, "corrupt message in history", goerr.V("sessionId", sessionId))
		}
		out = append(out, msg)
	}
	return out, nil
}

func (s *RedisConversationLog) Close() error {
	return s.store.Close()
}
