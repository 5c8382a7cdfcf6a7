package store

import (
	"context"
	"sync"
	"time"

	"github.com/akolanti/pharmadoc/internal/domain/chatModel"
)

// InMemoryConversationLog is used when no durable store is reachable.
// Messages are lost on restart.
type InMemoryConversationLog struct {
	chatLock sync.RWMutex
	chatMap  map[string][]chatModel.Message
	now      func() time.Time
}

var _ chatModel.ConversationLog = (*InMemoryConversationLog)(nil)

func NewInMemoryConversationLog() *InMemoryConversationLog {
	return &InMemoryConversationLog{
		chatMap: make(map[string][]chatModel.Message),
		now:     time.Now,
	}
}

func (store *InMemoryConversationLog) Append(ctx context.Context, sessionId string, role chatModel.Role, content string) (chatModel.Message, error) {
	if err := validateAppend(sessionId, role); err != nil {
		return chatModel.Message{}, err
	}
	msg := chatModel.Message{SessionId: sessionId, Role: role, Content: content, CreatedAt: store.now().UTC()}

	store.chatLock.Lock()
	defer store.chatLock.Unlock()
	store.chatMap[sessionId] = append(store.chatMap[sessionId], msg)
	return msg, nil
}

func (store *InMemoryConversationLog) List(ctx context.Context, sessionId string, limit int) ([]chatModel.Message, error) {
	limit = historyLimit(limit)

	store.chatLock.RLock()
	defer store.chatLock.RUnlock()
	msgs := store.chatMap[sessionId]
	n := min(limit, len(msgs))
	out := make([]chatModel.Message, n)
	copy(out, msgs[:n])
	return out, nil
}

func (store *InMemoryConversationLog) Close() error { return nil }
