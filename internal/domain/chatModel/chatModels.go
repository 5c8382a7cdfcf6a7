package chatModel

import (
	"context"
	"time"

	"github.com/akolanti/pharmadoc/internal/domain/commonModels"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message is created once and never mutated.
type Message struct {
	SessionId string    `json:"session_id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type Source struct {
	Source     string  `json:"source"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float32 `json:"score"`
}

// Answer.Context[i] was produced from Sources[i].
type Answer struct {
	Response string   `json:"response"`
	Context  []string `json:"context"`
	Sources  []Source `json:"sources,omitempty"`
}

func NewAnswer(response string, retrieved []commonModels.RetrievedChunk) Answer {
	ans := Answer{
		Response: response,
		Context:  make([]string, 0, len(retrieved)),
		Sources:  make([]Source, 0, len(retrieved)),
	}
	for _, r := range retrieved {
		ans.Context = append(ans.Context, r.Text)
		ans.Sources = append(ans.Sources, Source{Source: r.Source, ChunkIndex: r.ChunkIndex, Score: r.Score})
	}
	return ans
}

// ConversationLog is an append-only, per-session message log.
// Append returns only after the message is persisted. List returns the oldest
// messages first, at most limit of them.
type ConversationLog interface {
	Append(ctx context.Context, sessionId string, role Role, content string) (Message, error)
	List(ctx context.Context, sessionId string, limit int) ([]Message, error)
	Close() error
}
