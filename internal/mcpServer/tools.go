package mcpServer

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/akolanti/pharmadoc/internal/config"
)

type SearchInput struct {
	Query string `json:"query" jsonschema:"the text to look up in the indexed documents"`
	K     int    `json:"k,omitempty" jsonschema:"maximum number of chunks to return (default 3)"`
}

type SearchOutput struct {
	Results []ChunkOutput `json:"results"`
	Count   int           `json:"count"`
}

type ChunkOutput struct {
	Text       string  `json:"text"`
	Source     string  `json:"source"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float32 `json:"score"`
}

type AskInput struct {
	Question  string `json:"question" jsonschema:"the question to answer from the indexed documents"`
	SessionId string `json:"session_id,omitempty" jsonschema:"conversation session id (default: default_session)"`
}

type AskOutput struct {
	Response string        `json:"response"`
	Context  []string      `json:"context"`
	Sources  []ChunkOutput `json:"sources,omitempty"`
}

type HistoryInput struct {
	SessionId string `json:"session_id,omitempty" jsonschema:"conversation session id (default: default_session)"`
	Limit     int    `json:"limit,omitempty" jsonschema:"maximum number of messages, oldest first (default 50)"`
}

type HistoryOutput struct {
	SessionId string          `json:"session_id"`
	Messages  []MessageOutput `json:"messages"`
}

type MessageOutput struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_document",
		Description: "Return the chunks of the uploaded documents most similar to a query",
	}, s.handleSearch)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask_document",
		Description: "Answer a question using only the uploaded documents",
	}, s.handleAsk)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "chat_history",
		Description: "List the messages of a conversation session, oldest first",
	}, s.handleHistory)
}

func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	chunks, err := s.rag.Search(ctx, input.Query, input.K)
	if err != nil {
		return nil, SearchOutput{}, err
	}
	output := SearchOutput{Results: make([]ChunkOutput, len(chunks)), Count: len(chunks)}
	for i, c := range chunks {
		output.Results[i] = ChunkOutput{Text: c.Text, Source: c.Source, ChunkIndex: c.ChunkIndex, Score: c.Score}
	}
	return nil, output, nil
}

func (s *Server) handleAsk(ctx context.Context, _ *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, AskOutput, error) {
	ans, err := s.rag.Chat(ctx, input.SessionId, input.Question)
	if err != nil {
		return nil, AskOutput{}, err
	}
	output := AskOutput{Response: ans.Response, Context: ans.Context}
	if output.Context == nil {
		output.Context = []string{}
	}
	for _, src := range ans.Sources {
		output.Sources = append(output.Sources, ChunkOutput{Source: src.Source, ChunkIndex: src.ChunkIndex, Score: src.Score})
	}
	return nil, output, nil
}

func (s *Server) handleHistory(ctx context.Context, _ *mcp.CallToolRequest, input HistoryInput) (*mcp.CallToolResult, HistoryOutput, error) {
	sessionId := input.SessionId
	if sessionId == "" {
		sessionId = config.DefaultSessionID
	}
	msgs, err := s.rag.History(ctx, sessionId, input.Limit)
	if err != nil {
		return nil, HistoryOutput{}, err
	}
	output := HistoryOutput{SessionId: sessionId, Messages: make([]MessageOutput, len(msgs))}
	for i, m := range msgs {
		output.Messages[i] = MessageOutput{
			Role:      string(m.Role),
			Content:   m.Content,
			CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339Nano),
		}
	}
	return nil, output, nil
}
