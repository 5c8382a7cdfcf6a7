package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/m-mizutani/goerr/v2"
	_ "modernc.org/sqlite"

	"github.com/akolanti/pharmadoc/internal/config"
	"github.com/akolanti/pharmadoc/internal/domain/chatModel"
	"github.com/akolanti/pharmadoc/internal/domain/ragErrors"
	"github.com/akolanti/pharmadoc/pkg/logger_i"
)

const chatHistorySchema = `
CREATE TABLE IF NOT EXISTS chat_history (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chat_history_session ON chat_history(session_id, created_at, id);`

// SQLiteConversationLog is the relational message log.
type SQLiteConversationLog struct {
	db     *sql.DB
	logger *logger_i.Logger
	now    func() time.Time
}

var _ chatModel.ConversationLog = (*SQLiteConversationLog)(nil)

func NewSQLiteConversationLog(ctx context.Context, dataDir string) (*SQLiteConversationLog, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, ragErrors.Log(err, "creating data directory", goerr.V("dir", dataDir))
	}
	path := filepath.Join(dataDir, config.SQLiteChatLogFile)
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)", path, config.SQLiteBusyTimeoutMs)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, ragErrors.Log(err, "opening chat history", goerr.V("path", path))
	}
	if _, err := db.ExecContext(ctx, chatHistorySchema); err != nil {
		db.Close()
		return nil, ragErrors.Log(err, "creating chat history schema", goerr.V("path", path))
	}
	return &SQLiteConversationLog{db: db, logger: logger_i.NewLogger("SQLite MessageStore"), now: time.Now}, nil
}

func (s *SQLiteConversationLog) Append(ctx context.Context, sessionId string, role chatModel.Role, content string) (chatModel.Message, error) {
	if err := validateAppend(sessionId, role); err != nil {
		return chatModel.Message{}, err
	}
	msg := chatModel.Message{SessionId: sessionId, Role: role, Content: content, CreatedAt: s.now().UTC()}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_history (session_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
		msg.SessionId, string(msg.Role), msg.Content, msg.CreatedAt.UnixNano())
	if err != nil {
		s.logger.FromContext(ctx).Error("error saving message", "error", err, "sessionId", sessionId)
		return chatModel.Message{}, ragErrors.Log(err, "saving message", goerr.V("sessionId", sessionId))
	}
	return msg, nil
}

func (s *SQLiteConversationLog) List(ctx context.Context, sessionId string, limit int) ([]chatModel.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, role, content, created_at FROM chat_history
		WHERE session_id = ?
		ORDER BY created_at, id
		LIMIT ?`, sessionId, historyLimit(limit))
	if err != nil {
		return nil, ragErrors.Log(err, "reading history", goerr.V("sessionId", sessionId))
	}
	defer rows.Close()

	out := []chatModel.Message{}
	for rows.Next() {
		var (
			msg     chatModel.Message
			role    string
			created int64
		)
		if err := rows.Scan(&msg.SessionId, &role, &msg.Content, &created); err != nil {
			return nil, ragErrors.Log(err, "scanning message")
		}
		msg.Role = chatModel.Role(role)
		msg.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, ragErrors.Log(err, "iterating history")
	}
	return out, nil
}

func (s *SQLiteConversationLog) Close() error {
	return s.db.Close()
}
