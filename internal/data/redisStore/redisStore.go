package redisStore

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"

	"github.com/akolanti/pharmadoc/pkg/logger_i"
)

// Store wraps one logical redis database.
type Store struct {
	client *redis.Client
	Type   int
	logger *logger_i.Logger
}

// New connects to addr and selects dbType. The server must answer a ping.
func New(ctx context.Context, addr, password string, dbType int) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:                  addr,
		Password:              password,
		DB:                    dbType,
		ContextTimeoutEnabled: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, goerr.Wrap(err, "redis is offline", goerr.V("addr", addr), goerr.V("db", dbType))
	}

	s := NewFromClient(client)
	s.Type = dbType
	s.logger.Info("Redis store ready", "addr", addr, "db", dbType)
	return s, nil
}

func NewFromClient(client *redis.Client) *Store {
	return &Store{
		client: client,
		logger: logger_i.NewLogger("Redis Store"),
	}
}

func (s *Store) Close() error {
	s.logger.Info("Closing Redis store", "db", s.Type)
	return s.client.Close()
}
