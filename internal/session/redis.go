package session

import (
	"context"
	"fmt"
	"time"

	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/phagocyte/substrate/internal/perrors"
)

// RedisStore persists session Documents in Redis, one key per session
// id plus a rolling tick-stamped history key. Adapted from the
// teacher's internal/state/redis.go SaveGraphSnapshot/LoadGraphSnapshot
// pair, narrowed to this package's Document shape.
type RedisStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisStore dials addr/db and verifies the connection with a short
// ping, mirroring the teacher's connect-and-verify constructor.
func NewRedisStore(addr string, db int, logger *zap.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to redis for session storage", zap.String("addr", addr))
	return &RedisStore{client: client, logger: logger}, nil
}

func sessionKey(id string) string  { return "substrate:session:" + id }
func historyKey(id string, tick uint64) string {
	return fmt.Sprintf("substrate:session:%s:tick:%d", id, tick)
}

// SaveSession stores doc under its session id, plus a 24h history
// snapshot keyed by tick so a caller can diff checkpoints without
// overwriting the latest one.
func (rs *RedisStore) SaveSession(id string, doc Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return perrors.WrapSaveFailed(id, err)
	}
	ctx := context.Background()
	if err := rs.client.Set(ctx, sessionKey(id), data, 0).Err(); err != nil {
		return perrors.WrapSaveFailed(id, err)
	}
	if err := rs.client.Set(ctx, historyKey(id, doc.Metadata.Tick), data, 24*time.Hour).Err(); err != nil {
		rs.logger.Warn("failed to store session history snapshot", zap.String("session_id", id), zap.Error(err))
	}
	return nil
}

// LoadSession fetches the latest document stored under id.
func (rs *RedisStore) LoadSession(id string) (Document, error) {
	ctx := context.Background()
	data, err := rs.client.Get(ctx, sessionKey(id)).Bytes()
	if err == redis.Nil {
		return Document{}, perrors.WrapLoadFailed(id, fmt.Errorf("no session found"))
	} else if err != nil {
		return Document{}, perrors.WrapLoadFailed(id, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, perrors.WrapLoadFailed(id, err)
	}
	return doc, nil
}

// Close releases the underlying Redis connection.
func (rs *RedisStore) Close() error {
	return rs.client.Close()
}
