package session

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/PabloPavan/data_explorer/internal/users"
	"github.com/redis/go-redis/v9"
)

const (
	fieldView      = "view"
	fieldCreatedAt = "created_at"
	fieldExpiresAt = "expires_at"
)

// RedisStore keeps each session in a hash so the view can be rewritten on
// every transition without touching the timestamps' encoding.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	p := strings.TrimSpace(prefix)
	if p == "" {
		p = "explorer:session:"
	}
	return &RedisStore{client: client, prefix: p}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

func (s *RedisStore) Save(ctx context.Context, sess Session, ttl time.Duration) error {
	view, err := json.Marshal(sess.View)
	if err != nil {
		return err
	}
	key := s.key(sess.ID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			fieldView, view,
			fieldCreatedAt, sess.CreatedAt.UnixMilli(),
			fieldExpiresAt, sess.ExpiresAt.UnixMilli(),
		)
		pipe.PExpire(ctx, key, ttl)
		return nil
	})
	return err
}

func (s *RedisStore) Load(ctx context.Context, id string) (*Session, error) {
	fields, err := s.client.HGetAll(ctx, s.key(id)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}

	sess := Session{ID: id}
	if err := json.Unmarshal([]byte(fields[fieldView]), &sess.View); err != nil {
		// Unreadable views restart from the defaults instead of dropping the session.
		sess.View = users.DefaultViewState()
	}
	sess.CreatedAt = unixMilli(fields[fieldCreatedAt])
	sess.ExpiresAt = unixMilli(fields[fieldExpiresAt])
	return &sess, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func unixMilli(v string) time.Time {
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
