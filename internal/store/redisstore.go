package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"cloudtab/internal/domain/session"
	cloudtab_errors "cloudtab/pkg/errors"
)

const redisKeyPrefix = "cloudtab:session:"

// expiryGrace keeps expired records physically readable for a while past
// their logical expiry, so the self-healing read and the sweeper can still
// find which ciphertext files need erasing. The logical expiresAt is what
// callers enforce.
const expiryGrace = time.Hour

// RedisStore keeps session records as JSON values in Redis.
type RedisStore struct {
	client *goredis.Client
}

func NewRedisStore(client *goredis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Put(ctx context.Context, sess *session.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	ok, err := s.client.SetNX(ctx, redisKeyPrefix+sess.Code, data, ttlFor(sess)).Result()
	if err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	if !ok {
		return cloudtab_errors.ErrAlreadyExists
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, code string) (session.Session, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+code).Result()
	if err == goredis.Nil {
		return session.Session{}, cloudtab_errors.ErrSessionNotFound
	}
	if err != nil {
		return session.Session{}, fmt.Errorf("load session: %w", err)
	}
	var sess session.Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return session.Session{}, fmt.Errorf("decode session: %w", err)
	}
	return sess, nil
}

func (s *RedisStore) Save(ctx context.Context, sess session.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+sess.Code, data, ttlFor(&sess)).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, code string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+code).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *RedisStore) ListCodes(ctx context.Context) ([]string, error) {
	var codes []string
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		code := strings.TrimPrefix(iter.Val(), redisKeyPrefix)
		if ValidCode(code) {
			codes = append(codes, code)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan sessions: %w", err)
	}
	return codes, nil
}

func ttlFor(sess *session.Session) time.Duration {
	ttl := time.Until(sess.ExpiresAt) + expiryGrace
	if ttl < expiryGrace {
		ttl = expiryGrace
	}
	return ttl
}
