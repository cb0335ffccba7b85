package session

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisArtifactPrefix = "session:artifacts:"

// RedisArtifactStore keeps session artifacts in a redis hash per subject so
// logout can clear them across processes with a single DEL.
type RedisArtifactStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ArtifactStore = (*RedisArtifactStore)(nil)

// NewRedisArtifactStore wraps an existing client. A zero ttl means artifacts
// live until the subject signs out.
func NewRedisArtifactStore(client *redis.Client, ttl time.Duration) *RedisArtifactStore {
	return &RedisArtifactStore{client: client, ttl: ttl}
}

func (r *RedisArtifactStore) key(subjectID string) string {
	return redisArtifactPrefix + subjectID
}

// Put stores an artifact for the subject.
func (r *RedisArtifactStore) Put(ctx context.Context, subjectID, key string, value []byte) error {
	if err := r.client.HSet(ctx, r.key(subjectID), key, value).Err(); err != nil {
		return err
	}

	if r.ttl > 0 {
		return r.client.Expire(ctx, r.key(subjectID), r.ttl).Err()
	}

	return nil
}

// Get retrieves an artifact for the subject.
func (r *RedisArtifactStore) Get(ctx context.Context, subjectID, key string) ([]byte, error) {
	value, err := r.client.HGet(ctx, r.key(subjectID), key).Bytes()
	if err == redis.Nil {
		return nil, ErrArtifactNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Clear drops every artifact for the subject.
func (r *RedisArtifactStore) Clear(ctx context.Context, subjectID string) error {
	return r.client.Del(ctx, r.key(subjectID)).Err()
}
