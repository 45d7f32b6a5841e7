package gameconfig

//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abrezinsky/quizattack/internal/repository"
)

// ErrNotFound is returned by a Store when no blob exists under the key
var ErrNotFound = repository.ErrNotFound

// Store keeps serialized game configs by key
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, blob []byte) error
	Delete(ctx context.Context, key string) error
}

// RedisStore keeps config blobs in redis with an expiry
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a RedisStore. A zero ttl keeps blobs forever.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	blob, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return blob, err
}

func (s *RedisStore) Put(ctx context.Context, key string, blob []byte) error {
	return s.client.Set(ctx, key, blob, s.ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// BlobStore adapts the sqlite blob table to Store
type BlobStore struct {
	repo repository.BlobRepository
}

var _ Store = (*BlobStore)(nil)

func NewBlobStore(repo repository.BlobRepository) *BlobStore {
	return &BlobStore{repo: repo}
}

func (s *BlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	return s.repo.GetBlob(ctx, key)
}

func (s *BlobStore) Put(ctx context.Context, key string, blob []byte) error {
	return s.repo.PutBlob(ctx, key, blob)
}

func (s *BlobStore) Delete(ctx context.Context, key string) error {
	return s.repo.DeleteBlob(ctx, key)
}
