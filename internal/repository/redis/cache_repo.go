package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/yourusername/jlpt-api/internal/domain/repository"
	apperrors "github.com/yourusername/jlpt-api/internal/pkg/errors"
)

var _ repository.CacheRepository = (*CacheRepo)(nil)

// CacheRepo реализует repository.CacheRepository
type CacheRepo struct {
	client redis.UniversalClient
	prefix string
}

// NewCacheRepo создает новый репозиторий кеша. Все ключи получают префикс prefix.
func NewCacheRepo(client redis.UniversalClient, prefix string) (*CacheRepo, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil for CacheRepo")
	}
	return &CacheRepo{client: client, prefix: prefix}, nil
}

func (r *CacheRepo) key(k string) string {
	return r.prefix + k
}

// SetJSON сохраняет структуру JSON в кеше
func (r *CacheRepo) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(key), data, expiration).Err()
}

// GetJSON получает структуру JSON из кеша
func (r *CacheRepo) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return apperrors.ErrNotFound
		}
		return err
	}
	return json.Unmarshal(data, dest)
}

// IncrementWindow увеличивает счетчик окна и возвращает его значение и оставшееся время жизни.
// TTL ставится при первом инкременте в окне.
func (r *CacheRepo) IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	k := r.key(key)
	count, err := r.client.Incr(ctx, k).Result()
	if err != nil {
		return 0, 0, err
	}
	if count == 1 {
		if err := r.client.Expire(ctx, k, window).Err(); err != nil {
			return count, window, err
		}
		return count, window, nil
	}
	ttl, err := r.client.TTL(ctx, k).Result()
	if err != nil || ttl < 0 {
		// Ключ без TTL (сбой после INCR) чиним, чтобы лимит не стал вечным
		_ = r.client.Expire(ctx, k, window).Err()
		return count, window, nil
	}
	return count, ttl, nil
}
