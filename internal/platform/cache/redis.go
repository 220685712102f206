package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"library_api/internal/platform/config"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when no entry exists for the key.
var ErrMiss = errors.New("cache miss")

// DenyKey namespaces sign-out denylist entries.
func DenyKey(accessToken string) string {
	return "expiredToken:" + accessToken
}

// TokenStore is the session-token invalidation registry. It is constructed
// in main and injected; losing it degrades to "not invalidated" (tokens
// then live until natural expiry), never to granting extra access.
type TokenStore interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Close() error
}

type redisTokenStore struct {
	client *redis.Client
}

func NewRedisTokenStore() TokenStore {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisDB,
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("Could not connect to Redis: %v", err)
	}
	fmt.Println("Successfully connected to Redis!")

	return &redisTokenStore{client: client}
}

// Set stores the entry only if absent, so the first sign-out wins and the
// original TTL is never extended.
func (s *redisTokenStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.client.SetNX(ctx, key, value, ttl).Err()
}

func (s *redisTokenStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrMiss
		}
		return "", err
	}
	return val, nil
}

func (s *redisTokenStore) Close() error {
	err := s.client.Close()
	fmt.Println("Redis connection closed.")
	return err
}
