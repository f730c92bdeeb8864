// Package cache caché de existencias, artículos y listados frente a las bases de sucursal.
// El almacén subyacente es Redis cuando está configurado o LRU con expiración en el proceso.
package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

// Store almacén clave-valor con TTL por entrada.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// RedisStore Store sobre go-redis.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore envuelve un cliente ya creado.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

// DeletePrefix recorre el keyspace con SCAN (no KEYS) y borra en lotes.
func (s *RedisStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, prefix+"*", 500).Result()
		if err != nil {
			return deleted, err
		}
		if len(keys) > 0 {
			n, err := s.client.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, err
			}
			deleted += int(n)
		}
		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}

// MemoryStore Store en proceso: un LRU con expiración por cada TTL usado.
type MemoryStore struct {
	size int

	mu   sync.Mutex
	lrus map[time.Duration]*expirable.LRU[string, []byte]
}

// NewMemoryStore crea el almacén; size es el máximo de entradas por clase de TTL.
func NewMemoryStore(size int) *MemoryStore {
	if size <= 0 {
		size = 10000
	}
	return &MemoryStore{size: size, lrus: make(map[time.Duration]*expirable.LRU[string, []byte])}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	for _, l := range s.all() {
		if v, ok := l.Get(key); ok {
			return v, true, nil
		}
	}
	return nil, false, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	all := s.all()
	target := s.forTTL(ttl)
	for _, l := range all {
		if l != target {
			l.Remove(key)
		}
	}
	target.Add(key, value)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	for _, l := range s.all() {
		for _, k := range keys {
			l.Remove(k)
		}
	}
	return nil
}

func (s *MemoryStore) DeletePrefix(_ context.Context, prefix string) (int, error) {
	deleted := 0
	for _, l := range s.all() {
		for _, k := range l.Keys() {
			if strings.HasPrefix(k, prefix) && l.Remove(k) {
				deleted++
			}
		}
	}
	return deleted, nil
}

func (s *MemoryStore) forTTL(ttl time.Duration) *expirable.LRU[string, []byte] {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lrus[ttl]
	if !ok {
		l = expirable.NewLRU[string, []byte](s.size, nil, ttl)
		s.lrus[ttl] = l
	}
	return l
}

func (s *MemoryStore) all() []*expirable.LRU[string, []byte] {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*expirable.LRU[string, []byte], 0, len(s.lrus))
	for _, l := range s.lrus {
		out = append(out, l)
	}
	return out
}
