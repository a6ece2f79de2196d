package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/annel0/chase-arena/internal/logging"
)

// RedisConfig содержит настройки подключения к Redis
type RedisConfig struct {
	Addr      string        // Адрес Redis сервера
	Password  string        // Пароль (пустой если не требуется)
	DB        int           // Номер базы данных
	KeyPrefix string        // Префикс для ключей
	TTL       time.Duration // Время жизни записей
}

// DefaultRedisConfig возвращает конфигурацию по умолчанию
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:      "localhost:6379",
		KeyPrefix: "arena:pos:",
		TTL:       10 * time.Minute,
	}
}

// RedisPositionRepo хранит позиции в Redis: хеш на сессию, поле - вид персонажа.
// Весь хеш живёт TTL с последнего сохранения.
type RedisPositionRepo struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisPositionRepo подключается к Redis и проверяет соединение
func NewRedisPositionRepo(ctx context.Context, cfg RedisConfig) (*RedisPositionRepo, error) {
	def := DefaultRedisConfig()
	if cfg.Addr == "" {
		cfg.Addr = def.Addr
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = def.KeyPrefix
	}
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.GetStorageLogger().Info("🔴 Connected to Redis at %s", cfg.Addr)
	return &RedisPositionRepo{client: client, keyPrefix: cfg.KeyPrefix, ttl: cfg.TTL}, nil
}

func (r *RedisPositionRepo) key(sessionID string) string {
	return r.keyPrefix + sessionID
}

// Save сохраняет позицию
func (r *RedisPositionRepo) Save(ctx context.Context, pos AgentPosition) error {
	return r.BatchSave(ctx, []AgentPosition{pos})
}

// Load получает позицию персонажа
func (r *RedisPositionRepo) Load(ctx context.Context, sessionID, kind string) (AgentPosition, bool, error) {
	data, err := r.client.HGet(ctx, r.key(sessionID), kind).Bytes()
	if errors.Is(err, redis.Nil) {
		return AgentPosition{}, false, nil
	}
	if err != nil {
		return AgentPosition{}, false, fmt.Errorf("failed to get position: %w", err)
	}

	var pos AgentPosition
	if err := json.Unmarshal(data, &pos); err != nil {
		return AgentPosition{}, false, fmt.Errorf("failed to unmarshal position: %w", err)
	}
	return pos, true, nil
}

// Delete удаляет хеш сессии
func (r *RedisPositionRepo) Delete(ctx context.Context, sessionID string) error {
	n, err := r.client.Del(ctx, r.key(sessionID)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete positions: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("позиции сессии %s: %w", sessionID, ErrNotFound)
	}
	return nil
}

// BatchSave записывает позиции одним пайплайном
func (r *RedisPositionRepo) BatchSave(ctx context.Context, positions []AgentPosition) error {
	if len(positions) == 0 {
		return nil
	}

	pipe := r.client.Pipeline()
	touched := make(map[string]struct{})
	for _, pos := range positions {
		if err := pos.validate(); err != nil {
			return err
		}
		data, err := json.Marshal(pos)
		if err != nil {
			return fmt.Errorf("failed to marshal position for %s: %w", pos.SessionID, err)
		}
		key := r.key(pos.SessionID)
		pipe.HSet(ctx, key, pos.Kind, data)
		touched[key] = struct{}{}
	}
	for key := range touched {
		pipe.Expire(ctx, key, r.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to execute batch: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func (r *RedisPositionRepo) Close() error {
	return r.client.Close()
}
