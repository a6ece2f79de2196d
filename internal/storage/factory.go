package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/annel0/chase-arena/internal/config"
	"github.com/annel0/chase-arena/internal/logging"
)

// OpenPositions выбирает бэкенд позиций по конфигурации.
// Если внешний бэкенд недоступен, используется память.
func OpenPositions(ctx context.Context, cfg config.StorageConfig) PositionRepo {
	log := logging.GetStorageLogger()
	switch cfg.Positions {
	case "redis":
		repo, err := NewRedisPositionRepo(ctx, RedisConfig{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
			TTL:       time.Duration(cfg.Redis.TTLSeconds) * time.Second,
		})
		if err == nil {
			return repo
		}
		log.Warn("⚠️ Redis недоступен, позиции хранятся в памяти: %v", err)
	case "maria", "mysql":
		repo, err := NewMariaPositionRepo(ctx, cfg.MariaDSN)
		if err == nil {
			log.Info("🗄️ Позиции сохраняются в MariaDB")
			return repo
		}
		log.Warn("⚠️ MariaDB недоступна, позиции хранятся в памяти: %v", err)
	case "", "memory":
	default:
		log.Warn("Неизвестный бэкенд позиций %q, используется память", cfg.Positions)
	}
	return NewMemoryPositionRepo()
}

// OpenResults выбирает хранилище итогов. В отличие от позиций, ошибка
// открытия Badger возвращается: это локальный диск, и молча терять итоги нельзя.
func OpenResults(ctx context.Context, cfg config.StorageConfig) (ResultStore, error) {
	log := logging.GetStorageLogger()
	switch cfg.Results {
	case "badger":
		path := cfg.BadgerPath
		if path == "" {
			path = "data"
		}
		store, err := NewBadgerResultStore(path)
		if err != nil {
			return nil, fmt.Errorf("open result store: %w", err)
		}
		log.Info("🗄️ Итоги сохраняются в BadgerDB (%s)", path)
		return store, nil
	case "mongo":
		store, err := NewMongoResultStore(ctx, MongoConfig{URI: cfg.MongoURI, Database: cfg.MongoDatabase})
		if err == nil {
			log.Info("🗄️ Итоги сохраняются в MongoDB")
			return store, nil
		}
		log.Warn("⚠️ MongoDB недоступна, итоги хранятся в памяти: %v", err)
	case "", "memory":
	default:
		log.Warn("Неизвестное хранилище итогов %q, используется память", cfg.Results)
	}
	return NewMemoryResultStore(), nil
}
