package storage

import (
	"context"
	"fmt"
	"sync"
)

type positionKey struct {
	session string
	kind    string
}

// MemoryPositionRepo реализует PositionRepo в памяти.
// Используется по умолчанию и в тестах.
// ВНИМАНИЕ: Данные теряются при перезапуске сервера!
type MemoryPositionRepo struct {
	mu   sync.RWMutex
	data map[positionKey]AgentPosition
}

// NewMemoryPositionRepo создает новый репозиторий позиций в памяти.
func NewMemoryPositionRepo() *MemoryPositionRepo {
	return &MemoryPositionRepo{
		data: make(map[positionKey]AgentPosition),
	}
}

// Save сохраняет позицию в памяти.
func (r *MemoryPositionRepo) Save(ctx context.Context, pos AgentPosition) error {
	if err := pos.validate(); err != nil {
		return err
	}
	if err := checkContext(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.data[positionKey{pos.SessionID, pos.Kind}] = pos
	return nil
}

// Load загружает позицию из памяти.
func (r *MemoryPositionRepo) Load(ctx context.Context, sessionID, kind string) (AgentPosition, bool, error) {
	if sessionID == "" {
		return AgentPosition{}, false, fmt.Errorf("пустой sessionID")
	}
	if err := checkContext(ctx); err != nil {
		return AgentPosition{}, false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	pos, exists := r.data[positionKey{sessionID, kind}]
	return pos, exists, nil
}

// Delete удаляет все позиции сессии.
func (r *MemoryPositionRepo) Delete(ctx context.Context, sessionID string) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for key := range r.data {
		if key.session == sessionID {
			delete(r.data, key)
			removed++
		}
	}
	if removed == 0 {
		return fmt.Errorf("позиции сессии %s: %w", sessionID, ErrNotFound)
	}
	return nil
}

// BatchSave сохраняет позиции атомарно: при ошибке валидации не пишется ничего.
func (r *MemoryPositionRepo) BatchSave(ctx context.Context, positions []AgentPosition) error {
	if len(positions) == 0 {
		return nil // Нечего сохранять
	}
	if err := checkContext(ctx); err != nil {
		return err
	}
	for _, pos := range positions {
		if err := pos.validate(); err != nil {
			return fmt.Errorf("batch: %w", err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, pos := range positions {
		r.data[positionKey{pos.SessionID, pos.Kind}] = pos
	}
	return nil
}

// Count возвращает количество сохраненных позиций (для отладки).
func (r *MemoryPositionRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data)
}

// Close ничего не делает
func (r *MemoryPositionRepo) Close() error { return nil }
