package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// SessionResult - итог завершённой партии вместе со сжатой записью ввода.
type SessionResult struct {
	SessionID  string        `json:"session_id" bson:"session_id"`
	Mode       string        `json:"mode" bson:"mode"`
	Outcome    string        `json:"outcome" bson:"outcome"`
	Ticks      uint64        `json:"ticks" bson:"ticks"`
	Duration   time.Duration `json:"duration" bson:"duration"`
	FinishedAt time.Time     `json:"finished_at" bson:"finished_at"`
	// Replay - запись replay.Recording, сжатая zstd
	Replay []byte `json:"replay,omitempty" bson:"replay,omitempty"`
}

// ResultStore хранит итоги партий.
type ResultStore interface {
	SaveResult(ctx context.Context, r SessionResult) error
	// LoadResult возвращает ErrNotFound, если партии нет.
	LoadResult(ctx context.Context, sessionID string) (*SessionResult, error)
	// ListResults возвращает последние limit итогов, новые первыми.
	ListResults(ctx context.Context, limit int) ([]SessionResult, error)
	Close() error
}

func (r SessionResult) validate() error {
	if r.SessionID == "" {
		return fmt.Errorf("пустой sessionID")
	}
	if r.Outcome == "" {
		return fmt.Errorf("пустой outcome для сессии %s", r.SessionID)
	}
	return nil
}

// MemoryResultStore хранит итоги в памяти.
type MemoryResultStore struct {
	mu      sync.RWMutex
	results map[string]SessionResult
}

// NewMemoryResultStore создаёт хранилище итогов в памяти
func NewMemoryResultStore() *MemoryResultStore {
	return &MemoryResultStore{results: make(map[string]SessionResult)}
}

func (s *MemoryResultStore) SaveResult(ctx context.Context, r SessionResult) error {
	if err := r.validate(); err != nil {
		return err
	}
	if err := checkContext(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	s.results[r.SessionID] = r
	s.mu.Unlock()
	return nil
}

func (s *MemoryResultStore) LoadResult(ctx context.Context, sessionID string) (*SessionResult, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[sessionID]
	if !ok {
		return nil, fmt.Errorf("итог сессии %s: %w", sessionID, ErrNotFound)
	}
	return &r, nil
}

func (s *MemoryResultStore) ListResults(ctx context.Context, limit int) ([]SessionResult, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]SessionResult, 0, len(s.results))
	for _, r := range s.results {
		out = append(out, r)
	}
	s.mu.RUnlock()
	return newestFirst(out, limit), nil
}

func (s *MemoryResultStore) Close() error { return nil }

// newestFirst сортирует по времени завершения и обрезает до limit (0 - без ограничения)
func newestFirst(results []SessionResult, limit int) []SessionResult {
	sort.Slice(results, func(i, j int) bool {
		return results[i].FinishedAt.After(results[j].FinishedAt)
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}
