package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/annel0/chase-arena/internal/vec"
)

// ErrNotFound возвращается, когда запись отсутствует.
var ErrNotFound = errors.New("not found")

// AgentPosition - снимок положения персонажа сессии.
// Ключ записи - пара (SessionID, Kind).
type AgentPosition struct {
	SessionID string        `json:"session_id"`
	Kind      string        `json:"kind"`
	Position  vec.Vec3Float `json:"position"`
	Yaw       float64       `json:"yaw"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// PositionRepo определяет интерфейс для сохранения и загрузки позиций персонажей.
// Позиции пишутся автосохранением менеджера сессий и читаются при просмотре
// завершённых партий.
type PositionRepo interface {
	// Save сохраняет одну позицию.
	Save(ctx context.Context, pos AgentPosition) error

	// Load возвращает позицию; found = false, если записи нет.
	Load(ctx context.Context, sessionID, kind string) (pos AgentPosition, found bool, err error)

	// Delete удаляет все позиции сессии.
	Delete(ctx context.Context, sessionID string) error

	// BatchSave сохраняет несколько позиций одновременно (для автосохранения).
	BatchSave(ctx context.Context, positions []AgentPosition) error

	Close() error
}

// validate проверяет запись перед сохранением
func (p AgentPosition) validate() error {
	if p.SessionID == "" {
		return fmt.Errorf("пустой sessionID")
	}
	if p.Kind == "" {
		return fmt.Errorf("пустой kind для сессии %s", p.SessionID)
	}
	for _, c := range []float64{p.Position.X, p.Position.Y, p.Position.Z, p.Yaw} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("недействительная позиция для %s/%s: %+v", p.SessionID, p.Kind, p.Position)
		}
	}
	return nil
}

func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
