package storage

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/chase-arena/internal/config"
	"github.com/annel0/chase-arena/internal/logging"
	"github.com/annel0/chase-arena/internal/vec"
)

// TestMemoryPositionRepo тестирует in-memory репозиторий позиций
func TestMemoryPositionRepo(t *testing.T) {
	repo := NewMemoryPositionRepo()
	ctx := context.Background()

	t.Run("Save and Load", func(t *testing.T) {
		expected := AgentPosition{SessionID: "s1", Kind: "player", Position: vec.NewVec3(10, 0, -3), Yaw: 0.5}
		require.NoError(t, repo.Save(ctx, expected))

		actual, found, err := repo.Load(ctx, "s1", "player")
		require.NoError(t, err)
		require.True(t, found, "Позиция не найдена")
		assert.Equal(t, expected, actual)
	})

	t.Run("Load Missing", func(t *testing.T) {
		pos, found, err := repo.Load(ctx, "s1", "enemy")
		require.NoError(t, err)
		assert.False(t, found)
		assert.Equal(t, AgentPosition{}, pos)
	})

	t.Run("Delete Session", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, AgentPosition{SessionID: "s2", Kind: "player"}))
		require.NoError(t, repo.Save(ctx, AgentPosition{SessionID: "s2", Kind: "enemy"}))

		require.NoError(t, repo.Delete(ctx, "s2"))
		_, found, _ := repo.Load(ctx, "s2", "enemy")
		assert.False(t, found)

		err := repo.Delete(ctx, "s2")
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("BatchSave", func(t *testing.T) {
		batch := []AgentPosition{
			{SessionID: "b", Kind: "player", Position: vec.NewVec3(1, 0, 1)},
			{SessionID: "b", Kind: "enemy", Position: vec.NewVec3(2, 0, 2)},
		}
		require.NoError(t, repo.BatchSave(ctx, batch))
		enemy, found, err := repo.Load(ctx, "b", "enemy")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, 2.0, enemy.Position.X)
	})

	t.Run("Validation", func(t *testing.T) {
		assert.Error(t, repo.Save(ctx, AgentPosition{Kind: "player"}), "пустой sessionID")
		assert.Error(t, repo.Save(ctx, AgentPosition{SessionID: "x"}), "пустой kind")
		assert.Error(t, repo.Save(ctx, AgentPosition{SessionID: "x", Kind: "player", Position: vec.NewVec3(math.NaN(), 0, 0)}))

		before := repo.Count()
		err := repo.BatchSave(ctx, []AgentPosition{
			{SessionID: "v", Kind: "player"},
			{SessionID: "", Kind: "enemy"},
		})
		assert.Error(t, err)
		assert.Equal(t, before, repo.Count(), "батч с ошибкой не пишется частично")
	})

	t.Run("Context Cancellation", func(t *testing.T) {
		canceled, cancel := context.WithCancel(context.Background())
		cancel()
		err := repo.Save(canceled, AgentPosition{SessionID: "c", Kind: "player"})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

// TestConcurrentAccess тестирует параллельный доступ к репозиторию
func TestConcurrentAccess(t *testing.T) {
	repo := NewMemoryPositionRepo()
	ctx := context.Background()

	var wg sync.WaitGroup
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				pos := AgentPosition{SessionID: string(rune('a' + g)), Kind: "player", Position: vec.NewVec3(float64(i), 0, 0)}
				assert.NoError(t, repo.Save(ctx, pos))
				_, found, err := repo.Load(ctx, pos.SessionID, "player")
				assert.NoError(t, err)
				assert.True(t, found)
			}
		}(g)
	}
	wg.Wait()
	assert.Equal(t, 10, repo.Count())
}

func TestOpenPositions_FallsBackToMemory(t *testing.T) {
	repo := OpenPositions(context.Background(), config.StorageConfig{Positions: "unknown"})
	_, ok := repo.(*MemoryPositionRepo)
	assert.True(t, ok)
	assert.Contains(t, logging.GetLoggerManager().ListComponents(), "storage", "фабрика пишет в логгер хранилища")
}
