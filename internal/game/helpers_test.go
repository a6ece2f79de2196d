package game

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/annel0/chase-arena/internal/anim"
	"github.com/annel0/chase-arena/internal/assets"
	"github.com/annel0/chase-arena/internal/entity"
	"github.com/annel0/chase-arena/internal/physics"
	"github.com/annel0/chase-arena/internal/vec"
	"github.com/annel0/chase-arena/internal/world"
)

type countingNotifier struct {
	wins, loses int
}

func (n *countingNotifier) ShowWin()  { n.wins++ }
func (n *countingNotifier) ShowLose() { n.loses++ }

func bareArena(walls ...world.Obstacle) *world.Arena {
	return world.NewArena(walls, world.ArenaConfig{GridCellSize: 8}, physics.DefaultProbeConfig())
}

// newState builds a started state with a loaded player and no enemy.
func newState(t *testing.T, mode Mode, walls ...world.Obstacle) (*GameState, *countingNotifier) {
	t.Helper()
	n := &countingNotifier{}
	s := NewGameState(mode, bareArena(walls...), DefaultTuning(), n)
	s.Started = true
	s.Player = entity.NewAgent(playerID, entity.KindPlayer, vec.Zero, s.Tuning.MoveSpeed)
	s.Player.BindWalk(anim.Clip{Name: "walk", Duration: time.Second})
	return s, n
}

func addEnemy(s *GameState, pos vec.Vec3Float) *entity.Agent {
	e := entity.NewAgent(enemyID, entity.KindEnemy, pos, s.Tuning.EnemySpeed)
	e.BindWalk(anim.Clip{Name: EnemyWalkClip, Duration: 800 * time.Millisecond})
	e.BindBite(anim.Clip{Name: EnemyBiteClip, Duration: 1200 * time.Millisecond}, s.Tuning.BiteLoop)
	s.Enemy = e
	return e
}

// stubLoader resolves handles synchronously.
type stubLoader struct {
	models map[string]*assets.Model
}

func newStubLoader() *stubLoader {
	return &stubLoader{models: map[string]*assets.Model{
		"models/map.glb":  {Path: "models/map.glb", Root: "Map"},
		"models/wolf.glb": {Path: "models/wolf.glb", Root: "Wolf", Clips: []anim.Clip{{Name: "walk", Duration: time.Second}}},
		"models/enemy.glb": {Path: "models/enemy.glb", Root: "Enemy", Clips: []anim.Clip{
			{Name: EnemyWalkClip, Duration: 800 * time.Millisecond},
			{Name: EnemyBiteClip, Duration: 1200 * time.Millisecond},
		}},
		"models/goal.glb": {Path: "models/goal.glb", Root: "Goal", Clips: []anim.Clip{{Name: "idle", Duration: 2 * time.Second}}},
	}}
}

func (l *stubLoader) LoadModel(ctx context.Context, path string) *assets.Handle[*assets.Model] {
	if m, ok := l.models[path]; ok {
		return assets.Resolved(m)
	}
	return assets.Rejected[*assets.Model](assets.ErrUnknownAsset)
}

func (l *stubLoader) LoadTexture(ctx context.Context, path string) *assets.Handle[*assets.Texture] {
	return assets.Resolved(&assets.Texture{Path: path})
}

func requireLoaded(t *testing.T, s *Session) {
	t.Helper()
	s.Tick(time.Second / 60)
	s.WithState(func(st *GameState) {
		require.NotNil(t, st.Player)
		require.NotNil(t, st.Goal)
	})
}
