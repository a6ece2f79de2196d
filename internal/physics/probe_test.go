package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/chase-arena/internal/vec"
)

// newTestGrid строит пол 100x100 с верхней гранью на y=0 и одну стену.
func newTestGrid() *Grid {
	g := NewGrid(4)
	g.Insert(NewBox(vec.NewVec3(0, -0.05, 0), 100, 0.1, 100), true, "ground")
	g.Insert(NewBox(vec.NewVec3(0, 2.5, -5), 10, 5, 1), true, "wall")
	return g
}

func TestProbeHorizontal_WallBlocks(t *testing.T) {
	p := NewProber(newTestGrid(), DefaultProbeConfig())

	assert.True(t, p.ProbeHorizontal(vec.NewVec3(0, 0.8, -4), vec.NewVec3(0, 0, -1), 0.7))
	assert.False(t, p.ProbeHorizontal(vec.NewVec3(0, 0.8, -3), vec.NewVec3(0, 0, -1), 0.7))
	assert.False(t, p.ProbeHorizontal(vec.NewVec3(0, 0.8, -4), vec.NewVec3(0, 0, 1), 0.7))
}

func TestProbeHorizontal_FoliageNeverBlocks(t *testing.T) {
	g := NewGrid(4)
	for i := 0; i < 50; i++ {
		g.Insert(NewBox(vec.NewVec3(0, 0.8, -float64(i)*0.1), 0.5, 1, 0.5), false, "foliage")
	}
	p := NewProber(g, DefaultProbeConfig())

	assert.False(t, p.ProbeHorizontal(vec.NewVec3(0, 0.8, 0), vec.NewVec3(0, 0, -1), 10))
}

func TestProbeVertical(t *testing.T) {
	p := NewProber(newTestGrid(), DefaultProbeConfig())
	cfg := p.Config()

	t.Run("at rest", func(t *testing.T) {
		// Агент стоит на y=0, луч стартует с y=1
		assert.InDelta(t, 0.0, p.ProbeVertical(vec.NewVec3(10, 1, 10), 0), 1e-9)
	})

	t.Run("slightly above snaps down", func(t *testing.T) {
		assert.InDelta(t, -0.05, p.ProbeVertical(vec.NewVec3(10, 1.05, 10), 0), 1e-9)
	})

	t.Run("embedded pushes up", func(t *testing.T) {
		assert.InDelta(t, 0.5, p.ProbeVertical(vec.NewVec3(10, 0.5, 10), 0), 1e-9)
	})

	t.Run("high above falls", func(t *testing.T) {
		assert.Equal(t, cfg.Gravity, p.ProbeVertical(vec.NewVec3(10, 3, 10), 0))
	})

	t.Run("no ground falls", func(t *testing.T) {
		assert.Equal(t, cfg.Gravity, p.ProbeVertical(vec.NewVec3(80, 1, 80), 0))
	})

	t.Run("wall top counts as ground", func(t *testing.T) {
		assert.InDelta(t, 0.0, p.ProbeVertical(vec.NewVec3(0, 6, -5), 0), 1e-9)
	})
}

func TestProbeVertical_SnapIsFixedPoint(t *testing.T) {
	p := NewProber(newTestGrid(), DefaultProbeConfig())

	y := 0.05
	for i := 0; i < 3; i++ {
		y += p.ProbeVertical(vec.NewVec3(0, y+1, 10), 0)
	}
	require.InDelta(t, 0.0, y, 1e-9)
}

func TestCast_ReturnsNearest(t *testing.T) {
	g := newTestGrid()
	near := g.Insert(NewBox(vec.NewVec3(0, 2.5, -2), 10, 5, 1), true, "wall")
	p := NewProber(g, DefaultProbeConfig())

	hit, ok := p.Cast(vec.NewVec3(0, 1, 0), vec.NewVec3(0, 0, -1), 20)
	require.True(t, ok)
	assert.Equal(t, near.ID, hit.Collider.ID)
	assert.InDelta(t, 1.5, hit.Distance, 1e-9)
}
