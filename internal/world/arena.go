package world

import (
	"github.com/annel0/chase-arena/internal/logging"
	"github.com/annel0/chase-arena/internal/physics"
	"github.com/annel0/chase-arena/internal/vec"
)

// ArenaConfig controls how the static geometry is assembled.
type ArenaConfig struct {
	FoliageCount  int
	FoliageSeed   int64
	FoliageSpread float64
	GridCellSize  float64
}

// DefaultArenaConfig возвращает конфигурацию по умолчанию
func DefaultArenaConfig() ArenaConfig {
	return ArenaConfig{
		FoliageCount:  2000,
		FoliageSeed:   1,
		FoliageSpread: 90,
		GridCellSize:  8,
	}
}

// Arena is the immutable collision world of one session: ground slab, walls
// and decorative foliage, all behind a grid index.
type Arena struct {
	obstacles []Obstacle
	foliage   []vec.Vec3Float
	grid      *physics.Grid
	prober    *physics.Prober
}

// NewArena builds the geometry. Walls and ground are solid; foliage is not.
func NewArena(obstacles []Obstacle, cfg ArenaConfig, probeCfg physics.ProbeConfig) *Arena {
	grid := physics.NewGrid(cfg.GridCellSize)

	grid.Insert(physics.NewBox(
		vec.NewVec3(0, -GroundThickness/2, 0),
		GroundSize, GroundThickness, GroundSize,
	), true, "ground")

	for _, o := range obstacles {
		grid.Insert(o.Box(), true, "wall")
	}

	var foliage []vec.Vec3Float
	if cfg.FoliageCount > 0 {
		foliage = NewFoliagePlanner(cfg.FoliageSeed, cfg.FoliageSpread).Place(cfg.FoliageCount)
		for _, p := range foliage {
			grid.Insert(physics.NewBox(p, foliageWidth, foliageTall, foliageWidth), false, "foliage")
		}
	}

	logging.Debug("Арена собрана: %d стен, %d травинок, %d коллайдеров",
		len(obstacles), len(foliage), grid.Len())

	walls := make([]Obstacle, len(obstacles))
	copy(walls, obstacles)

	return &Arena{
		obstacles: walls,
		foliage:   foliage,
		grid:      grid,
		prober:    physics.NewProber(grid, probeCfg),
	}
}

// Obstacles returns a copy of the wall table.
func (a *Arena) Obstacles() []Obstacle {
	out := make([]Obstacle, len(a.obstacles))
	copy(out, a.obstacles)
	return out
}

// Foliage returns the decorative instance centres.
func (a *Arena) Foliage() []vec.Vec3Float {
	return a.foliage
}

// Prober возвращает пробник коллизий арены
func (a *Arena) Prober() *physics.Prober {
	return a.prober
}

// Grid exposes the collider index.
func (a *Arena) Grid() *physics.Grid {
	return a.grid
}
