package world

import (
	"github.com/annel0/chase-arena/internal/physics"
	"github.com/annel0/chase-arena/internal/vec"
)

// Obstacle is a static wall: box center and full extents.
type Obstacle struct {
	X, Y, Z              float64
	Width, Height, Depth float64
}

// Box converts the obstacle into a collision box.
func (o Obstacle) Box() physics.Box {
	return physics.NewBox(vec.NewVec3(o.X, o.Y, o.Z), o.Width, o.Height, o.Depth)
}

// Center возвращает центр препятствия
func (o Obstacle) Center() vec.Vec3Float {
	return vec.NewVec3(o.X, o.Y, o.Z)
}

const (
	// GroundSize is the side of the square ground plane centred on the origin.
	GroundSize = 100.0
	// GroundThickness keeps the ground slab thin; its top face is y = 0.
	GroundThickness = 0.1
	// WallHeight of every wall in DefaultWalls.
	WallHeight = 5.0
)

// DefaultWalls is the hand-authored level: four boundary walls plus nine
// interior walls.
var DefaultWalls = []Obstacle{
	{X: 0, Y: 2.5, Z: -50, Width: 100, Height: WallHeight, Depth: 1},
	{X: 0, Y: 2.5, Z: 50, Width: 100, Height: WallHeight, Depth: 1},
	{X: -50, Y: 2.5, Z: 0, Width: 1, Height: WallHeight, Depth: 100},
	{X: 50, Y: 2.5, Z: 0, Width: 1, Height: WallHeight, Depth: 100},
	{X: 15, Y: 2.5, Z: 10, Width: 10, Height: WallHeight, Depth: 1},
	{X: -10, Y: 2.5, Z: -15, Width: 1, Height: WallHeight, Depth: 20},
	{X: 25, Y: 2.5, Z: -20, Width: 15, Height: WallHeight, Depth: 1},
	{X: -25, Y: 2.5, Z: 15, Width: 1, Height: WallHeight, Depth: 15},
	{X: 0, Y: 2.5, Z: 0, Width: 12, Height: WallHeight, Depth: 1},
	{X: -30, Y: 2.5, Z: -30, Width: 10, Height: WallHeight, Depth: 1},
	{X: 30, Y: 2.5, Z: 30, Width: 1, Height: WallHeight, Depth: 12},
	{X: 10, Y: 2.5, Z: -35, Width: 8, Height: WallHeight, Depth: 1},
	{X: -20, Y: 2.5, Z: 30, Width: 15, Height: WallHeight, Depth: 1},
}

// InsideAnyObstacle reports whether the point lies on some obstacle's
// footprint.
func InsideAnyObstacle(point vec.Vec3Float, obstacles []Obstacle) bool {
	for _, o := range obstacles {
		if o.Box().FootprintContains(point) {
			return true
		}
	}
	return false
}
