package physics

import (
	"math"

	"github.com/annel0/chase-arena/internal/vec"
)

// Box is an axis-aligned box given by its center and full extents.
type Box struct {
	Center vec.Vec3Float
	Width  float64 // по X
	Height float64 // по Y
	Depth  float64 // по Z
}

// NewBox создаёт коробку по центру и размерам
func NewBox(center vec.Vec3Float, width, height, depth float64) Box {
	return Box{Center: center, Width: width, Height: height, Depth: depth}
}

// Min returns the lower corner.
func (b Box) Min() vec.Vec3Float {
	return vec.Vec3Float{
		X: b.Center.X - b.Width/2,
		Y: b.Center.Y - b.Height/2,
		Z: b.Center.Z - b.Depth/2,
	}
}

// Max returns the upper corner.
func (b Box) Max() vec.Vec3Float {
	return vec.Vec3Float{
		X: b.Center.X + b.Width/2,
		Y: b.Center.Y + b.Height/2,
		Z: b.Center.Z + b.Depth/2,
	}
}

// FootprintContains reports whether the point lies on the box's width×depth
// footprint. Height is ignored and edges count as inside.
func (b Box) FootprintContains(point vec.Vec3Float) bool {
	halfWidth := b.Width / 2
	halfDepth := b.Depth / 2

	return point.X >= b.Center.X-halfWidth &&
		point.X <= b.Center.X+halfWidth &&
		point.Z >= b.Center.Z-halfDepth &&
		point.Z <= b.Center.Z+halfDepth
}

// FootprintOverlaps проверяет пересечение проекций двух коробок на землю
func (b Box) FootprintOverlaps(other Box) bool {
	bMin, bMax := b.Min(), b.Max()
	oMin, oMax := other.Min(), other.Max()

	return bMax.X >= oMin.X && bMin.X <= oMax.X &&
		bMax.Z >= oMin.Z && bMin.Z <= oMax.Z
}

// IntersectRay runs the slab test against the ray and returns the entry
// distance. A ray that starts inside the box hits at distance 0. Hits beyond
// maxDistance are misses.
func (b Box) IntersectRay(ray Ray, maxDistance float64) (float64, bool) {
	lo, hi := b.Min(), b.Max()
	tNear, tFar := 0.0, maxDistance

	for axis := 0; axis < 3; axis++ {
		origin := ray.Origin.Component(axis)
		dir := ray.Direction.Component(axis)
		minEdge := lo.Component(axis)
		maxEdge := hi.Component(axis)

		if math.Abs(dir) < parallelEpsilon {
			// Луч параллелен плоскостям: либо внутри слоя, либо промах
			if origin < minEdge || origin > maxEdge {
				return 0, false
			}
			continue
		}

		t1 := (minEdge - origin) / dir
		t2 := (maxEdge - origin) / dir
		if t1 > t2 {
			t1, t2 = t2, t1
		}

		tNear = math.Max(tNear, t1)
		tFar = math.Min(tFar, t2)
		if tNear > tFar {
			return 0, false
		}
	}

	return tNear, true
}

const parallelEpsilon = 1e-12

// Collider is a piece of static arena geometry. Solid is fixed when the level
// is built; decorative colliders (foliage) are never solid and never block.
type Collider struct {
	ID    int
	Box   Box
	Solid bool
	Tag   string
}
