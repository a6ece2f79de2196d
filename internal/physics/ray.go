package physics

import "github.com/annel0/chase-arena/internal/vec"

// Ray is a half-line with a unit direction.
type Ray struct {
	Origin    vec.Vec3Float
	Direction vec.Vec3Float
}

// NewRay normalizes direction. A zero direction yields a ray that never hits
// anything but a box containing its origin.
func NewRay(origin, direction vec.Vec3Float) Ray {
	return Ray{Origin: origin, Direction: direction.Normalized()}
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float64) vec.Vec3Float {
	return r.Origin.Add(r.Direction.Mul(t))
}

// Bounds returns the ground-plane bounding rectangle of the segment
// [0, length] along the ray.
func (r Ray) Bounds(length float64) (min, max vec.Vec2Float) {
	a := r.Origin.Horizontal()
	b := r.At(length).Horizontal()
	if a.X > b.X {
		a.X, b.X = b.X, a.X
	}
	if a.Y > b.Y {
		a.Y, b.Y = b.Y, a.Y
	}
	return a, b
}

// Hit describes the nearest collider struck by a cast.
type Hit struct {
	Collider *Collider
	Distance float64
	Point    vec.Vec3Float
}
