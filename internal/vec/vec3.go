package vec

import "math"

// Vec3Float is a point or direction in arena space. Y points up, and an
// agent with zero yaw walks toward -Z.
type Vec3Float struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

var (
	Zero = Vec3Float{}
	Up   = Vec3Float{Y: 1}
	Down = Vec3Float{Y: -1}
)

// NewVec3 is shorthand for a literal.
func NewVec3(x, y, z float64) Vec3Float {
	return Vec3Float{X: x, Y: y, Z: z}
}

// Add складывает два вектора
func (v Vec3Float) Add(other Vec3Float) Vec3Float {
	return Vec3Float{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Sub вычитает вектор
func (v Vec3Float) Sub(other Vec3Float) Vec3Float {
	return Vec3Float{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Mul умножает вектор на скаляр
func (v Vec3Float) Mul(scalar float64) Vec3Float {
	return Vec3Float{X: v.X * scalar, Y: v.Y * scalar, Z: v.Z * scalar}
}

func (v Vec3Float) Dot(other Vec3Float) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Length возвращает длину вектора
func (v Vec3Float) Length() float64 {
	return math.Sqrt(v.Dot(v))
}

// Normalized returns the unit vector, or the zero vector for zero input.
func (v Vec3Float) Normalized() Vec3Float {
	length := v.Length()
	if length == 0 {
		return Zero
	}
	return v.Mul(1 / length)
}

// DistanceTo возвращает евклидово расстояние до другой точки
func (v Vec3Float) DistanceTo(other Vec3Float) float64 {
	return v.Sub(other).Length()
}

// Horizontal projects the vector onto the ground plane (X, Z).
func (v Vec3Float) Horizontal() Vec2Float {
	return Vec2Float{X: v.X, Y: v.Z}
}

// Perp returns the horizontal perpendicular (-Z, 0, X). For a direction
// facing -Z it points toward +X, i.e. to the right of the walker.
func (v Vec3Float) Perp() Vec3Float {
	return Vec3Float{X: -v.Z, Y: 0, Z: v.X}
}

// RotateY rotates the vector around the vertical axis by angle radians,
// counter-clockwise when seen from above.
func (v Vec3Float) RotateY(angle float64) Vec3Float {
	sin, cos := math.Sincos(angle)
	return Vec3Float{
		X: v.X*cos + v.Z*sin,
		Y: v.Y,
		Z: -v.X*sin + v.Z*cos,
	}
}

// YawTowards returns the yaw that turns an object's +Z axis toward target,
// ignoring any height difference.
func (v Vec3Float) YawTowards(target Vec3Float) float64 {
	return math.Atan2(target.X-v.X, target.Z-v.Z)
}

// Lerp linearly interpolates toward other by t.
func (v Vec3Float) Lerp(other Vec3Float, t float64) Vec3Float {
	return v.Add(other.Sub(v).Mul(t))
}

// ApproxEqual compares component-wise within eps.
func (v Vec3Float) ApproxEqual(other Vec3Float, eps float64) bool {
	return math.Abs(v.X-other.X) <= eps &&
		math.Abs(v.Y-other.Y) <= eps &&
		math.Abs(v.Z-other.Z) <= eps
}

// Component returns the value along axis 0 (X), 1 (Y) or 2 (Z).
func (v Vec3Float) Component(axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}
