package physics

import (
	"math"

	"github.com/annel0/chase-arena/internal/vec"
)

// Geometry is what the probe casts against.
type Geometry interface {
	Query(min, max vec.Vec2Float) []*Collider
}

// ProbeConfig holds the ground-probe constants. Values are per tick.
type ProbeConfig struct {
	Gravity             float64 // смещение по Y за тик при свободном падении
	StandingOffset      float64 // расстояние от точки старта луча до земли в покое
	SnapTolerance       float64
	GroundCheckDistance float64
}

// DefaultProbeConfig возвращает значения по умолчанию
func DefaultProbeConfig() ProbeConfig {
	return ProbeConfig{
		Gravity:             -0.15,
		StandingOffset:      1.0,
		SnapTolerance:       0.1,
		GroundCheckDistance: 10,
	}
}

// Prober answers "is something solid ahead" and "how far is the ground"
// with single rays. There is no persistent physics state: no sliding along
// walls and no resolution once an agent is already overlapping geometry.
type Prober struct {
	geometry Geometry
	cfg      ProbeConfig
}

// NewProber создаёт пробник поверх геометрии арены
func NewProber(geometry Geometry, cfg ProbeConfig) *Prober {
	return &Prober{geometry: geometry, cfg: cfg}
}

// Config returns the constants the prober was built with.
func (p *Prober) Config() ProbeConfig {
	return p.cfg
}

// Cast returns the nearest solid collider hit within maxDistance.
func (p *Prober) Cast(origin, direction vec.Vec3Float, maxDistance float64) (Hit, bool) {
	ray := NewRay(origin, direction)
	min, max := ray.Bounds(maxDistance)

	best := Hit{Distance: math.Inf(1)}
	found := false
	for _, c := range p.geometry.Query(min, max) {
		if !c.Solid {
			continue
		}
		dist, ok := c.Box.IntersectRay(ray, maxDistance)
		if !ok || dist >= best.Distance {
			continue
		}
		best = Hit{Collider: c, Distance: dist, Point: ray.At(dist)}
		found = true
	}
	return best, found
}

// ProbeHorizontal reports whether a solid collider lies within maxDistance
// of origin along direction.
func (p *Prober) ProbeHorizontal(origin, direction vec.Vec3Float, maxDistance float64) bool {
	_, blocked := p.Cast(origin, direction, maxDistance)
	return blocked
}

// ProbeVertical casts straight down and returns the Y delta to apply this
// tick: a snap correction when the agent is at rest height or embedded below
// it, otherwise one tick of gravity. maxDistance <= 0 uses
// GroundCheckDistance.
func (p *Prober) ProbeVertical(origin vec.Vec3Float, maxDistance float64) float64 {
	if maxDistance <= 0 {
		maxDistance = p.cfg.GroundCheckDistance
	}

	hit, ok := p.Cast(origin, vec.Down, maxDistance)
	if !ok {
		return p.cfg.Gravity
	}

	trueDistance := hit.Distance - p.cfg.StandingOffset
	if math.Abs(trueDistance) < p.cfg.SnapTolerance || trueDistance < -p.cfg.SnapTolerance {
		return -trueDistance
	}
	return p.cfg.Gravity
}
