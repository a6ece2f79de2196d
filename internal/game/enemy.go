package game

import (
	"github.com/annel0/chase-arena/internal/entity"
	"github.com/annel0/chase-arena/internal/vec"
)

// Steer is what the enemy did with its step this tick.
type Steer int

const (
	SteerIdle Steer = iota
	SteerDirect
	SteerLeft
	SteerRight
	// SteerStalled: both deflections blocked, the enemy stays put.
	SteerStalled
)

func (s Steer) String() string {
	switch s {
	case SteerDirect:
		return "direct"
	case SteerLeft:
		return "left"
	case SteerRight:
		return "right"
	case SteerStalled:
		return "stalled"
	default:
		return "idle"
	}
}

// EnemyController drives pursuit, the behavior FSM and the catch check.
type EnemyController struct{}

// Update runs one enemy tick and reports how it steered.
func (EnemyController) Update(s *GameState) Steer {
	e, p := s.Enemy, s.Player
	if e == nil || p == nil || s.Walking() || s.Outcome.Terminal() {
		return SteerIdle
	}
	t := s.Tuning

	distance := e.Position.DistanceTo(p.Position)
	e.Update(entity.Perception{Distance: distance}, t.Behavior)
	speed := t.EnemySpeed * e.SpeedFactor()

	if distance < t.CatchDistance {
		s.Outcome.Lose()
	}

	dir := p.Position.Sub(e.Position).Normalized()
	steer := SteerStalled
	if move, how, ok := chooseStep(s, e.Position, dir, speed); ok {
		e.Position = e.Position.Add(move.Mul(speed))
		steer = how
	}

	e.FaceTowards(p.Position)
	return steer
}

// chooseStep tries the direct line, then the left deflection, then the right.
func chooseStep(s *GameState, from, dir vec.Vec3Float, speed float64) (vec.Vec3Float, Steer, bool) {
	t := s.Tuning
	origin := from.Add(vec.NewVec3(0, t.EnemyProbeLift, 0))
	reach := speed + t.EnemyProbeMargin
	clear := func(d vec.Vec3Float) bool {
		return !s.Arena.Prober().ProbeHorizontal(origin, d, reach)
	}

	if clear(dir) {
		return dir, SteerDirect, true
	}

	side := dir.Perp().Mul(t.DeflectionWeight())
	left := dir.Sub(side).Normalized()
	if clear(left) {
		return left, SteerLeft, true
	}
	right := dir.Add(side).Normalized()
	if clear(right) {
		return right, SteerRight, true
	}
	return vec.Zero, SteerStalled, false
}
