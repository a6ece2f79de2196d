package game

import (
	"math"

	"github.com/annel0/chase-arena/internal/vec"
)

// PlayerController turns the input table into player motion.
type PlayerController struct{}

// Update runs one tick of player movement followed by the goal check.
func (PlayerController) Update(s *GameState) {
	p := s.Player
	if p == nil || s.Outcome.Terminal() {
		return
	}
	t := s.Tuning

	if s.Input.Left {
		p.Yaw += t.RotateSpeed
	}
	if s.Input.Right {
		p.Yaw -= t.RotateSpeed
	}

	throttle := s.Input.Throttle()
	moving := throttle != 0
	if moving {
		step := vec.NewVec3(0, 0, throttle*t.MoveSpeed).RotateY(p.Yaw)
		origin := p.Position.Add(vec.NewVec3(0, t.AgentHeight/2, 0))
		if !s.Arena.Prober().ProbeHorizontal(origin, step.Normalized(), t.MoveSpeed+t.ProbeMargin) {
			next := p.Position.Add(step)
			if insideBoundary(next, t.MapBoundary) {
				p.Position = next
			}
		}
	}

	p.Position.Y += s.Arena.Prober().ProbeVertical(p.Position.Add(vec.Up), 0)

	if moving {
		p.PlayWalk()
	} else {
		p.StopWalk()
	}

	if s.Goal != nil && !s.Walking() && p.Position.DistanceTo(s.Goal.Position) < s.Goal.WinDistance {
		s.Outcome.Win()
	}
}

func insideBoundary(p vec.Vec3Float, limit float64) bool {
	return math.Abs(p.X) < limit && math.Abs(p.Z) < limit
}
