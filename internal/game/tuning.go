package game

import (
	"math"

	"github.com/annel0/chase-arena/internal/anim"
	"github.com/annel0/chase-arena/internal/config"
	"github.com/annel0/chase-arena/internal/entity"
	"github.com/annel0/chase-arena/internal/physics"
)

// Tuning holds every gameplay constant. Speeds and steps are per tick.
type Tuning struct {
	MoveSpeed   float64
	RotateSpeed float64
	// AgentHeight: the player's horizontal probe starts at half this height.
	AgentHeight float64
	// ProbeMargin is added to the step length when probing ahead.
	ProbeMargin float64
	// MapBoundary: moves ending at |x| or |z| >= MapBoundary are rejected.
	MapBoundary float64
	WinDistance float64

	CatchDistance    float64
	EnemySpeed       float64
	EnemyProbeLift   float64
	EnemyProbeMargin float64
	// DeflectionAngle in radians between the blocked direction and each
	// side candidate.
	DeflectionAngle float64
	Behavior        entity.Behavior
	BiteLoop        anim.LoopMode

	SpawnMinDistance      float64
	EnemySpawnMinDistance float64

	DayNightStep float64

	// Камера от третьего лица: локальное смещение (0, 0, CameraOffset),
	// повернутое по yaw и умноженное на CameraDistance.
	CameraOffset     float64
	CameraDistance   float64
	CameraHeight     float64
	CameraLookHeight float64

	Probe physics.ProbeConfig
}

// DefaultTuning возвращает константы оригинальной игры
func DefaultTuning() Tuning {
	return Tuning{
		MoveSpeed:   0.2,
		RotateSpeed: 0.05,
		AgentHeight: 1.6,
		ProbeMargin: 0.5,
		MapBoundary: 49,
		WinDistance: 2,

		CatchDistance:    2,
		EnemySpeed:       0.06,
		EnemyProbeLift:   1,
		EnemyProbeMargin: 1,
		DeflectionAngle:  math.Pi / 4,
		Behavior:         entity.DefaultBehavior(),
		BiteLoop:         anim.LoopRepeat,

		SpawnMinDistance:      10,
		EnemySpawnMinDistance: 15,

		DayNightStep: 0.0007,

		CameraOffset:     2.5,
		CameraDistance:   2.5,
		CameraHeight:     2.0,
		CameraLookHeight: 1.0,

		Probe: physics.DefaultProbeConfig(),
	}
}

// TuningFromConfig накладывает ненулевые значения конфигурации на значения по умолчанию
func TuningFromConfig(c config.GameConfig) Tuning {
	t := DefaultTuning()
	override := func(dst *float64, v float64) {
		if v > 0 {
			*dst = v
		}
	}
	override(&t.MoveSpeed, c.MoveSpeed)
	override(&t.RotateSpeed, c.RotateSpeed)
	override(&t.WinDistance, c.WinDistance)
	override(&t.CatchDistance, c.CatchDistance)
	override(&t.EnemySpeed, c.EnemySpeed)
	override(&t.Behavior.AlertRadius, c.AlertRadius)
	override(&t.Behavior.BiteRadius, c.BiteRadius)
	override(&t.MapBoundary, c.MapBoundary)
	override(&t.DayNightStep, c.DayNightStep)
	if c.DeflectionAngle > 0 && c.DeflectionAngle < 90 {
		t.DeflectionAngle = c.DeflectionAngle * math.Pi / 180
	}
	if c.BiteLoopOnce {
		t.BiteLoop = anim.LoopOnce
	}
	return t
}

// DeflectionWeight is the multiple of the perpendicular added to the
// blocked direction: tan(angle) rotates it by exactly angle.
func (t Tuning) DeflectionWeight() float64 {
	return math.Tan(t.DeflectionAngle)
}
