package entity

import (
	"github.com/annel0/chase-arena/internal/anim"
	"github.com/annel0/chase-arena/internal/vec"
)

// Kind различает персонажей арены
type Kind uint8

const (
	KindPlayer Kind = iota
	KindEnemy
	KindGoal
)

func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindEnemy:
		return "enemy"
	case KindGoal:
		return "goal"
	default:
		return "unknown"
	}
}

// Agent is a loaded character: where it stands, where it faces and which
// clips it can play. Bite is nil for everything but the enemy.
type Agent struct {
	ID       uint64
	Kind     Kind
	Position vec.Vec3Float
	Yaw      float64
	Speed    float64

	Mixer *anim.Mixer
	Walk  *anim.Action
	Bite  *anim.Action

	CurrentState State
}

// NewAgent создаёт персонажа с собственным микшером
func NewAgent(id uint64, kind Kind, pos vec.Vec3Float, speed float64) *Agent {
	return &Agent{
		ID:       id,
		Kind:     kind,
		Position: pos,
		Speed:    speed,
		Mixer:    anim.NewMixer(),
	}
}

// BindWalk attaches the locomotion clip.
func (a *Agent) BindWalk(clip anim.Clip) {
	a.Walk = a.Mixer.ClipAction(clip)
}

// BindBite attaches the attack clip with the given loop mode.
func (a *Agent) BindBite(clip anim.Clip, loop anim.LoopMode) {
	a.Bite = a.Mixer.ClipAction(clip)
	a.Bite.SetLoop(loop)
}

// Forward is the unit vector the agent walks along when moving forward.
func (a *Agent) Forward() vec.Vec3Float {
	return vec.NewVec3(0, 0, -1).RotateY(a.Yaw)
}

// FaceTowards turns the agent to target around Y only.
func (a *Agent) FaceTowards(target vec.Vec3Float) {
	a.Yaw = a.Position.YawTowards(target)
}

// PlayWalk starts the walk clip unless it is already running.
func (a *Agent) PlayWalk() {
	start(a.Walk)
}

// StopWalk stops the walk clip if it is running.
func (a *Agent) StopWalk() {
	halt(a.Walk)
}

// Update runs one FSM step. The first call enters the state that matches p.
func (a *Agent) Update(p Perception, behavior Behavior) {
	if a.CurrentState == nil {
		a.SetState(behavior.Select(p.Distance))
		return
	}
	next := a.CurrentState.Update(a, p)
	if next != a.CurrentState {
		a.CurrentState.Exit(a)
		a.CurrentState = next
		a.CurrentState.Enter(a)
	}
}

// SetState устанавливает новое состояние сущности
func (a *Agent) SetState(state State) {
	if a.CurrentState != nil {
		a.CurrentState.Exit(a)
	}

	a.CurrentState = state

	if a.CurrentState != nil {
		a.CurrentState.Enter(a)
	}
}

// SpeedFactor returns the multiplier of the current state, 1 when there is none.
func (a *Agent) SpeedFactor() float64 {
	if a.CurrentState == nil {
		return 1
	}
	return a.CurrentState.SpeedFactor()
}

func start(action *anim.Action) {
	if action != nil && !action.IsRunning() {
		action.Play()
	}
}

func halt(action *anim.Action) {
	if action != nil && action.IsRunning() {
		action.Stop()
	}
}
