package game

import (
	"time"

	"github.com/annel0/chase-arena/internal/entity"
	"github.com/annel0/chase-arena/internal/vec"
)

// AgentView is the client-facing state of one agent.
type AgentView struct {
	Kind     string        `json:"kind"`
	Position vec.Vec3Float `json:"position"`
	Yaw      float64       `json:"yaw"`
	State    string        `json:"state,omitempty"`
	Clips    []string      `json:"clips,omitempty"`
}

// CameraView is the third-person anchor behind the player.
type CameraView struct {
	Position vec.Vec3Float `json:"position"`
	LookAt   vec.Vec3Float `json:"look_at"`
}

// Snapshot is a consistent copy of a session taken between ticks.
type Snapshot struct {
	SessionID string            `json:"session_id"`
	Mode      Mode              `json:"mode"`
	Started   bool              `json:"started"`
	Tick      uint64            `json:"tick"`
	Outcome   string            `json:"outcome"`
	CreatedAt time.Time         `json:"created_at"`
	Input     Input             `json:"input"`
	Player    *AgentView        `json:"player,omitempty"`
	Enemy     *AgentView        `json:"enemy,omitempty"`
	Goal      *AgentView        `json:"goal,omitempty"`
	Camera    *CameraView       `json:"camera,omitempty"`
	Lighting  Lighting          `json:"lighting"`
	Steer     string            `json:"steer,omitempty"`
	Assets    map[string]string `json:"assets"`
}

// Snapshot copies the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state
	snap := Snapshot{
		SessionID: s.id,
		Mode:      st.Mode,
		Started:   st.Started,
		Tick:      st.Tick,
		Outcome:   st.Outcome.State().String(),
		CreatedAt: s.createdAt,
		Input:     st.Input,
		Player:    viewOf(st.Player),
		Enemy:     viewOf(st.Enemy),
		Lighting:  st.Cycle.Lighting(),
		Assets:    make(map[string]string, len(s.models)+1),
	}
	if st.Goal != nil {
		snap.Goal = viewOf(st.Goal.Agent)
	}
	if st.Enemy != nil {
		snap.Steer = s.lastSteer.String()
	}
	if st.Player != nil {
		cam := CameraFor(st.Player.Position, st.Player.Yaw, st.Tuning)
		snap.Camera = &cam
	}
	for _, slot := range s.models {
		snap.Assets[slot.name] = slot.handle.Status().String()
	}
	snap.Assets["ground"] = s.ground.Status().String()
	return snap
}

// CameraFor places the follow camera behind and above pos.
func CameraFor(pos vec.Vec3Float, yaw float64, t Tuning) CameraView {
	offset := vec.NewVec3(0, 0, t.CameraOffset).RotateY(yaw).Mul(t.CameraDistance)
	camera := pos.Add(offset)
	camera.Y += t.CameraHeight
	return CameraView{
		Position: camera,
		LookAt:   pos.Add(vec.NewVec3(0, t.CameraLookHeight, 0)),
	}
}

func viewOf(a *entity.Agent) *AgentView {
	if a == nil {
		return nil
	}
	v := &AgentView{
		Kind:     a.Kind.String(),
		Position: a.Position,
		Yaw:      a.Yaw,
		Clips:    a.Mixer.Running(),
	}
	if a.CurrentState != nil {
		v.State = a.CurrentState.Name()
	}
	return v
}
