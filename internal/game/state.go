package game

import (
	"fmt"
	"strings"

	"github.com/annel0/chase-arena/internal/entity"
	"github.com/annel0/chase-arena/internal/vec"
	"github.com/annel0/chase-arena/internal/world"
)

// Mode selects the rule set of a session.
type Mode string

const (
	// ModeNormal: enemy loaded, goal wins.
	ModeNormal Mode = "normal"
	// ModeWalk: exploration only. No enemy and no win.
	ModeWalk Mode = "walk"
)

// ParseMode принимает пустую строку как normal
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeNormal:
		return ModeNormal, nil
	case ModeWalk:
		return ModeWalk, nil
	}
	return "", fmt.Errorf("unknown game mode %q", s)
}

// Goal is the target the player has to reach. Agent carries the idle
// animation and is nil until the goal model resolves.
type Goal struct {
	Position    vec.Vec3Float
	WinDistance float64
	Agent       *entity.Agent
}

// GameState is everything the controllers read and write during a tick.
// Nil Player or Enemy means the model has not loaded yet.
type GameState struct {
	Mode    Mode
	Started bool
	Tick    uint64

	Input   Input
	Outcome *OutcomeMachine

	Arena  *world.Arena
	Player *entity.Agent
	Enemy  *entity.Agent
	Goal   *Goal

	Cycle  Cycle
	Tuning Tuning
}

// NewGameState создаёт пустое состояние: никто не загружен, игра не начата
func NewGameState(mode Mode, arena *world.Arena, tuning Tuning, notifier Notifier) *GameState {
	return &GameState{
		Mode:    mode,
		Outcome: NewOutcomeMachine(notifier),
		Arena:   arena,
		Cycle:   NewCycle(tuning.DayNightStep),
		Tuning:  tuning,
	}
}

// Walking reports whether the session runs in walk mode.
func (s *GameState) Walking() bool {
	return s.Mode == ModeWalk
}

// Agents returns every loaded agent in a stable order.
func (s *GameState) Agents() []*entity.Agent {
	agents := make([]*entity.Agent, 0, 3)
	if s.Player != nil {
		agents = append(agents, s.Player)
	}
	if s.Enemy != nil {
		agents = append(agents, s.Enemy)
	}
	if s.Goal != nil && s.Goal.Agent != nil {
		agents = append(agents, s.Goal.Agent)
	}
	return agents
}
