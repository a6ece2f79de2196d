package entity

// Perception is what an agent knows about its target this tick.
type Perception struct {
	Distance float64
}

// State представляет состояние конечного автомата
type State interface {
	Enter(agent *Agent)
	Update(agent *Agent, p Perception) State
	Exit(agent *Agent)
	// SpeedFactor scales the agent's base speed while in this state.
	SpeedFactor() float64
	Name() string
}

// Behavior holds the distance bands of the chase FSM.
type Behavior struct {
	// AlertRadius: closer than this the enemy slows to half speed.
	AlertRadius float64
	// BiteRadius narrows the bite clip to a closer band without changing
	// speed. Zero means the bite clip covers the whole alert band.
	BiteRadius float64
}

// DefaultBehavior возвращает параметры по умолчанию
func DefaultBehavior() Behavior {
	return Behavior{AlertRadius: 15}
}

// Select returns the state for the given distance to the target.
func (b Behavior) Select(distance float64) State {
	if distance >= b.AlertRadius {
		return &PursueState{behavior: b}
	}
	if b.BiteRadius > 0 && distance >= b.BiteRadius {
		return &AlertState{behavior: b}
	}
	return &BiteState{behavior: b}
}

// transition keeps current when the band did not change, so Enter is not
// re-run every tick.
func (b Behavior) transition(current State, distance float64) State {
	next := b.Select(distance)
	if next.Name() == current.Name() {
		return current
	}
	return next
}

// === Конкретные состояния ===

// PursueState - погоня издалека на полной скорости с анимацией ходьбы
type PursueState struct {
	behavior Behavior
}

func (s *PursueState) Enter(agent *Agent) {
	halt(agent.Bite)
	start(agent.Walk)
}

func (s *PursueState) Update(agent *Agent, p Perception) State {
	return s.behavior.transition(s, p.Distance)
}

func (s *PursueState) Exit(agent *Agent) {
	// Клипы переключает Enter следующего состояния
}

func (s *PursueState) SpeedFactor() float64 { return 1 }
func (s *PursueState) Name() string         { return "pursue" }

// AlertState - цель рядом: половинная скорость, но ещё не укус.
// Встречается только когда задан BiteRadius.
type AlertState struct {
	behavior Behavior
}

func (s *AlertState) Enter(agent *Agent) {
	halt(agent.Bite)
	start(agent.Walk)
}

func (s *AlertState) Update(agent *Agent, p Perception) State {
	return s.behavior.transition(s, p.Distance)
}

func (s *AlertState) Exit(agent *Agent) {}

func (s *AlertState) SpeedFactor() float64 { return 0.5 }
func (s *AlertState) Name() string         { return "alert" }

// BiteState plays the attack clip at half speed.
type BiteState struct {
	behavior Behavior
}

func (s *BiteState) Enter(agent *Agent) {
	halt(agent.Walk)
	rebite(agent)
}

// Update перезапускает укус, пока враг остаётся в полосе: при LoopOnce клип
// заканчивается сам.
func (s *BiteState) Update(agent *Agent, p Perception) State {
	next := s.behavior.transition(s, p.Distance)
	if next == State(s) {
		rebite(agent)
	}
	return next
}

func (s *BiteState) Exit(agent *Agent) {}

func (s *BiteState) SpeedFactor() float64 { return 0.5 }
func (s *BiteState) Name() string         { return "bite" }

// rebite перематывает укус в начало, если он не идёт
func rebite(agent *Agent) {
	if agent.Bite != nil && !agent.Bite.IsRunning() {
		agent.Bite.Reset()
		agent.Bite.Play()
	}
}
