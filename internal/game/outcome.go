package game

// Outcome is the result of a session so far.
type Outcome int

const (
	Playing Outcome = iota
	Won
	Lost
)

func (o Outcome) String() string {
	switch o {
	case Won:
		return "won"
	case Lost:
		return "lost"
	default:
		return "playing"
	}
}

// Terminal reports whether no further transition is possible.
func (o Outcome) Terminal() bool {
	return o != Playing
}

// Notifier is told about the terminal transition exactly once per run.
type Notifier interface {
	ShowWin()
	ShowLose()
}

// OutcomeMachine tracks Playing -> Won | Lost. Transitions are one-way.
type OutcomeMachine struct {
	state    Outcome
	notifier Notifier
}

// NewOutcomeMachine создаёт автомат в состоянии Playing. notifier может быть nil.
func NewOutcomeMachine(notifier Notifier) *OutcomeMachine {
	return &OutcomeMachine{notifier: notifier}
}

// State возвращает текущее состояние
func (m *OutcomeMachine) State() Outcome {
	return m.state
}

// Terminal is shorthand for State().Terminal().
func (m *OutcomeMachine) Terminal() bool {
	return m.state.Terminal()
}

// Win moves Playing to Won. It returns false and does nothing otherwise.
func (m *OutcomeMachine) Win() bool {
	if m.state != Playing {
		return false
	}
	m.state = Won
	if m.notifier != nil {
		m.notifier.ShowWin()
	}
	return true
}

// Lose moves Playing to Lost. It returns false and does nothing otherwise.
func (m *OutcomeMachine) Lose() bool {
	if m.state != Playing {
		return false
	}
	m.state = Lost
	if m.notifier != nil {
		m.notifier.ShowLose()
	}
	return true
}
