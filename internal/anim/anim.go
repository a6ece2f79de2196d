// Package anim is a headless stand-in for the client's animation system: it
// tracks which clips are running and for how long, without touching any
// skeleton.
package anim

import (
	"sync"
	"time"
)

// LoopMode controls what happens when an action reaches the end of its clip.
type LoopMode int

const (
	// LoopRepeat wraps the clip time back to zero.
	LoopRepeat LoopMode = iota
	// LoopOnce stops the action at the end of the clip.
	LoopOnce
)

func (m LoopMode) String() string {
	if m == LoopOnce {
		return "once"
	}
	return "repeat"
}

// Clip is a named animation with a fixed duration.
type Clip struct {
	Name     string        `json:"name" yaml:"name"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Action is a playback handle for one clip on one mixer.
type Action struct {
	clip    Clip
	loop    LoopMode
	running bool
	elapsed time.Duration
	plays   int
}

// Clip returns the clip this action plays.
func (a *Action) Clip() Clip {
	return a.clip
}

// Play starts the action from its current time. Calling Play on a running
// action is a no-op for the clip time but still counts as a start request.
func (a *Action) Play() {
	if !a.running {
		a.running = true
	}
	a.plays++
}

// Stop halts the action and rewinds it.
func (a *Action) Stop() {
	a.running = false
	a.elapsed = 0
}

// Reset rewinds the action without changing whether it runs.
func (a *Action) Reset() {
	a.elapsed = 0
}

// IsRunning сообщает, проигрывается ли клип
func (a *Action) IsRunning() bool {
	return a.running
}

// SetLoop sets the loop mode.
func (a *Action) SetLoop(mode LoopMode) {
	a.loop = mode
}

// Loop returns the loop mode.
func (a *Action) Loop() LoopMode {
	return a.loop
}

// Time returns the position within the clip.
func (a *Action) Time() time.Duration {
	return a.elapsed
}

// Plays counts Play calls. Controllers are expected to call Play only on
// stopped actions, so tests use this to catch restarts.
func (a *Action) Plays() int {
	return a.plays
}

func (a *Action) advance(dt time.Duration) {
	if !a.running {
		return
	}
	a.elapsed += dt
	if a.clip.Duration <= 0 || a.elapsed < a.clip.Duration {
		return
	}
	switch a.loop {
	case LoopOnce:
		a.elapsed = a.clip.Duration
		a.running = false
	default:
		a.elapsed %= a.clip.Duration
	}
}

// Mixer owns the actions of one animated model.
type Mixer struct {
	mu      sync.Mutex
	actions map[string]*Action
	order   []string
}

// NewMixer создаёт пустой микшер
func NewMixer() *Mixer {
	return &Mixer{actions: make(map[string]*Action)}
}

// ClipAction returns the action for clip, creating it on first use. The
// same clip name always yields the same action.
func (m *Mixer) ClipAction(clip Clip) *Action {
	m.mu.Lock()
	defer m.mu.Unlock()

	if a, ok := m.actions[clip.Name]; ok {
		return a
	}
	a := &Action{clip: clip}
	m.actions[clip.Name] = a
	m.order = append(m.order, clip.Name)
	return a
}

// Advance moves every running action forward by dt.
func (m *Mixer) Advance(dt time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, name := range m.order {
		m.actions[name].advance(dt)
	}
}

// Running returns the names of running clips in creation order.
func (m *Mixer) Running() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var names []string
	for _, name := range m.order {
		if m.actions[name].running {
			names = append(names, name)
		}
	}
	return names
}
