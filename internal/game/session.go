package game

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/annel0/chase-arena/internal/anim"
	"github.com/annel0/chase-arena/internal/assets"
	"github.com/annel0/chase-arena/internal/config"
	"github.com/annel0/chase-arena/internal/entity"
	"github.com/annel0/chase-arena/internal/eventbus"
	"github.com/annel0/chase-arena/internal/logging"
	"github.com/annel0/chase-arena/internal/replay"
	"github.com/annel0/chase-arena/internal/storage"
	"github.com/annel0/chase-arena/internal/vec"
	"github.com/annel0/chase-arena/internal/world"
)

const (
	playerID uint64 = iota + 1
	enemyID
	goalID
)

// Clip names looked up on the enemy model.
const (
	EnemyWalkClip = "run"
	EnemyBiteClip = "attack"
)

// AssetPaths names the models and textures a session loads.
type AssetPaths struct {
	Map    string
	Player string
	Enemy  string
	Goal   string
	Ground string
}

// DefaultAssetPaths соответствует assets/manifest.yaml
func DefaultAssetPaths() AssetPaths {
	return AssetPaths{
		Map:    "models/map.glb",
		Player: "models/wolf.glb",
		Enemy:  "models/enemy.glb",
		Goal:   "models/goal.glb",
		Ground: "textures/ground.jpg",
	}
}

// AssetPathsFromConfig applies the configured model paths.
func AssetPathsFromConfig(c config.AssetsConfig) AssetPaths {
	p := DefaultAssetPaths()
	p.Map, p.Player, p.Enemy, p.Goal = c.Paths()
	return p
}

// SessionOptions configures NewSession. Zero values fall back to defaults.
type SessionOptions struct {
	ID     string
	Mode   Mode
	Seed   int64
	Tuning Tuning
	Assets AssetPaths
	Bus    eventbus.EventBus
	// Notifier overrides the bus notifier.
	Notifier Notifier
	// OnFinish is called once the outcome turns terminal, with the session
	// lock held. It must not block.
	OnFinish func(Result)
}

// Result is what a finished session leaves behind.
type Result struct {
	SessionID  string
	Mode       Mode
	Outcome    Outcome
	Ticks      uint64
	Duration   time.Duration
	FinishedAt time.Time
	Recording  replay.Recording
}

// modelSlot follows one model handle until it settles.
type modelSlot struct {
	name    string
	path    string
	handle  *assets.Handle[*assets.Model]
	settled bool
}

// Session is one independent game: its state, its pending assets and its
// input log. All methods are safe for concurrent use.
type Session struct {
	mu sync.Mutex

	id        string
	seed      int64
	state     *GameState
	spawner   *world.SpawnPlanner
	goalSpot  vec.Vec3Float
	bus       eventbus.EventBus
	recorder  *replay.Recorder
	onFinish  func(Result)
	createdAt time.Time
	startedAt time.Time
	finished  bool
	lastSteer Steer

	player PlayerController
	enemy  EnemyController

	models []*modelSlot
	ground *assets.Handle[*assets.Texture]
}

// NewSession plans the goal and starts every asset load. Agents appear in the
// state on later ticks as their handles resolve.
func NewSession(ctx context.Context, arena *world.Arena, loader assets.Loader, opts SessionOptions) *Session {
	if opts.Mode == "" {
		opts.Mode = ModeNormal
	}
	if opts.Tuning.MoveSpeed == 0 {
		opts.Tuning = DefaultTuning()
	}
	if opts.Assets == (AssetPaths{}) {
		opts.Assets = DefaultAssetPaths()
	}

	s := &Session{
		id:        opts.ID,
		seed:      opts.Seed,
		spawner:   world.NewSpawnPlanner(arena.Obstacles(), rand.New(rand.NewSource(opts.Seed))),
		bus:       opts.Bus,
		recorder:  replay.NewRecorder(opts.ID, string(opts.Mode), opts.Seed),
		onFinish:  opts.OnFinish,
		createdAt: time.Now(),
	}

	notifier := opts.Notifier
	if notifier == nil && opts.Bus != nil {
		notifier = NewBusNotifier(opts.Bus, opts.ID, s.describe)
	}
	s.state = NewGameState(opts.Mode, arena, opts.Tuning, notifier)

	goal, ok := s.spawner.Find(nil, 0)
	if !ok {
		logging.Warn("Сессия %s: не нашлось места для цели, используем центр", s.id)
	}
	s.goalSpot = goal

	s.models = append(s.models,
		&modelSlot{name: "map", path: opts.Assets.Map},
		&modelSlot{name: "player", path: opts.Assets.Player},
		&modelSlot{name: "goal", path: opts.Assets.Goal},
	)
	if opts.Mode == ModeNormal {
		s.models = append(s.models, &modelSlot{name: "enemy", path: opts.Assets.Enemy})
	}
	for _, slot := range s.models {
		slot.handle = loader.LoadModel(ctx, slot.path)
	}
	s.ground = loader.LoadTexture(ctx, opts.Assets.Ground)

	logging.Debug("Сессия %s создана: режим=%s, цель=(%.1f, %.1f)", s.id, opts.Mode, goal.X, goal.Z)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Mode returns the rule set.
func (s *Session) Mode() Mode {
	return s.state.Mode
}

// Seed returns the spawn RNG seed.
func (s *Session) Seed() int64 {
	return s.seed
}

// Start opens the start gate. Repeated calls are no-ops.
func (s *Session) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Started {
		return false
	}
	s.state.Started = true
	s.startedAt = time.Now()
	logging.Info("▶️ Сессия %s запущена (%s)", s.id, s.state.Mode)
	return true
}

// KeyEvent applies a key transition. Unknown keys are ignored and reported
// as false.
func (s *Session) KeyEvent(key string, down bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Input.Set(key, down) {
		return false
	}
	k, _ := ParseKey(key)
	s.recorder.Record(s.state.Tick, string(k), down)
	return true
}

// Outcome returns the current outcome.
func (s *Session) Outcome() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Outcome.State()
}

// Tick advances the session by one fixed step. Asset handles are polled
// every tick. Day-night and animation time run once the session is started;
// controllers stop at a terminal outcome.
func (s *Session) Tick(dt time.Duration) Steer {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pollAssets()

	st := s.state
	if !st.Started {
		return SteerIdle
	}

	st.Cycle.Advance()

	steer := SteerIdle
	if !st.Outcome.Terminal() {
		st.Tick++
		s.player.Update(st)
		s.lastSteer = s.enemy.Update(st)
		steer = s.lastSteer
	}

	for _, a := range st.Agents() {
		a.Mixer.Advance(dt)
	}

	if st.Outcome.Terminal() {
		s.finish()
	}
	return steer
}

// WithState runs fn under the session lock.
func (s *Session) WithState(fn func(*GameState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.state)
}

func (s *Session) finish() {
	if s.finished {
		return
	}
	s.finished = true

	st := s.state
	outcome := st.Outcome.State()
	s.recorder.Finish(st.Tick, outcome.String())

	res := Result{
		SessionID:  s.id,
		Mode:       st.Mode,
		Outcome:    outcome,
		Ticks:      st.Tick,
		Duration:   time.Since(s.startedAt),
		FinishedAt: time.Now().UTC(),
		Recording:  s.recorder.Snapshot(),
	}
	logging.Info("🏁 Сессия %s завершена: %s за %d тиков", s.id, outcome, st.Tick)

	if s.onFinish != nil {
		s.onFinish(res)
	}
}

// describe fills the outcome payload. Called with the lock held.
func (s *Session) describe() OutcomeEvent {
	ev := OutcomeEvent{
		SessionID: s.id,
		Mode:      string(s.state.Mode),
		Tick:      s.state.Tick,
	}
	if p := s.state.Player; p != nil {
		pos := p.Position
		ev.Player = &pos
	}
	return ev
}

func (s *Session) pollAssets() {
	for _, slot := range s.models {
		if slot.settled {
			continue
		}
		model, err, status := slot.handle.Poll()
		switch status {
		case assets.Pending:
			continue
		case assets.Failed:
			slot.settled = true
			logging.Error("Сессия %s: модель %s (%s) не загрузилась: %v", s.id, slot.name, slot.path, err)
			publishLifecycle(s.bus, eventbus.EventAssetFailed, s.id, map[string]string{
				"asset": slot.name,
				"path":  slot.path,
				"error": err.Error(),
			})
			if slot.name == "goal" {
				s.placeGoal(assets.PlaceholderGoal())
			}
		case assets.Ready:
			slot.settled = true
			s.place(slot.name, model)
		}
	}
}

func (s *Session) place(name string, model *assets.Model) {
	switch name {
	case "player":
		s.placePlayer(model)
	case "enemy":
		s.placeEnemy(model)
	case "goal":
		s.placeGoal(model)
	}
}

func (s *Session) placePlayer(model *assets.Model) {
	t := s.state.Tuning
	pos, ok := s.spawner.Find(&s.goalSpot, t.SpawnMinDistance)
	if !ok {
		logging.Warn("Сессия %s: спавн игрока не найден, ставим в центр", s.id)
	}
	p := entity.NewAgent(playerID, entity.KindPlayer, pos, t.MoveSpeed)
	if clip, ok := model.FirstClip(); ok {
		p.BindWalk(clip)
	}
	s.state.Player = p
}

func (s *Session) placeEnemy(model *assets.Model) {
	t := s.state.Tuning
	pos, ok := s.spawner.Find(&s.goalSpot, t.EnemySpawnMinDistance)
	if !ok {
		logging.Warn("Сессия %s: спавн врага не найден, ставим в центр", s.id)
	}
	e := entity.NewAgent(enemyID, entity.KindEnemy, pos, t.EnemySpeed)
	if clip, ok := model.Clip(EnemyWalkClip); ok {
		e.BindWalk(clip)
	}
	if clip, ok := model.Clip(EnemyBiteClip); ok {
		e.BindBite(clip, t.BiteLoop)
	}
	s.state.Enemy = e
}

func (s *Session) placeGoal(model *assets.Model) {
	g := entity.NewAgent(goalID, entity.KindGoal, s.goalSpot, 0)
	if clip, ok := model.FirstClip(); ok {
		g.BindWalk(clip)
		g.Walk.SetLoop(anim.LoopRepeat)
		g.PlayWalk()
	}
	s.state.Goal = &Goal{
		Position:    s.goalSpot,
		WinDistance: s.state.Tuning.WinDistance,
		Agent:       g,
	}
}

// Positions returns persistable agent positions.
func (s *Session) Positions() []storage.AgentPosition {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	var out []storage.AgentPosition
	for _, a := range s.state.Agents() {
		out = append(out, storage.AgentPosition{
			SessionID: s.id,
			Kind:      a.Kind.String(),
			Position:  a.Position,
			Yaw:       a.Yaw,
			UpdatedAt: now,
		})
	}
	return out
}
