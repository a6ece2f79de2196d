package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/annel0/chase-arena/internal/assets"
	"github.com/annel0/chase-arena/internal/eventbus"
	"github.com/annel0/chase-arena/internal/logging"
	"github.com/annel0/chase-arena/internal/replay"
	"github.com/annel0/chase-arena/internal/storage"
	"github.com/annel0/chase-arena/internal/world"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTooManySessions = errors.New("too many sessions")
)

const tracerName = "github.com/annel0/chase-arena/internal/game"

// ManagerOptions wires the manager to its collaborators. Positions, Results,
// Bus and Metrics are optional.
type ManagerOptions struct {
	Arena  *world.Arena
	Loader assets.Loader

	Tuning           Tuning
	Assets           AssetPaths
	TickInterval     time.Duration
	AutosaveInterval time.Duration
	MaxSessions      int
	AutoStart        bool

	Bus       eventbus.EventBus
	Positions storage.PositionRepo
	Results   storage.ResultStore
	Metrics   *Metrics
}

// Manager owns every session and drives them from a single ticker.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	opts   ManagerOptions
	codec  *replay.Codec
	tracer trace.Tracer
	log    *logging.Logger

	seedMu sync.Mutex
	seeds  *rand.Rand

	pending sync.WaitGroup
}

// NewManager проверяет опции и подставляет значения по умолчанию
func NewManager(opts ManagerOptions) (*Manager, error) {
	if opts.Arena == nil || opts.Loader == nil {
		return nil, errors.New("manager requires an arena and an asset loader")
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second / 60
	}
	if opts.AutosaveInterval <= 0 {
		opts.AutosaveInterval = 10 * time.Second
	}
	if opts.Tuning.MoveSpeed == 0 {
		opts.Tuning = DefaultTuning()
	}
	if opts.Assets == (AssetPaths{}) {
		opts.Assets = DefaultAssetPaths()
	}

	codec, err := replay.NewCodec()
	if err != nil {
		return nil, fmt.Errorf("failed to create replay codec: %w", err)
	}

	return &Manager{
		sessions: make(map[string]*Session),
		opts:     opts,
		codec:    codec,
		tracer:   otel.Tracer(tracerName),
		log:      logging.GetGameLogger(),
		seeds:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// TickInterval returns the fixed step.
func (m *Manager) TickInterval() time.Duration {
	return m.opts.TickInterval
}

// Bus returns the event bus, possibly nil.
func (m *Manager) Bus() eventbus.EventBus {
	return m.opts.Bus
}

// Results returns the result store, possibly nil.
func (m *Manager) Results() storage.ResultStore {
	return m.opts.Results
}

// Codec returns the replay codec used for stored results.
func (m *Manager) Codec() *replay.Codec {
	return m.codec
}

// Create starts a new session in the given mode.
func (m *Manager) Create(ctx context.Context, mode Mode) (*Session, error) {
	ctx, span := m.tracer.Start(ctx, "game.CreateSession",
		trace.WithAttributes(attribute.String("game.mode", string(mode))))
	defer span.End()

	m.mu.Lock()
	if m.opts.MaxSessions > 0 && len(m.sessions) >= m.opts.MaxSessions {
		m.mu.Unlock()
		span.SetStatus(codes.Error, ErrTooManySessions.Error())
		return nil, ErrTooManySessions
	}
	s := m.newSession(ctx, uuid.NewString(), mode)
	m.sessions[s.ID()] = s
	active := len(m.sessions)
	m.mu.Unlock()

	span.SetAttributes(attribute.String("game.session_id", s.ID()))
	m.opts.Metrics.setActive(active)
	publishLifecycle(m.opts.Bus, eventbus.EventSessionCreated, s.ID(), map[string]interface{}{
		"mode": mode,
		"seed": s.Seed(),
	})
	m.log.Info("🎮 Создана сессия %s (%s), всего %d", s.ID(), mode, active)

	if m.opts.AutoStart {
		m.start(s)
	}
	return s, nil
}

func (m *Manager) newSession(ctx context.Context, id string, mode Mode) *Session {
	m.seedMu.Lock()
	seed := m.seeds.Int63()
	m.seedMu.Unlock()

	return NewSession(ctx, m.opts.Arena, m.opts.Loader, SessionOptions{
		ID:       id,
		Mode:     mode,
		Seed:     seed,
		Tuning:   m.opts.Tuning,
		Assets:   m.opts.Assets,
		Bus:      m.opts.Bus,
		OnFinish: m.finished,
	})
}

// Get looks a session up by id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Start opens the start gate of a session.
func (m *Manager) Start(id string) (*Session, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	m.start(s)
	return s, nil
}

func (m *Manager) start(s *Session) {
	if s.Start() {
		publishLifecycle(m.opts.Bus, eventbus.EventSessionStarted, s.ID(), map[string]interface{}{
			"mode": s.Mode(),
		})
	}
}

// Restart replaces a session with a fresh one under the same id and mode:
// new spawns, new assets, closed start gate unless AutoStart.
func (m *Manager) Restart(ctx context.Context, id string) (*Session, error) {
	ctx, span := m.tracer.Start(ctx, "game.RestartSession",
		trace.WithAttributes(attribute.String("game.session_id", id)))
	defer span.End()

	m.mu.Lock()
	old, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		span.SetStatus(codes.Error, ErrSessionNotFound.Error())
		return nil, ErrSessionNotFound
	}
	s := m.newSession(ctx, id, old.Mode())
	m.sessions[id] = s
	m.mu.Unlock()

	publishLifecycle(m.opts.Bus, eventbus.EventSessionRestarted, id, map[string]interface{}{
		"mode": s.Mode(),
		"seed": s.Seed(),
	})
	m.log.Info("🔄 Сессия %s перезапущена", id)

	if m.opts.AutoStart {
		m.start(s)
	}
	return s, nil
}

// Remove drops a session and its stored positions.
func (m *Manager) Remove(ctx context.Context, id string) error {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	active := len(m.sessions)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	m.opts.Metrics.setActive(active)

	if m.opts.Positions != nil {
		if err := m.opts.Positions.Delete(ctx, id); err != nil && !errors.Is(err, storage.ErrNotFound) {
			m.log.Warn("Не удалось удалить позиции сессии %s: %v", id, err)
		}
	}
	return nil
}

// List returns the live sessions ordered by id.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Run ticks every session until ctx is done, then saves positions one last
// time and waits for pending result writes.
func (m *Manager) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.opts.TickInterval)
	defer ticker.Stop()
	autosave := time.NewTicker(m.opts.AutosaveInterval)
	defer autosave.Stop()

	m.log.Info("⏱️ Игровой цикл запущен: шаг %v, автосохранение %v", m.opts.TickInterval, m.opts.AutosaveInterval)

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			m.SavePositions(shutdownCtx)
			cancel()
			m.pending.Wait()
			m.log.Info("Игровой цикл остановлен")
			return nil
		case <-ticker.C:
			m.TickAll()
		case <-autosave.C:
			m.SavePositions(ctx)
		}
	}
}

// TickAll advances every session by one step.
func (m *Manager) TickAll() {
	start := time.Now()
	sessions := m.List()
	for _, s := range sessions {
		m.opts.Metrics.steer(s.Tick(m.opts.TickInterval))
	}
	m.opts.Metrics.observeTick(time.Since(start), len(sessions))
}

// SavePositions writes the agent positions of every session in one batch.
func (m *Manager) SavePositions(ctx context.Context) {
	if m.opts.Positions == nil {
		return
	}
	var batch []storage.AgentPosition
	for _, s := range m.List() {
		batch = append(batch, s.Positions()...)
	}
	if len(batch) == 0 {
		return
	}
	if err := m.opts.Positions.BatchSave(ctx, batch); err != nil {
		m.log.Error("Автосохранение позиций не удалось: %v", err)
		return
	}
	m.log.Debug("Сохранено %d позиций", len(batch))
}

// finished is the OnFinish hook of every session.
func (m *Manager) finished(res Result) {
	m.opts.Metrics.outcome(res.Outcome, res.Mode)
	if m.opts.Results == nil {
		return
	}
	m.pending.Add(1)
	go func() {
		defer m.pending.Done()
		m.saveResult(res)
	}()
}

func (m *Manager) saveResult(res Result) {
	ctx, span := m.tracer.Start(context.Background(), "game.SaveResult",
		trace.WithAttributes(
			attribute.String("game.session_id", res.SessionID),
			attribute.String("game.outcome", res.Outcome.String()),
			attribute.Int64("game.ticks", int64(res.Ticks)),
		))
	defer span.End()

	blob, err := m.codec.Encode(res.Recording)
	if err != nil {
		span.RecordError(err)
		m.log.Error("Не удалось сжать запись сессии %s: %v", res.SessionID, err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err = m.opts.Results.SaveResult(ctx, storage.SessionResult{
		SessionID:  res.SessionID,
		Mode:       string(res.Mode),
		Outcome:    res.Outcome.String(),
		Ticks:      res.Ticks,
		Duration:   res.Duration,
		FinishedAt: res.FinishedAt,
		Replay:     blob,
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		m.log.Error("Не удалось сохранить результат сессии %s: %v", res.SessionID, err)
	}
}

// Close releases the replay codec. Call after Run has returned.
func (m *Manager) Close() {
	m.pending.Wait()
	m.codec.Close()
}
