package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/annel0/chase-arena/internal/api"
	"github.com/annel0/chase-arena/internal/assets"
	"github.com/annel0/chase-arena/internal/auth"
	"github.com/annel0/chase-arena/internal/config"
	"github.com/annel0/chase-arena/internal/eventbus"
	"github.com/annel0/chase-arena/internal/game"
	"github.com/annel0/chase-arena/internal/logging"
	"github.com/annel0/chase-arena/internal/observability"
	"github.com/annel0/chase-arena/internal/physics"
	"github.com/annel0/chase-arena/internal/storage"
	"github.com/annel0/chase-arena/internal/world"
)

func main() {
	configPath := flag.String("config", "", "path to server.yaml (default: $GAME_CONFIG)")
	flag.Parse()

	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	if err := run(*configPath); err != nil {
		logging.Error("❌ %v", err)
		logging.CloseDefaultLogger()
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info("🎮 Запуск Chase Arena Server...")

	// === ТЕЛЕМЕТРИЯ ===
	shutdownTracing, err := observability.InitTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		logging.Warn("⚠️ Трассировка недоступна: %v", err)
		shutdownTracing = func(context.Context) error { return nil }
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logging.Warn("Остановка трассировки: %v", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// === ШИНА СОБЫТИЙ ===
	bus, err := openBus(cfg.EventBus)
	if err != nil {
		return err
	}
	eventbus.Init(bus)
	defer bus.Close()

	if _, err := eventbus.StartLoggingListener(bus); err != nil {
		logging.Warn("Логгер событий не запущен: %v", err)
	}
	busMetrics := eventbus.NewMetricsExporter(bus, reg)
	busMetrics.Start()
	busMetrics.StartHTTP(fmt.Sprintf(":%d", cfg.Server.GetMetricsPort()), reg)
	defer busMetrics.Stop()

	// === ХРАНИЛИЩА ===
	positions := storage.OpenPositions(ctx, cfg.Storage)
	defer positions.Close()

	results, err := storage.OpenResults(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer results.Close()

	// === АРЕНА И АССЕТЫ ===
	manifest, err := assets.LoadManifest(cfg.Assets.GetManifest())
	if err != nil {
		return err
	}
	loader := assets.NewManifestLoader(manifest)
	defer loader.Wait()

	arenaCfg := world.DefaultArenaConfig()
	if cfg.Game.FoliageCount > 0 {
		arenaCfg.FoliageCount = cfg.Game.FoliageCount
	}
	if cfg.Game.FoliageSeed != 0 {
		arenaCfg.FoliageSeed = cfg.Game.FoliageSeed
	}
	arena := world.NewArena(world.DefaultWalls, arenaCfg, physics.DefaultProbeConfig())

	// === СЕССИИ ===
	manager, err := game.NewManager(game.ManagerOptions{
		Arena:            arena,
		Loader:           loader,
		Tuning:           game.TuningFromConfig(cfg.Game),
		Assets:           game.AssetPathsFromConfig(cfg.Assets),
		TickInterval:     cfg.Server.GetTickInterval(),
		AutosaveInterval: cfg.Server.GetAutosaveInterval(),
		MaxSessions:      cfg.Server.GetMaxSessions(),
		AutoStart:        cfg.Game.AutoStart,
		Bus:              bus,
		Positions:        positions,
		Results:          results,
		Metrics:          game.NewMetrics(reg),
	})
	if err != nil {
		return err
	}
	defer manager.Close()

	loopDone := make(chan error, 1)
	go func() { loopDone <- manager.Run(ctx) }()

	// === REST API ===
	tokens, err := auth.NewTokenIssuer(cfg.Auth.GetJWTSecret(), cfg.Auth.GetTokenTTL())
	if err != nil {
		return err
	}

	hostname, _ := os.Hostname()
	webhooks, err := api.NewOutboundWebhookManager(hostname, cfg.Webhooks)
	if err != nil {
		return err
	}
	if err := webhooks.Start(ctx, bus); err != nil {
		return err
	}
	defer webhooks.Stop()

	if cfg.Auth.AdminKeyHash == "" {
		logging.Warn("🔐 admin_key_hash не задан, /api/admin отключён")
	}

	server, err := api.NewRestServer(api.Config{
		Port:         fmt.Sprintf(":%d", cfg.Server.GetRESTPort()),
		ServiceName:  cfg.Telemetry.GetServiceName(),
		Manager:      manager,
		Tokens:       tokens,
		AdminKeyHash: cfg.Auth.AdminKeyHash,
		Webhooks:     webhooks,
		Registerer:   reg,
		Gatherer:     reg,
	})
	if err != nil {
		return err
	}

	serverErr := make(chan error, 1)
	go func() { serverErr <- server.Start() }()

	logging.Info("✅ Сервер готов: REST :%d, метрики :%d, тик %v",
		cfg.Server.GetRESTPort(), cfg.Server.GetMetricsPort(), cfg.Server.GetTickInterval())

	select {
	case <-ctx.Done():
		logging.Info("📡 Получен сигнал завершения...")
	case err := <-serverErr:
		if err != nil {
			logging.Error("REST API остановлен: %v", err)
		}
		stop()
	}

	// === GRACEFUL SHUTDOWN ===
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки REST API: %v", err)
	}
	if err := <-loopDone; err != nil {
		logging.Error("Игровой цикл: %v", err)
	}

	logging.Info("👋 Сервер успешно остановлен")
	return nil
}

// openBus выбирает JetStream при заданном URL, иначе шину в памяти
func openBus(cfg config.EventBusConfig) (eventbus.EventBus, error) {
	url := cfg.GetURL()
	if url == "" {
		logging.Info("🚌 Шина событий в памяти")
		return eventbus.NewMemoryBus(1024), nil
	}
	bus, err := eventbus.NewJetStreamBus(url, cfg.GetStream(), cfg.GetRetention())
	if err != nil {
		return nil, fmt.Errorf("connect JetStream %s: %w", url, err)
	}
	logging.Info("🚌 Шина событий JetStream %s (stream %s)", url, cfg.GetStream())
	return bus, nil
}
