package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации сервера арены.
// Нулевые значения означают "использовать значение по умолчанию".
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Game      GameConfig      `yaml:"game"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
	Storage   StorageConfig   `yaml:"storage"`
	Auth      AuthConfig      `yaml:"auth"`
	Assets    AssetsConfig    `yaml:"assets"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Webhooks  []WebhookConfig `yaml:"webhooks"`
}

type ServerConfig struct {
	RESTPort        int `yaml:"rest_port"`
	MetricsPort     int `yaml:"metrics_port"`
	TickRate        int `yaml:"tick_rate"`
	AutosaveSeconds int `yaml:"autosave_seconds"`
	MaxSessions     int `yaml:"max_sessions"`
}

// GameConfig переопределяет игровые константы
type GameConfig struct {
	MoveSpeed       float64 `yaml:"move_speed"`
	RotateSpeed     float64 `yaml:"rotate_speed"`
	WinDistance     float64 `yaml:"win_distance"`
	CatchDistance   float64 `yaml:"catch_distance"`
	EnemySpeed      float64 `yaml:"enemy_speed"`
	AlertRadius     float64 `yaml:"alert_radius"`
	BiteRadius      float64 `yaml:"bite_radius"`
	BiteLoopOnce    bool    `yaml:"bite_loop_once"`
	DeflectionAngle float64 `yaml:"deflection_angle_deg"`
	MapBoundary     float64 `yaml:"map_boundary"`
	DayNightStep    float64 `yaml:"day_night_step"`
	FoliageCount    int     `yaml:"foliage_count"`
	FoliageSeed     int64   `yaml:"foliage_seed"`
	// AutoStart starts new sessions without an explicit start request.
	AutoStart bool `yaml:"auto_start"`
}

type EventBusConfig struct {
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
}

// StorageConfig выбирает бэкенды хранения
type StorageConfig struct {
	// Positions: memory | redis | maria
	Positions string `yaml:"positions"`
	// Results: memory | badger | mongo
	Results string `yaml:"results"`

	Redis    RedisConfig `yaml:"redis"`
	MariaDSN string      `yaml:"maria_dsn"`

	MongoURI      string `yaml:"mongo_uri"`
	MongoDatabase string `yaml:"mongo_database"`

	BadgerPath string `yaml:"badger_path"`
}

type RedisConfig struct {
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	KeyPrefix  string `yaml:"key_prefix"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

type AuthConfig struct {
	JWTSecret       string `yaml:"jwt_secret"`
	TokenTTLMinutes int    `yaml:"token_ttl_minutes"`
	// AdminKeyHash - bcrypt-хеш ключа администратора. Пустой отключает /api/admin.
	AdminKeyHash string `yaml:"admin_key_hash"`
}

type AssetsConfig struct {
	Manifest    string `yaml:"manifest"`
	MapModel    string `yaml:"map_model"`
	PlayerModel string `yaml:"player_model"`
	EnemyModel  string `yaml:"enemy_model"`
	GoalModel   string `yaml:"goal_model"`
}

// WebhookConfig - исходящий webhook, получающий события шины
type WebhookConfig struct {
	Name           string   `yaml:"name"`
	URL            string   `yaml:"url"`
	Secret         string   `yaml:"secret"`
	Events         []string `yaml:"events"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	RetryCount     int      `yaml:"retry_count"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "GAME_REST_PORT", 8088)
}

// GetMetricsPort возвращает Prometheus метрики порт с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "GAME_METRICS_PORT", 2112)
}

// GetTickInterval returns the simulation step. The default 60 Hz matches the
// display cadence the game constants were tuned for.
func (s *ServerConfig) GetTickInterval() time.Duration {
	rate := s.TickRate
	if rate <= 0 {
		rate = 60
	}
	return time.Second / time.Duration(rate)
}

// GetAutosaveInterval возвращает период автосохранения позиций
func (s *ServerConfig) GetAutosaveInterval() time.Duration {
	if s.AutosaveSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(s.AutosaveSeconds) * time.Second
}

// GetMaxSessions возвращает лимит одновременных сессий
func (s *ServerConfig) GetMaxSessions() int {
	if s.MaxSessions <= 0 {
		return 256
	}
	return s.MaxSessions
}

// GetURL возвращает адрес NATS; пустая строка значит in-memory шину
func (e *EventBusConfig) GetURL() string {
	return stringWithEnvFallback(e.URL, "NATS_URL", "")
}

// GetStream возвращает имя JetStream потока
func (e *EventBusConfig) GetStream() string {
	if e.Stream == "" {
		return "ARENA_EVENTS"
	}
	return e.Stream
}

// GetRetention возвращает срок хранения событий
func (e *EventBusConfig) GetRetention() time.Duration {
	if e.Retention <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(e.Retention) * time.Hour
}

// GetJWTSecret возвращает секрет подписи токенов: config -> GAME_JWT_SECRET -> dev-значение
func (a *AuthConfig) GetJWTSecret() string {
	return stringWithEnvFallback(a.JWTSecret, "GAME_JWT_SECRET", "chase-arena-dev-secret")
}

// GetTokenTTL возвращает срок жизни токена сессии
func (a *AuthConfig) GetTokenTTL() time.Duration {
	if a.TokenTTLMinutes <= 0 {
		return 2 * time.Hour
	}
	return time.Duration(a.TokenTTLMinutes) * time.Minute
}

// GetManifest возвращает путь к манифесту ассетов
func (a *AssetsConfig) GetManifest() string {
	return stringWithEnvFallback(a.Manifest, "GAME_ASSETS_MANIFEST", "assets/manifest.yaml")
}

// Paths returns the model paths with defaults applied.
func (a *AssetsConfig) Paths() (mapModel, player, enemy, goal string) {
	mapModel = orDefault(a.MapModel, "models/map.glb")
	player = orDefault(a.PlayerModel, "models/wolf.glb")
	enemy = orDefault(a.EnemyModel, "models/enemy.glb")
	goal = orDefault(a.GoalModel, "models/goal.glb")
	return
}

// GetServiceName возвращает имя сервиса для трассировки
func (t *TelemetryConfig) GetServiceName() string {
	return orDefault(t.ServiceName, "chase-arena")
}

// GetEndpoint возвращает OTLP endpoint
func (t *TelemetryConfig) GetEndpoint() string {
	return stringWithEnvFallback(t.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318")
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	// Если порт задан в конфиге и больше 0, используем его
	if configPort > 0 {
		return configPort
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	// Используем дефолтное значение
	return defaultPort
}

// stringWithEnvFallback - то же для строковых значений
func stringWithEnvFallback(value, envVar, def string) string {
	if value != "" {
		return value
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		return envVal
	}
	return def
}

func orDefault(value, def string) string {
	if value == "" {
		return def
	}
	return value
}

// Load читает YAML файл конфигурации.
// Если path == "", пытается прочитать из ENV GAME_CONFIG; если и он пуст,
// возвращает пустую конфигурацию (все значения по умолчанию).
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("GAME_CONFIG")
		if path == "" {
			return &Config{}, nil // конфиг не задан — использовать дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	return Parse(data)
}

// Parse разбирает YAML из памяти
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
