package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/annel0/chase-arena/internal/auth"
	"github.com/annel0/chase-arena/internal/game"
	"github.com/annel0/chase-arena/internal/logging"
	"github.com/annel0/chase-arena/internal/middleware"
)

const version = "v0.3.0"

// RestServer представляет REST API сервер арены
type RestServer struct {
	router       *gin.Engine
	httpServer   *http.Server
	manager      *game.Manager
	tokens       *auth.TokenIssuer
	adminKeyHash string
	metrics      *ServerMetrics
	webhooks     *OutboundWebhookManager
	upgrader     websocket.Upgrader
	streamEvery  time.Duration
	log          *logging.Logger
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port         string // ":8088"
	ServiceName  string
	Manager      *game.Manager
	Tokens       *auth.TokenIssuer
	AdminKeyHash string
	Webhooks     *OutboundWebhookManager
	// StreamInterval - период отправки снимков по websocket
	StreamInterval time.Duration
	Registerer     prometheus.Registerer
	Gatherer       prometheus.Gatherer
}

// NewRestServer создает REST API сервер
func NewRestServer(cfg Config) (*RestServer, error) {
	if cfg.Manager == nil || cfg.Tokens == nil {
		return nil, errors.New("rest server requires a session manager and a token issuer")
	}
	if cfg.Port == "" {
		cfg.Port = ":8088"
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "chase-arena"
	}
	if cfg.StreamInterval <= 0 {
		cfg.StreamInterval = 100 * time.Millisecond
	}
	if cfg.Registerer == nil {
		cfg.Registerer = prometheus.DefaultRegisterer
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}

	router := gin.New()        // без стандартного logger
	router.Use(gin.Recovery()) // только recovery

	// === Observability middleware ===
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(middleware.NewRequestLogger().Handler())

	promMw := middleware.NewPrometheusMiddleware("rest_api", cfg.Registerer)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router, cfg.Gatherer)

	rs := &RestServer{
		router:       router,
		manager:      cfg.Manager,
		tokens:       cfg.Tokens,
		adminKeyHash: cfg.AdminKeyHash,
		metrics:      NewServerMetrics(),
		webhooks:     cfg.Webhooks,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		streamEvery: cfg.StreamInterval,
		log:         logging.GetAPILogger(),
	}
	rs.httpServer = &http.Server{
		Addr:              cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	rs.setupRoutes()
	return rs, nil
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	rs.router.Use(corsMiddleware())

	api := rs.router.Group("/api")
	api.POST("/sessions", rs.handleCreateSession)
	api.GET("/server", rs.handleServerInfo)

	// Эндпоинты одной сессии: нужен токен, выданный при создании
	session := api.Group("/sessions/:id")
	session.Use(rs.sessionAuthMiddleware())
	{
		session.GET("", rs.handleGetSession)
		session.DELETE("", rs.handleDeleteSession)
		session.POST("/keys", rs.handleKey)
		session.POST("/start", rs.handleStart)
		session.POST("/restart", rs.handleRestart)
		session.GET("/stream", rs.handleStream)
	}

	admin := api.Group("/admin")
	admin.Use(rs.adminMiddleware())
	{
		admin.GET("/sessions", rs.handleListSessions)
		admin.GET("/results", rs.handleListResults)
		admin.GET("/results/:id", rs.handleGetResult)

		admin.GET("/webhooks", rs.handleGetOutboundWebhooks)
		admin.POST("/webhooks", rs.handleCreateOutboundWebhook)
		admin.DELETE("/webhooks/:name", rs.handleDeleteOutboundWebhook)
	}

	rs.router.GET("/health", rs.handleHealth)
}

// Handler returns the router for tests and embedding.
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, GenericResponse{Success: false, Message: message})
}

func ok(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, GenericResponse{Success: true, Message: message, Data: data})
}

// handleServerInfo возвращает информацию о процессе сервера
func (rs *RestServer) handleServerInfo(c *gin.Context) {
	stats, err := rs.metrics.Collect()
	if err != nil {
		rs.log.Debug("CPU процесса недоступен: %v", err)
	}

	info := map[string]interface{}{
		"version":       version,
		"name":          "Chase Arena Server",
		"status":        "running",
		"sessions":      len(rs.manager.List()),
		"tick_interval": rs.manager.TickInterval().String(),
		"process":       stats,
	}
	if rs.webhooks != nil {
		info["webhooks"] = len(rs.webhooks.List())
	}
	ok(c, http.StatusOK, "Информация о сервере", info)
}

// handleHealth проверка состояния сервера
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

// Start запускает HTTP сервер и блокируется до Shutdown.
func (rs *RestServer) Start() error {
	rs.log.Info("🌐 REST API слушает %s", rs.httpServer.Addr)
	if err := rs.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("rest server: %w", err)
	}
	return nil
}

// Shutdown останавливает сервер, дожидаясь активных запросов.
func (rs *RestServer) Shutdown(ctx context.Context) error {
	return rs.httpServer.Shutdown(ctx)
}
