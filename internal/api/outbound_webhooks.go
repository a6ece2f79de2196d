package api

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/annel0/chase-arena/internal/config"
	"github.com/annel0/chase-arena/internal/eventbus"
	"github.com/annel0/chase-arena/internal/logging"
)

const (
	signatureHeader = "X-Webhook-Signature"
	eventTypeHeader = "X-Event-Type"
	allEvents       = "*"
)

var (
	ErrWebhookExists   = errors.New("webhook already exists")
	ErrWebhookNotFound = errors.New("webhook not found")
)

// OutboundWebhook представляет исходящий webhook
type OutboundWebhook struct {
	Name         string     `json:"name" binding:"required"`
	URL          string     `json:"url" binding:"required"`
	Secret       string     `json:"secret,omitempty"`
	Events       []string   `json:"events" binding:"required"` // типы событий шины или "*"
	Timeout      int        `json:"timeout"`                   // секунды
	RetryCount   int        `json:"retry_count"`
	CreatedAt    time.Time  `json:"created_at"`
	LastUsed     *time.Time `json:"last_used,omitempty"`
	Deliveries   int        `json:"deliveries"`
	FailureCount int        `json:"failure_count"`
}

// OutboundWebhookEvent - тело запроса к webhook'у
type OutboundWebhookEvent struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Timestamp int64           `json:"timestamp"`
	ServerID  string          `json:"server_id"`
	SessionID string          `json:"session_id,omitempty"`
	Source    string          `json:"source"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// OutboundWebhookManager подписывается на шину и рассылает события
// подписанным webhook'ам с HMAC-подписью и повторами.
type OutboundWebhookManager struct {
	mu       sync.RWMutex
	webhooks map[string]*OutboundWebhook

	queue      chan OutboundWebhookEvent
	httpClient *http.Client
	serverID   string
	backoff    func(attempt int) time.Duration

	sub      eventbus.Subscription
	stop     chan struct{}
	stopOnce sync.Once
	inflight sync.WaitGroup
	log      *logging.Logger
}

// NewOutboundWebhookManager создает менеджер и заводит webhook'и из конфигурации
func NewOutboundWebhookManager(serverID string, hooks []config.WebhookConfig) (*OutboundWebhookManager, error) {
	owm := &OutboundWebhookManager{
		webhooks:   make(map[string]*OutboundWebhook),
		queue:      make(chan OutboundWebhookEvent, 1000),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		serverID:   serverID,
		backoff:    func(attempt int) time.Duration { return time.Duration(attempt+1) * time.Second },
		stop:       make(chan struct{}),
		log:        logging.GetAPILogger(),
	}
	for _, h := range hooks {
		_, err := owm.Add(OutboundWebhook{
			Name:       h.Name,
			URL:        h.URL,
			Secret:     h.Secret,
			Events:     h.Events,
			Timeout:    h.TimeoutSeconds,
			RetryCount: h.RetryCount,
		})
		if err != nil {
			return nil, fmt.Errorf("webhook %q: %w", h.Name, err)
		}
	}
	return owm, nil
}

// Start подписывает менеджер на все события шины и запускает воркер
func (owm *OutboundWebhookManager) Start(ctx context.Context, bus eventbus.EventBus) error {
	sub, err := bus.Subscribe(ctx, eventbus.Filter{}, func(_ context.Context, ev *eventbus.Envelope) {
		owm.Dispatch(ev)
	})
	if err != nil {
		return fmt.Errorf("subscribe webhooks: %w", err)
	}
	owm.sub = sub
	owm.inflight.Add(1)
	go owm.eventWorker()
	return nil
}

// Stop отписывается от шины и дожидается доставок в полёте
func (owm *OutboundWebhookManager) Stop() {
	owm.stopOnce.Do(func() {
		if owm.sub != nil {
			owm.sub.Unsubscribe()
		}
		close(owm.stop)
	})
	owm.inflight.Wait()
}

func validateWebhook(w OutboundWebhook) error {
	if w.Name == "" {
		return errors.New("name is required")
	}
	u, err := url.Parse(w.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid url %q", w.URL)
	}
	if len(w.Events) == 0 {
		return errors.New("at least one event type is required")
	}
	return nil
}

// Add регистрирует webhook. Имя уникально.
func (owm *OutboundWebhookManager) Add(w OutboundWebhook) (OutboundWebhook, error) {
	if err := validateWebhook(w); err != nil {
		return OutboundWebhook{}, err
	}
	if w.Timeout <= 0 {
		w.Timeout = 30
	}
	if w.RetryCount < 0 {
		w.RetryCount = 0
	}
	w.CreatedAt = time.Now()
	w.LastUsed = nil
	w.Deliveries, w.FailureCount = 0, 0

	owm.mu.Lock()
	defer owm.mu.Unlock()
	if _, exists := owm.webhooks[w.Name]; exists {
		return OutboundWebhook{}, ErrWebhookExists
	}
	owm.webhooks[w.Name] = &w
	return w, nil
}

// Remove удаляет webhook по имени
func (owm *OutboundWebhookManager) Remove(name string) error {
	owm.mu.Lock()
	defer owm.mu.Unlock()
	if _, exists := owm.webhooks[name]; !exists {
		return ErrWebhookNotFound
	}
	delete(owm.webhooks, name)
	return nil
}

// List возвращает копии webhook'ов без секретов, по имени
func (owm *OutboundWebhookManager) List() []OutboundWebhook {
	owm.mu.RLock()
	out := make([]OutboundWebhook, 0, len(owm.webhooks))
	for _, w := range owm.webhooks {
		cp := *w
		cp.Secret = ""
		out = append(out, cp)
	}
	owm.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Dispatch ставит событие шины в очередь. Никогда не блокирует вызывающего.
func (owm *OutboundWebhookManager) Dispatch(ev *eventbus.Envelope) {
	event := OutboundWebhookEvent{
		EventID:   ev.ID,
		EventType: ev.EventType,
		Timestamp: ev.Timestamp.Unix(),
		ServerID:  owm.serverID,
		SessionID: ev.CorrelationID,
		Source:    ev.Source,
		Data:      json.RawMessage(ev.Payload),
	}

	select {
	case <-owm.stop:
	case owm.queue <- event:
	default:
		owm.log.Warn("⚠️  Очередь webhook'ов переполнена, событие %s пропущено", ev.EventType)
	}
}

// eventWorker обрабатывает события из очереди
func (owm *OutboundWebhookManager) eventWorker() {
	defer owm.inflight.Done()
	for {
		select {
		case <-owm.stop:
			return
		case event := <-owm.queue:
			owm.processEvent(event)
		}
	}
}

func (owm *OutboundWebhookManager) processEvent(event OutboundWebhookEvent) {
	owm.mu.RLock()
	targets := make([]OutboundWebhook, 0)
	for _, w := range owm.webhooks {
		if subscribed(w, event.EventType) {
			targets = append(targets, *w)
		}
	}
	owm.mu.RUnlock()

	for _, w := range targets {
		owm.inflight.Add(1)
		go func(w OutboundWebhook) {
			defer owm.inflight.Done()
			err := owm.deliver(w, event)
			owm.record(w.Name, err)
		}(w)
	}
}

func subscribed(w *OutboundWebhook, eventType string) bool {
	for _, e := range w.Events {
		if e == eventType || e == allEvents {
			return true
		}
	}
	return false
}

// deliver отправляет событие, повторяя до RetryCount раз.
// Запрос собирается заново на каждую попытку: тело читается один раз.
func (owm *OutboundWebhookManager) deliver(w OutboundWebhook, event OutboundWebhookEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	var signature string
	if w.Secret != "" {
		signature = Sign(body, w.Secret)
	}

	var lastErr error
	for attempt := 0; attempt <= w.RetryCount; attempt++ {
		if attempt > 0 {
			select {
			case <-owm.stop:
				return fmt.Errorf("stopped after %d attempts: %w", attempt, lastErr)
			case <-time.After(owm.backoff(attempt - 1)):
			}
		}

		lastErr = owm.post(w, event.EventType, body, signature)
		if lastErr == nil {
			owm.log.Debug("✅ Событие %s доставлено в webhook %s", event.EventType, w.Name)
			return nil
		}
		owm.log.Warn("⚠️  Попытка %d/%d для webhook %s: %v", attempt+1, w.RetryCount+1, w.Name, lastErr)
	}
	return lastErr
}

func (owm *OutboundWebhookManager) post(w OutboundWebhook, eventType string, body []byte, signature string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(w.Timeout)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Chase-Arena-Server/"+version)
	req.Header.Set(eventTypeHeader, eventType)
	if signature != "" {
		req.Header.Set(signatureHeader, signature)
	}

	resp, err := owm.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

func (owm *OutboundWebhookManager) record(name string, err error) {
	owm.mu.Lock()
	defer owm.mu.Unlock()
	w, exists := owm.webhooks[name]
	if !exists {
		return
	}
	now := time.Now()
	w.LastUsed = &now
	if err != nil {
		w.FailureCount++
		owm.log.Error("❌ Webhook %s: событие не доставлено: %v", name, err)
		return
	}
	w.Deliveries++
}

// Sign возвращает HMAC-SHA256 подпись тела в формате "sha256=<hex>"
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// === Admin handlers ===

func (rs *RestServer) handleGetOutboundWebhooks(c *gin.Context) {
	if rs.webhooks == nil {
		fail(c, http.StatusServiceUnavailable, "Webhook'и отключены")
		return
	}
	ok(c, http.StatusOK, "Исходящие webhook'и", rs.webhooks.List())
}

func (rs *RestServer) handleCreateOutboundWebhook(c *gin.Context) {
	if rs.webhooks == nil {
		fail(c, http.StatusServiceUnavailable, "Webhook'и отключены")
		return
	}
	var req OutboundWebhook
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат webhook'а: "+err.Error())
		return
	}
	w, err := rs.webhooks.Add(req)
	switch {
	case errors.Is(err, ErrWebhookExists):
		fail(c, http.StatusConflict, err.Error())
		return
	case err != nil:
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	w.Secret = ""
	ok(c, http.StatusCreated, "Webhook создан", w)
}

func (rs *RestServer) handleDeleteOutboundWebhook(c *gin.Context) {
	if rs.webhooks == nil {
		fail(c, http.StatusServiceUnavailable, "Webhook'и отключены")
		return
	}
	if err := rs.webhooks.Remove(c.Param("name")); err != nil {
		fail(c, http.StatusNotFound, err.Error())
		return
	}
	ok(c, http.StatusOK, "Webhook удалён", nil)
}
