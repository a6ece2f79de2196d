package api

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/annel0/chase-arena/internal/eventbus"
	"github.com/annel0/chase-arena/internal/game"
)

// Настройки WebSocket
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Типы сообщений потока
const (
	msgSnapshot = "snapshot"
	msgEvent    = "event"
	msgAck      = "ack"
	msgError    = "error"
)

// StreamMessage - сообщение сервер -> клиент
type StreamMessage struct {
	Type    string             `json:"type"`
	Data    interface{}        `json:"data,omitempty"`
	Event   *eventbus.Envelope `json:"event,omitempty"`
	Message string             `json:"message,omitempty"`
}

// StreamCommand - команда клиент -> сервер: key | start | restart
type StreamCommand struct {
	Type string `json:"type"`
	Key  string `json:"key,omitempty"`
	Down bool   `json:"down,omitempty"`
}

// streamEvents - события шины, которые пересылаются в поток сессии
var streamEvents = []string{
	eventbus.EventGameWon,
	eventbus.EventGameLost,
	eventbus.EventSessionStarted,
	eventbus.EventSessionRestarted,
	eventbus.EventAssetFailed,
}

// streamClient - посредник между websocket и менеджером сессий
type streamClient struct {
	rs        *RestServer
	sessionID string
	conn      *websocket.Conn
	send      chan StreamMessage
	done      chan struct{}
	closeOnce sync.Once
}

func (rs *RestServer) handleStream(c *gin.Context) {
	if _, found := rs.session(c); !found {
		return
	}

	conn, err := rs.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		rs.log.Warn("websocket upgrade не удался: %v", err)
		return
	}

	client := &streamClient{
		rs:        rs,
		sessionID: c.Param("id"),
		conn:      conn,
		send:      make(chan StreamMessage, 64),
		done:      make(chan struct{}),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if bus := rs.manager.Bus(); bus != nil {
		sub, err := bus.Subscribe(ctx, eventbus.Filter{
			Types:         streamEvents,
			CorrelationID: client.sessionID,
		}, client.forward)
		if err != nil {
			rs.log.Warn("Поток %s без событий шины: %v", client.sessionID, err)
		} else {
			defer sub.Unsubscribe()
		}
	}

	rs.log.Info("📡 Поток сессии %s открыт", client.sessionID)
	go client.writePump()
	client.readPump()
	rs.log.Info("Поток сессии %s закрыт", client.sessionID)
}

// forward кладёт событие шины в очередь отправки, не блокируя шину
func (sc *streamClient) forward(_ context.Context, ev *eventbus.Envelope) {
	sc.enqueue(StreamMessage{Type: msgEvent, Event: ev})
}

func (sc *streamClient) enqueue(msg StreamMessage) {
	select {
	case <-sc.done:
	case sc.send <- msg:
	default:
		sc.rs.log.Debug("Очередь потока %s полна, %s пропущено", sc.sessionID, msg.Type)
	}
}

func (sc *streamClient) shutdown() {
	sc.closeOnce.Do(func() { close(sc.done) })
}

// readPump читает команды клиента. Единственный читатель соединения.
func (sc *streamClient) readPump() {
	defer func() {
		sc.shutdown()
		_ = sc.conn.Close()
	}()

	sc.conn.SetReadLimit(maxMessageSize)
	if err := sc.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		sc.rs.log.Warn("failed to set read deadline: %v", err)
	}
	sc.conn.SetPongHandler(func(string) error {
		return sc.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var cmd StreamCommand
		if err := sc.conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				sc.rs.log.Warn("Поток %s: %v", sc.sessionID, err)
			}
			return
		}
		sc.handle(cmd)
	}
}

func (sc *streamClient) handle(cmd StreamCommand) {
	switch strings.ToLower(cmd.Type) {
	case "key":
		s, err := sc.rs.manager.Get(sc.sessionID)
		if err != nil {
			sc.enqueue(StreamMessage{Type: msgError, Message: err.Error()})
			return
		}
		sc.enqueue(StreamMessage{Type: msgAck, Data: gin.H{"key": cmd.Key, "accepted": s.KeyEvent(cmd.Key, cmd.Down)}})
	case "start":
		if _, err := sc.rs.manager.Start(sc.sessionID); err != nil {
			sc.enqueue(StreamMessage{Type: msgError, Message: err.Error()})
		}
	case "restart":
		if _, err := sc.rs.manager.Restart(context.Background(), sc.sessionID); err != nil {
			sc.enqueue(StreamMessage{Type: msgError, Message: err.Error()})
		}
	default:
		sc.enqueue(StreamMessage{Type: msgError, Message: "unknown command " + cmd.Type})
	}
}

// writePump шлёт снимки с фиксированным периодом, события и ping.
// Единственный писатель соединения.
func (sc *streamClient) writePump() {
	snapshots := time.NewTicker(sc.rs.streamEvery)
	ping := time.NewTicker(pingPeriod)
	defer func() {
		snapshots.Stop()
		ping.Stop()
		_ = sc.conn.Close()
	}()

	// Первый снимок сразу, не дожидаясь тика
	if !sc.writeSnapshot() {
		return
	}

	for {
		select {
		case <-sc.done:
			_ = sc.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = sc.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case msg := <-sc.send:
			if !sc.write(msg) {
				return
			}
		case <-snapshots.C:
			if !sc.writeSnapshot() {
				return
			}
		case <-ping.C:
			_ = sc.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sc.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// writeSnapshot берёт сессию заново на каждом тике: restart подменяет её под тем же id
func (sc *streamClient) writeSnapshot() bool {
	s, err := sc.rs.manager.Get(sc.sessionID)
	if err != nil {
		_ = sc.conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = sc.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, game.ErrSessionNotFound.Error()))
		return false
	}
	return sc.write(StreamMessage{Type: msgSnapshot, Data: s.Snapshot()})
}

func (sc *streamClient) write(msg StreamMessage) bool {
	_ = sc.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := sc.conn.WriteJSON(msg); err != nil {
		sc.rs.log.Debug("Поток %s: запись не удалась: %v", sc.sessionID, err)
		sc.shutdown()
		return false
	}
	return true
}
