package game

import (
	"context"
	"time"

	"github.com/annel0/chase-arena/internal/eventbus"
	"github.com/annel0/chase-arena/internal/logging"
	"github.com/annel0/chase-arena/internal/vec"
)

const eventSource = "game"

// publishTimeout ограничивает публикацию из тика: сессия держит блокировку,
// а менеджер тикает сессии последовательно.
const publishTimeout = time.Second

// OutcomeEvent is the payload of GameWon and GameLost.
type OutcomeEvent struct {
	SessionID string         `json:"session_id"`
	Mode      string         `json:"mode"`
	Outcome   string         `json:"outcome"`
	Tick      uint64         `json:"tick"`
	Player    *vec.Vec3Float `json:"player,omitempty"`
}

// BusNotifier publishes the outcome on the event bus. The websocket
// stream and any external consumer pick it up from there.
type BusNotifier struct {
	bus       eventbus.EventBus
	sessionID string
	// describe is called under the session lock at transition time.
	describe func() OutcomeEvent
}

// NewBusNotifier создаёт уведомитель для сессии
func NewBusNotifier(bus eventbus.EventBus, sessionID string, describe func() OutcomeEvent) *BusNotifier {
	return &BusNotifier{bus: bus, sessionID: sessionID, describe: describe}
}

func (n *BusNotifier) ShowWin()  { n.publish(eventbus.EventGameWon, Won) }
func (n *BusNotifier) ShowLose() { n.publish(eventbus.EventGameLost, Lost) }

func (n *BusNotifier) publish(eventType string, outcome Outcome) {
	payload := n.describe()
	payload.Outcome = outcome.String()

	ev, err := eventbus.NewEnvelope(eventType, eventSource, payload)
	if err != nil {
		logging.Error("Не удалось собрать событие %s: %v", eventType, err)
		return
	}
	ev.CorrelationID = n.sessionID
	ev.Priority = eventbus.PriorityHigh

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := n.bus.Publish(ctx, ev); err != nil {
		logging.Error("Не удалось опубликовать %s для сессии %s: %v", eventType, n.sessionID, err)
	}
}

// publishLifecycle публикует служебное событие сессии без гарантии доставки
func publishLifecycle(bus eventbus.EventBus, eventType, sessionID string, payload interface{}) {
	if bus == nil {
		return
	}
	ev, err := eventbus.NewEnvelope(eventType, eventSource, payload)
	if err != nil {
		logging.Error("Не удалось собрать событие %s: %v", eventType, err)
		return
	}
	ev.CorrelationID = sessionID

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := bus.Publish(ctx, ev); err != nil {
		logging.Warn("Событие %s не опубликовано: %v", eventType, err)
	}
}
