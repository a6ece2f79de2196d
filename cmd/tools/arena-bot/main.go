package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/annel0/chase-arena/internal/api"
	"github.com/annel0/chase-arena/internal/game"
)

// Бот создаёт сессию, открывает поток и ведёт игрока к цели.
// Полезен для ручной проверки сервера и нагрузочных прогонов.
func main() {
	server := flag.String("server", "http://localhost:8088", "arena REST base URL")
	mode := flag.String("mode", "normal", "session mode: normal | walk")
	timeout := flag.Duration("timeout", 2*time.Minute, "give up after this long")
	flag.Parse()

	fmt.Println("=== БОТ АРЕНЫ ===")

	created, err := createSession(*server, *mode)
	if err != nil {
		log.Fatalf("❌ Ошибка создания сессии: %v", err)
	}
	fmt.Printf("✅ Сессия %s (%s)\n", created.SessionID, created.Mode)

	conn, err := dial(*server, created.SessionID, created.Token)
	if err != nil {
		log.Fatalf("❌ Ошибка подключения к потоку: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(api.StreamCommand{Type: "start"}); err != nil {
		log.Fatalf("❌ Ошибка старта: %v", err)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	deadline := time.After(*timeout)

	messages := make(chan api.StreamMessage)
	go readLoop(conn, messages)

	var held game.Input
	for {
		select {
		case <-interrupt:
			fmt.Println("\n⏹️  Прервано")
			return
		case <-deadline:
			fmt.Println("⌛ Время вышло")
			return
		case msg, ok := <-messages:
			if !ok {
				fmt.Println("📴 Поток закрыт сервером")
				return
			}
			switch msg.Type {
			case "event":
				if msg.Event != nil {
					fmt.Printf("📣 %s\n", msg.Event.EventType)
				}
			case "error":
				fmt.Printf("⚠️  %s\n", msg.Message)
			case "snapshot":
				snap, err := decodeSnapshot(msg.Data)
				if err != nil {
					log.Printf("❌ Ошибка разбора снимка: %v", err)
					continue
				}
				if snap.Outcome != game.Playing.String() {
					fmt.Printf("🏁 Итог: %s за %d тиков\n", snap.Outcome, snap.Tick)
					return
				}
				next := decide(snap)
				for _, ch := range diffInput(held, next) {
					cmd := api.StreamCommand{Type: "key", Key: string(ch.key), Down: ch.down}
					if err := conn.WriteJSON(cmd); err != nil {
						log.Fatalf("❌ Ошибка отправки клавиши: %v", err)
					}
				}
				held = next
			}
		}
	}
}

func createSession(server, mode string) (*api.CreateSessionResponse, error) {
	body, _ := json.Marshal(api.CreateSessionRequest{Mode: mode})
	resp, err := http.Post(strings.TrimRight(server, "/")+"/api/sessions", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out struct {
		Success bool                      `json:"success"`
		Message string                    `json:"message"`
		Data    api.CreateSessionResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode (status %d): %w", resp.StatusCode, err)
	}
	if !out.Success {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, out.Message)
	}
	return &out.Data, nil
}

func dial(server, sessionID, token string) (*websocket.Conn, error) {
	u, err := url.Parse(strings.TrimRight(server, "/"))
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path += "/api/sessions/" + sessionID + "/stream"
	u.RawQuery = url.Values{"token": {token}}.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	return conn, err
}

func readLoop(conn *websocket.Conn, out chan<- api.StreamMessage) {
	defer close(out)
	for {
		var msg api.StreamMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		out <- msg
	}
}

// decodeSnapshot: Data приходит как map после общего JSON-декодирования
func decodeSnapshot(data interface{}) (game.Snapshot, error) {
	var snap game.Snapshot
	raw, err := json.Marshal(data)
	if err != nil {
		return snap, err
	}
	err = json.Unmarshal(raw, &snap)
	return snap, err
}
