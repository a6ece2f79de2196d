package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	nats "github.com/nats-io/nats.go"

	"github.com/annel0/chase-arena/internal/eventbus"
	"github.com/annel0/chase-arena/internal/storage"
)

const (
	defaultNatsURL = "nats://127.0.0.1:4222"
	defaultStream  = "ARENA_EVENTS"
	defaultAPI     = "http://localhost:8088"
	timeFormat     = "2006-01-02T15:04:05Z"
	idleTimeout    = 2 * time.Second
)

func main() {
	var (
		natsURL    = flag.String("nats", envOr("NATS_URL", defaultNatsURL), "NATS server URL")
		stream     = flag.String("stream", defaultStream, "JetStream stream name")
		apiURL     = flag.String("api", defaultAPI, "REST API base URL (results)")
		adminKey   = flag.String("admin-key", os.Getenv("ARENA_ADMIN_KEY"), "X-Admin-Key for /api/admin")
		command    = flag.String("cmd", "tail", "Command: tail, stats, types, results")
		eventTypes = flag.String("types", "", "Event types filter (comma-separated)")
		sessions   = flag.String("sessions", "", "Session IDs filter (comma-separated)")
		since      = flag.String("since", "1h", "Time duration since now (e.g., 1h, 30m, 1d)")
		limit      = flag.Int("limit", 100, "Maximum number of events")
		follow     = flag.Bool("follow", false, "Follow new events (like tail -f)")
	)
	flag.Parse()

	filter := EventFilter{
		Types:    parseStringList(*eventTypes),
		Sessions: parseStringList(*sessions),
	}

	var err error
	switch *command {
	case "tail", "stats":
		var start time.Time
		start, err = parseSinceTime(*since, time.Now())
		if err != nil {
			log.Fatalf("❌ Invalid since: %v", err)
		}
		nc, js, cerr := connect(*natsURL)
		if cerr != nil {
			log.Fatalf("❌ %v", cerr)
		}
		defer nc.Close()

		if *command == "tail" {
			err = tailEvents(js, *stream, filter, start, *limit, *follow)
		} else {
			err = showStats(js, *stream, filter, start)
		}
	case "types":
		showTypes()
	case "results":
		err = showResults(*apiURL, *adminKey, *limit)
	default:
		fmt.Printf("❌ Unknown command: %s\n", *command)
		fmt.Println("Available commands: tail, stats, types, results")
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("❌ %s failed: %v", *command, err)
	}
}

func connect(url string) (*nats.Conn, nats.JetStreamContext, error) {
	nc, err := nats.Connect(url, nats.Name("arena-event-cli"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("jetstream: %w", err)
	}
	return nc, js, nil
}

// readEvents читает стрим с момента start через ordered consumer.
// Без follow чтение заканчивается, когда новых сообщений нет idleTimeout.
func readEvents(js nats.JetStreamContext, stream string, start time.Time, follow bool, fn func(*eventbus.Envelope) bool) error {
	sub, err := js.SubscribeSync(eventbus.SubjectPrefix+"*",
		nats.BindStream(stream),
		nats.OrderedConsumer(),
		nats.StartTime(start),
	)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", stream, err)
	}
	defer func() { _ = sub.Unsubscribe() }()

	for {
		msg, err := sub.NextMsg(idleTimeout)
		if errors.Is(err, nats.ErrTimeout) {
			if follow {
				continue
			}
			return nil
		}
		if err != nil {
			return err
		}

		var ev eventbus.Envelope
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			fmt.Fprintf(os.Stderr, "⚠️  skip malformed message on %s: %v\n", msg.Subject, err)
			continue
		}
		if !fn(&ev) {
			return nil
		}
	}
}

// tailEvents выводит события стрима
func tailEvents(js nats.JetStreamContext, stream string, filter EventFilter, start time.Time, limit int, follow bool) error {
	fmt.Printf("🎬 Tailing %s since %s (limit: %d, follow: %v)\n", stream, start.UTC().Format(timeFormat), limit, follow)

	count := 0
	err := readEvents(js, stream, start, follow, func(ev *eventbus.Envelope) bool {
		if !filter.Match(ev) {
			return true
		}
		fmt.Println(formatEvent(ev))
		count++
		return follow || count < limit
	})
	fmt.Printf("\n📊 Total events: %d\n", count)
	return err
}

// showStats считает события по типам и исходы партий
func showStats(js nats.JetStreamContext, stream string, filter EventFilter, start time.Time) error {
	fmt.Println("📊 Event statistics")

	stats := NewEventStats()
	err := readEvents(js, stream, start, false, func(ev *eventbus.Envelope) bool {
		if filter.Match(ev) {
			stats.Add(ev)
		}
		return true
	})
	if err != nil {
		return err
	}

	fmt.Printf("Period: %s - now\n", start.UTC().Format(timeFormat))
	fmt.Printf("Total events: %d, sessions: %d\n", stats.Total, len(stats.Sessions))
	fmt.Println("\nBy event type:")
	for _, t := range stats.SortedTypes() {
		fmt.Printf("  %s: %d events\n", t, stats.ByType[t])
	}
	if rate, ok := stats.WinRate(); ok {
		fmt.Printf("\nWin rate: %.1f%%\n", rate*100)
	}
	return nil
}

// showTypes выводит известные типы событий
func showTypes() {
	fmt.Println("📋 Event types")
	for _, t := range eventbus.KnownTypes {
		fmt.Printf("  %-18s %s\n", t.Type, t.Description)
	}
}

// showResults читает последние итоги партий через REST API
func showResults(apiURL, adminKey string, limit int) error {
	if adminKey == "" {
		return errors.New("admin key is required (-admin-key or ARENA_ADMIN_KEY)")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	url := fmt.Sprintf("%s/api/admin/results?limit=%d", strings.TrimRight(apiURL, "/"), limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Admin-Key", adminKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var body struct {
		Success bool                    `json:"success"`
		Message string                  `json:"message"`
		Data    []storage.SessionResult `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if !body.Success {
		return fmt.Errorf("status %d: %s", resp.StatusCode, body.Message)
	}

	sort.SliceStable(body.Data, func(i, j int) bool { return body.Data[i].FinishedAt.After(body.Data[j].FinishedAt) })
	fmt.Printf("🏁 Last %d results\n", len(body.Data))
	for _, r := range body.Data {
		fmt.Printf("[%s] %s %-6s %-5s %5d ticks %v\n",
			r.FinishedAt.Format("15:04:05"), r.SessionID, r.Mode, r.Outcome, r.Ticks, r.Duration.Round(time.Millisecond))
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
