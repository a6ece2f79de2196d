package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/annel0/chase-arena/internal/eventbus"
)

// EventFilter отбирает события по типу и сессии. Пустой список - без ограничения.
type EventFilter struct {
	Types    []string
	Sessions []string
}

func (f EventFilter) Match(ev *eventbus.Envelope) bool {
	return contains(f.Types, ev.EventType) && contains(f.Sessions, ev.CorrelationID)
}

func contains(list []string, v string) bool {
	if len(list) == 0 {
		return true
	}
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}

// EventStats агрегирует прочитанные события
type EventStats struct {
	Total    int
	ByType   map[string]int
	Sessions map[string]struct{}
}

func NewEventStats() *EventStats {
	return &EventStats{
		ByType:   make(map[string]int),
		Sessions: make(map[string]struct{}),
	}
}

func (s *EventStats) Add(ev *eventbus.Envelope) {
	s.Total++
	s.ByType[ev.EventType]++
	if ev.CorrelationID != "" {
		s.Sessions[ev.CorrelationID] = struct{}{}
	}
}

// SortedTypes - типы по убыванию числа событий, при равенстве по имени
func (s *EventStats) SortedTypes() []string {
	types := make([]string, 0, len(s.ByType))
	for t := range s.ByType {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool {
		if s.ByType[types[i]] != s.ByType[types[j]] {
			return s.ByType[types[i]] > s.ByType[types[j]]
		}
		return types[i] < types[j]
	})
	return types
}

// WinRate - доля побед среди завершённых партий; false, если партий не было
func (s *EventStats) WinRate() (float64, bool) {
	won, lost := s.ByType[eventbus.EventGameWon], s.ByType[eventbus.EventGameLost]
	if won+lost == 0 {
		return 0, false
	}
	return float64(won) / float64(won+lost), true
}

// formatEvent выводит событие в одну строку
func formatEvent(ev *eventbus.Envelope) string {
	line := fmt.Sprintf("[%s] %s [%s] %s",
		ev.Timestamp.Local().Format("15:04:05"),
		ev.Source,
		ev.EventType,
		ev.ID)
	if ev.CorrelationID != "" {
		line += " session=" + ev.CorrelationID
	}
	if len(ev.Payload) > 0 {
		line += "\n  " + string(ev.Payload)
	}
	return line
}

// parseStringList парсит строку с разделителями-запятыми
func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// parseSinceTime парсит относительное время типа "1h", "30m", "1d"
// или абсолютное в timeFormat
func parseSinceTime(since string, from time.Time) (time.Time, error) {
	if since == "" {
		return from, nil
	}
	if days, ok := strings.CutSuffix(since, "d"); ok {
		n, err := strconv.Atoi(days)
		if err == nil && n >= 0 {
			return from.Add(-time.Duration(n) * 24 * time.Hour), nil
		}
	}
	duration, err := time.ParseDuration(since)
	if err != nil {
		return time.Parse(timeFormat, since)
	}
	return from.Add(-duration), nil
}
