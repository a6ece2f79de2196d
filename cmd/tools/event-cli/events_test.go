package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/chase-arena/internal/eventbus"
)

func envelope(t *testing.T, eventType, session string) *eventbus.Envelope {
	t.Helper()
	ev, err := eventbus.NewEnvelope(eventType, "game", nil)
	require.NoError(t, err)
	ev.CorrelationID = session
	return ev
}

func TestParseSinceTime(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	got, err := parseSinceTime("30m", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-30*time.Minute), got)

	got, err = parseSinceTime("2d", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-48*time.Hour), got)

	got, err = parseSinceTime("2024-05-01T00:00:00Z", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), got)

	got, err = parseSinceTime("", now)
	require.NoError(t, err)
	assert.Equal(t, now, got)

	_, err = parseSinceTime("yesterday", now)
	assert.Error(t, err)
}

func TestParseStringList(t *testing.T) {
	assert.Nil(t, parseStringList(""))
	assert.Equal(t, []string{"GameWon", "GameLost"}, parseStringList(" GameWon, ,GameLost "))
}

func TestEventFilter(t *testing.T) {
	won := envelope(t, eventbus.EventGameWon, "a")

	assert.True(t, EventFilter{}.Match(won))
	assert.True(t, EventFilter{Types: []string{"gamewon"}}.Match(won))
	assert.False(t, EventFilter{Types: []string{eventbus.EventGameLost}}.Match(won))
	assert.True(t, EventFilter{Sessions: []string{"a"}}.Match(won))
	assert.False(t, EventFilter{Types: []string{eventbus.EventGameWon}, Sessions: []string{"b"}}.Match(won))
}

func TestEventStats(t *testing.T) {
	stats := NewEventStats()
	_, ok := stats.WinRate()
	assert.False(t, ok)

	for _, ev := range []*eventbus.Envelope{
		envelope(t, eventbus.EventSessionCreated, "a"),
		envelope(t, eventbus.EventSessionCreated, "b"),
		envelope(t, eventbus.EventSessionCreated, "c"),
		envelope(t, eventbus.EventGameWon, "a"),
		envelope(t, eventbus.EventGameLost, "b"),
		envelope(t, eventbus.EventGameLost, "c"),
	} {
		stats.Add(ev)
	}

	assert.Equal(t, 6, stats.Total)
	assert.Len(t, stats.Sessions, 3)
	assert.Equal(t, []string{eventbus.EventSessionCreated, eventbus.EventGameLost, eventbus.EventGameWon}, stats.SortedTypes())

	rate, ok := stats.WinRate()
	require.True(t, ok)
	assert.InDelta(t, 1.0/3, rate, 1e-12)
}

func TestFormatEvent(t *testing.T) {
	ev := envelope(t, eventbus.EventGameLost, "s-9")
	ev.Payload = []byte(`{"outcome":"lost"}`)

	line := formatEvent(ev)
	assert.Contains(t, line, "[GameLost]")
	assert.Contains(t, line, "session=s-9")
	assert.Contains(t, line, `{"outcome":"lost"}`)
}
