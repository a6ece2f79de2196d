package replay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec_RoundTrip(t *testing.T) {
	codec, err := NewCodec()
	require.NoError(t, err)
	defer codec.Close()

	rec := NewRecorder("session-1", "normal", 42)
	for tick := uint64(0); tick < 500; tick++ {
		rec.Record(tick, "w", tick%2 == 0)
	}
	rec.Finish(500, "won")

	data, err := codec.Encode(rec.Snapshot())
	require.NoError(t, err)

	back, err := codec.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "session-1", back.SessionID)
	assert.Equal(t, int64(42), back.Seed)
	assert.Equal(t, "won", back.Outcome)
	assert.Len(t, back.Events, 500)
	assert.Equal(t, InputEvent{Tick: 499, Key: "w", Down: false}, back.Events[499])
}

func TestCodec_CompressesRepetitiveInput(t *testing.T) {
	codec, err := NewCodec()
	require.NoError(t, err)
	defer codec.Close()

	rec := NewRecorder("s", "walk", 1)
	for tick := uint64(0); tick < 2000; tick++ {
		rec.Record(tick, "a", true)
	}
	data, err := codec.Encode(rec.Snapshot())
	require.NoError(t, err)
	assert.Less(t, len(data), 2000*10, "сжатие должно работать")
}

func TestCodec_RejectsGarbage(t *testing.T) {
	codec, err := NewCodec()
	require.NoError(t, err)
	defer codec.Close()

	_, err = codec.Decode([]byte("not zstd"))
	assert.Error(t, err)
}

func TestRecorder_SnapshotIsCopy(t *testing.T) {
	rec := NewRecorder("s", "normal", 1)
	rec.Record(1, "w", true)
	snap := rec.Snapshot()
	rec.Record(2, "w", false)

	assert.Len(t, snap.Events, 1)
	assert.Equal(t, 2, rec.Len())
}
