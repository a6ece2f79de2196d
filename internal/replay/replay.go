// Package replay записывает ввод сессии по тикам и сжимает запись zstd.
// По сиду и журналу клавиш партию можно восстановить.
package replay

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

// InputEvent is one key transition observed before the given tick.
type InputEvent struct {
	Tick uint64 `json:"t"`
	Key  string `json:"k"`
	Down bool   `json:"d"`
}

// Recording is the full input history of one session run.
type Recording struct {
	SessionID string       `json:"session_id"`
	Mode      string       `json:"mode"`
	Seed      int64        `json:"seed"`
	StartedAt time.Time    `json:"started_at"`
	Ticks     uint64       `json:"ticks"`
	Outcome   string       `json:"outcome"`
	Events    []InputEvent `json:"events"`
}

// Recorder собирает события ввода. Безопасен для конкурентного использования.
type Recorder struct {
	mu  sync.Mutex
	rec Recording
}

// NewRecorder начинает новую запись
func NewRecorder(sessionID, mode string, seed int64) *Recorder {
	return &Recorder{rec: Recording{
		SessionID: sessionID,
		Mode:      mode,
		Seed:      seed,
		StartedAt: time.Now().UTC(),
	}}
}

// Record appends a key transition.
func (r *Recorder) Record(tick uint64, key string, down bool) {
	r.mu.Lock()
	r.rec.Events = append(r.rec.Events, InputEvent{Tick: tick, Key: key, Down: down})
	r.mu.Unlock()
}

// Finish stamps the final tick count and outcome.
func (r *Recorder) Finish(ticks uint64, outcome string) {
	r.mu.Lock()
	r.rec.Ticks = ticks
	r.rec.Outcome = outcome
	r.mu.Unlock()
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rec.Events)
}

// Snapshot returns a copy of the recording so far.
func (r *Recorder) Snapshot() Recording {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.rec
	out.Events = append([]InputEvent(nil), r.rec.Events...)
	return out
}

// Codec сжимает записи. Энкодер и декодер zstd переиспользуются между вызовами.
type Codec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewCodec создаёт кодек
func NewCodec() (*Codec, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &Codec{encoder: encoder, decoder: decoder}, nil
}

// Encode serializes rec to JSON and compresses it.
func (c *Codec) Encode(rec Recording) ([]byte, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal recording: %w", err)
	}
	return c.encoder.EncodeAll(raw, make([]byte, 0, len(raw)/2)), nil
}

// Decode reverses Encode.
func (c *Codec) Decode(data []byte) (Recording, error) {
	raw, err := c.decoder.DecodeAll(data, nil)
	if err != nil {
		return Recording{}, fmt.Errorf("decompress recording: %w", err)
	}
	var rec Recording
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Recording{}, fmt.Errorf("unmarshal recording: %w", err)
	}
	return rec, nil
}

// Close releases the decoder goroutines.
func (c *Codec) Close() {
	c.encoder.Close()
	c.decoder.Close()
}
