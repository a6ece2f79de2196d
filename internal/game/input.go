package game

import "strings"

// Key is one of the four logical movement keys.
type Key string

const (
	KeyForward Key = "w"
	KeyLeft    Key = "a"
	KeyBack    Key = "s"
	KeyRight   Key = "d"
)

// ParseKey maps a key name to a logical key, ignoring case.
func ParseKey(name string) (Key, bool) {
	switch Key(strings.ToLower(strings.TrimSpace(name))) {
	case KeyForward:
		return KeyForward, true
	case KeyLeft:
		return KeyLeft, true
	case KeyBack:
		return KeyBack, true
	case KeyRight:
		return KeyRight, true
	}
	return "", false
}

// Input is the pressed-state table. Repeated key-downs are idempotent.
type Input struct {
	Forward bool `json:"w"`
	Left    bool `json:"a"`
	Back    bool `json:"s"`
	Right   bool `json:"d"`
}

// Set applies a key transition and reports whether the key was recognised.
func (in *Input) Set(name string, down bool) bool {
	key, ok := ParseKey(name)
	if !ok {
		return false
	}
	switch key {
	case KeyForward:
		in.Forward = down
	case KeyLeft:
		in.Left = down
	case KeyBack:
		in.Back = down
	case KeyRight:
		in.Right = down
	}
	return true
}

// Reset отпускает все клавиши
func (in *Input) Reset() {
	*in = Input{}
}

// Throttle returns -1 for forward only, +1 for back only and 0 otherwise.
// The sign matches the local Z axis: forward is -Z.
func (in Input) Throttle() float64 {
	switch {
	case in.Forward && !in.Back:
		return -1
	case in.Back && !in.Forward:
		return 1
	default:
		return 0
	}
}
