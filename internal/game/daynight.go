package game

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/annel0/chase-arena/internal/vec"
)

const (
	orbitRadius      = 100.0
	sunMaxIntensity  = 1.5
	moonIntensity    = 0.3
	daySkyColor      = 0x87ceeb
	sunsetColor      = 0xff6b35
	nightSkyColor    = 0x0a0a1a
	defaultCycleStep = 0.0007
)

// Lighting is the renderer-facing state derived from the cycle phase.
type Lighting struct {
	Phase         float64       `json:"phase"`
	SunPosition   vec.Vec3Float `json:"sun"`
	MoonPosition  vec.Vec3Float `json:"moon"`
	SunIntensity  float64       `json:"sun_intensity"`
	MoonIntensity float64       `json:"moon_intensity"`
	DayProgress   float64       `json:"day_progress"`
	Background    Color         `json:"background"`
}

// Color is a packed 0xRRGGBB value.
type Color uint32

// Hex formats the color as #rrggbb.
func (c Color) Hex() string {
	return fmt.Sprintf("#%06x", uint32(c))
}

// MarshalText пишет цвет в JSON как "#rrggbb"
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

func (c *Color) UnmarshalText(text []byte) error {
	v, err := strconv.ParseUint(strings.TrimPrefix(string(text), "#"), 16, 32)
	if err != nil || v > 0xffffff {
		return fmt.Errorf("invalid color %q", text)
	}
	*c = Color(v)
	return nil
}

// LerpColor interpolates each channel linearly and rounds.
func LerpColor(a, b Color, t float64) Color {
	ch := func(c Color, shift uint) float64 { return float64((uint32(c) >> shift) & 0xff) }
	mix := func(shift uint) uint32 {
		v := ch(a, shift) + (ch(b, shift)-ch(a, shift))*t
		return uint32(math.Round(math.Max(0, math.Min(255, v))))
	}
	return Color(mix(16)<<16 | mix(8)<<8 | mix(0))
}

// Cycle is the day-night oscillator. The sun sits at phase on a circle in
// the XY plane and the moon opposite it.
type Cycle struct {
	Phase float64
	Step  float64
}

// NewCycle создаёт цикл с нулевой фазой (рассвет)
func NewCycle(step float64) Cycle {
	if step <= 0 {
		step = defaultCycleStep
	}
	return Cycle{Step: step}
}

// Advance moves the phase forward by one tick.
func (c *Cycle) Advance() {
	c.Phase += c.Step
}

// Lighting is a pure function of the phase.
func (c Cycle) Lighting() Lighting {
	sin, cos := math.Sincos(c.Phase)
	l := Lighting{
		Phase:        c.Phase,
		SunPosition:  vec.NewVec3(cos*orbitRadius, sin*orbitRadius, 0),
		MoonPosition: vec.NewVec3(math.Cos(c.Phase+math.Pi)*orbitRadius, math.Sin(c.Phase+math.Pi)*orbitRadius, 0),
		DayProgress:  (sin + 1) / 2,
	}

	if l.SunPosition.Y > 0 {
		l.SunIntensity = sunMaxIntensity * l.DayProgress
		l.Background = LerpColor(daySkyColor, sunsetColor, 1-l.DayProgress)
	} else {
		l.MoonIntensity = moonIntensity
		l.Background = nightSkyColor
	}
	return l
}
