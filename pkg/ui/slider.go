package ui

import (
	"fmt"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Slider is a simple UI widget
type Slider struct {
	Label    string
	Value    float64
	Min, Max float64
	// Step snaps the value to multiples of Step above Min (0 = continuous).
	Step float64
	X, Y float64
	W, H float64

	dragging bool
}

// NewSlider creates a slider of width w; the value is clamped into [min, max].
func NewSlider(x, y, w float64, label string, min, max, value float64) *Slider {
	s := &Slider{
		Label: label,
		Min:   min,
		Max:   max,
		X:     x,
		Y:     y,
		W:     w,
		H:     12,
	}
	s.SetValue(value)
	return s
}

// SetValue clamps and snaps v before storing it.
func (s *Slider) SetValue(v float64) {
	if s.Step > 0 {
		v = s.Min + math.Round((v-s.Min)/s.Step)*s.Step
	}
	s.Value = math.Max(s.Min, math.Min(s.Max, v))
}

// Update checks for mouse interaction. A drag started on the slider keeps
// tracking the cursor until the button is released.
func (s *Slider) Update() {
	mx, my := ebiten.CursorPosition()
	if !ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		s.dragging = false
		return
	}
	if !s.dragging {
		s.dragging = float64(mx) >= s.X && float64(mx) <= s.X+s.W &&
			float64(my) >= s.Y && float64(my) <= s.Y+s.H
	}
	if s.dragging && s.W > 0 {
		// Calculate value based on horizontal position
		p := (float64(mx) - s.X) / s.W
		s.SetValue(s.Min + p*(s.Max-s.Min))
	}
}

// Draw renders the slider
func (s *Slider) Draw(screen *ebiten.Image) {
	// Draw Background (Dark Gray)
	vector.FillRect(screen, float32(s.X), float32(s.Y), float32(s.W), float32(s.H), color.RGBA{R: 80, G: 80, B: 80, A: 255}, true)

	// Draw Value Bar (Light Gray/White)
	ratio := 0.0
	if s.Max > s.Min {
		ratio = (s.Value - s.Min) / (s.Max - s.Min)
	}
	vector.FillRect(screen, float32(s.X), float32(s.Y), float32(s.W*ratio), float32(s.H), color.RGBA{R: 200, G: 200, B: 200, A: 255}, true)

	// Current value, right aligned above the bar (debug font is 6px wide)
	txt := s.format()
	ebitenutil.DebugPrintAt(screen, txt, int(s.X+s.W)-6*len(txt), int(s.Y)-15)
}

func (s *Slider) format() string {
	if s.Step >= 1 {
		return fmt.Sprintf("%.0f", s.Value)
	}
	return fmt.Sprintf("%.2f", s.Value)
}
