package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Button is a clickable UI button
type Button struct {
	Label   string
	X, Y    float64
	Width   float64
	Height  float64
	clicked bool   // Track if already clicked this frame
	OnClick func() // Callback function

	// Active highlights the button, e.g. the selected theme.
	Active bool

	// Styling
	BGColor     color.RGBA
	HoverColor  color.RGBA
	ActiveColor color.RGBA
	TextColor   color.RGBA
}

// NewButton creates a new button instance
func NewButton(x, y, width, height float64, label string, onClick func()) *Button {
	return &Button{
		Label:       label,
		X:           x,
		Y:           y,
		Width:       width,
		Height:      height,
		OnClick:     onClick,
		BGColor:     color.RGBA{R: 80, G: 120, B: 180, A: 255},
		HoverColor:  color.RGBA{R: 100, G: 150, B: 220, A: 255},
		ActiveColor: color.RGBA{R: 60, G: 160, B: 90, A: 255},
		TextColor:   color.RGBA{R: 255, G: 255, B: 255, A: 255},
	}
}

func (b *Button) isOver() bool {
	mx, my := ebiten.CursorPosition()
	return float64(mx) >= b.X && float64(mx) <= b.X+b.Width &&
		float64(my) >= b.Y && float64(my) <= b.Y+b.Height
}

// Update fires OnClick once per press while the cursor is over the button.
func (b *Button) Update() {
	if b.isOver() && ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		if !b.clicked && b.OnClick != nil {
			b.OnClick()
			b.clicked = true
		}
	} else {
		b.clicked = false
	}
}

// Draw renders the button
func (b *Button) Draw(screen *ebiten.Image) {
	// Choose color based on state
	bgColor := b.BGColor
	switch {
	case b.Active:
		bgColor = b.ActiveColor
	case b.isOver():
		bgColor = b.HoverColor
	}

	// Draw button background
	vector.FillRect(screen,
		float32(b.X), float32(b.Y),
		float32(b.Width), float32(b.Height),
		bgColor, true)

	// Draw border
	vector.StrokeRect(screen,
		float32(b.X), float32(b.Y),
		float32(b.Width), float32(b.Height),
		2, color.RGBA{R: 200, G: 200, B: 200, A: 255}, true)

	// Centered label (debug font glyphs are 6x16)
	tx := b.X + (b.Width-float64(6*len(b.Label)))/2
	ty := b.Y + (b.Height-16)/2
	ebitenutil.DebugPrintAt(screen, b.Label, int(tx), int(ty))
}
