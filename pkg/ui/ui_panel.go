package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	sectionHeight = 25.0
	titleHeight   = 30.0
)

// UIWidget is an interface for all UI widgets
type UIWidget interface {
	Update()
	Draw(screen *ebiten.Image)
	GetHeight() float64
	// SetY moves the widget; the panel lays widgets out every frame.
	SetY(y float64)
}

// SliderWrapper wraps our existing Slider to implement UIWidget
type SliderWrapper struct {
	*Slider
}

func (s *SliderWrapper) GetHeight() float64 {
	return s.H + 25 // Slider height + label space
}

func (s *SliderWrapper) SetY(y float64) { s.Y = y + 15 }

// CheckboxWrapper wraps Checkbox to implement UIWidget
type CheckboxWrapper struct {
	*Checkbox
}

func (c *CheckboxWrapper) GetHeight() float64 {
	return c.Size + 5 // Checkbox size + small margin
}

func (c *CheckboxWrapper) SetY(y float64) { c.Y = y }

// ButtonRow lays out buttons side by side on one line.
type ButtonRow struct {
	Buttons []*Button
}

func (r *ButtonRow) Update() {
	for _, b := range r.Buttons {
		b.Update()
	}
}

func (r *ButtonRow) Draw(screen *ebiten.Image) {
	for _, b := range r.Buttons {
		b.Draw(screen)
	}
}

func (r *ButtonRow) GetHeight() float64 {
	if len(r.Buttons) == 0 {
		return 0
	}
	return r.Buttons[0].Height + 6
}

func (r *ButtonRow) SetY(y float64) {
	for _, b := range r.Buttons {
		b.Y = y
	}
}

// UIPanel manages a collection of UI widgets in a scrollable panel
type UIPanel struct {
	Title         string
	X, Y          float64 // Panel position
	Width, Height float64 // Panel dimensions
	Widgets       []UIWidget
	Labels        []string // Labels drawn above sliders
	ScrollOffset  float64  // Current scroll position
	Hidden        bool

	// Styling
	BGColor     color.RGBA
	BorderColor color.RGBA
	TextColor   color.RGBA

	// Section headers
	sections []PanelSection
	// visible marks widgets laid out inside the panel during the last Draw
	visible []bool
	// headerY holds the on-screen y of each section header during the last Draw
	headerY []float64
}

// PanelSection represents a collapsible section in the panel
type PanelSection struct {
	Title      string
	StartIndex int // Widget index where this section starts
	EndIndex   int // Widget index where this section ends (exclusive)
	Collapsed  bool
}

// NewUIPanel creates a new UI panel
func NewUIPanel(x, y, width, height float64) *UIPanel {
	return &UIPanel{
		Title:        "Configuration",
		X:            x,
		Y:            y,
		Width:        width,
		Height:       height,
		Widgets:      make([]UIWidget, 0),
		Labels:       make([]string, 0),
		ScrollOffset: 0,
		BGColor:      color.RGBA{R: 40, G: 40, B: 45, A: 230},
		BorderColor:  color.RGBA{R: 100, G: 100, B: 110, A: 255},
		TextColor:    color.RGBA{R: 220, G: 220, B: 220, A: 255},
		sections:     make([]PanelSection, 0),
	}
}

// AddSection adds a section header
func (p *UIPanel) AddSection(title string) {
	p.sections = append(p.sections, PanelSection{
		Title:      title,
		StartIndex: len(p.Widgets),
		Collapsed:  false,
	})
}

// EndSection closes the current section
func (p *UIPanel) EndSection() {
	if len(p.sections) > 0 {
		p.sections[len(p.sections)-1].EndIndex = len(p.Widgets)
	}
}

// CollapseSection folds the section with the given title.
func (p *UIPanel) CollapseSection(title string, collapsed bool) {
	for i := range p.sections {
		if p.sections[i].Title == title {
			p.sections[i].Collapsed = collapsed
		}
	}
}

func (p *UIPanel) add(w UIWidget, label string) {
	p.Widgets = append(p.Widgets, w)
	p.Labels = append(p.Labels, label)
	p.visible = append(p.visible, false)
}

// AddSlider adds a slider widget to the panel
func (p *UIPanel) AddSlider(label string, min, max, value float64) *Slider {
	// Calculate position within panel
	yOffset := p.calculateNextYOffset()

	slider := NewSlider(
		p.X+10,         // X position with margin
		p.Y+yOffset+20, // Y position
		p.Width-20,     // Width with margins
		label,
		min, max, value,
	)

	p.add(&SliderWrapper{slider}, label)
	return slider
}

// AddIntSlider adds a slider snapping to whole numbers.
func (p *UIPanel) AddIntSlider(label string, min, max, value int) *Slider {
	s := p.AddSlider(label, float64(min), float64(max), float64(value))
	s.Step = 1
	s.SetValue(float64(value))
	return s
}

// AddCheckbox adds a checkbox widget to the panel
func (p *UIPanel) AddCheckbox(label string, value bool) *Checkbox {
	yOffset := p.calculateNextYOffset()

	checkbox := NewCheckbox(
		p.X+10,
		p.Y+yOffset+20,
		label,
		value,
	)
	checkbox.HitWidth = p.Width - 20

	// the checkbox draws its own label
	p.add(&CheckboxWrapper{checkbox}, "")
	return checkbox
}

// AddButtons adds a row of equally wide buttons; onClick receives the index of the pressed one.
func (p *UIPanel) AddButtons(labels []string, onClick func(i int)) []*Button {
	yOffset := p.calculateNextYOffset()
	row := &ButtonRow{}
	if len(labels) == 0 {
		return nil
	}
	const gap = 6.0
	w := (p.Width - 20 - gap*float64(len(labels)-1)) / float64(len(labels))
	for i, label := range labels {
		i := i
		b := NewButton(p.X+10+float64(i)*(w+gap), p.Y+yOffset+20, w, 22, label, func() {
			if onClick != nil {
				onClick(i)
			}
		})
		row.Buttons = append(row.Buttons, b)
	}
	p.add(row, "")
	return row.Buttons
}

// calculateNextYOffset calculates the Y offset for the next widget
func (p *UIPanel) calculateNextYOffset() float64 {
	offset := 0.0

	// Add section header heights
	for range p.sections {
		offset += sectionHeight
	}

	// Add all widget heights
	for _, widget := range p.Widgets {
		offset += widget.GetHeight()
	}

	return offset
}

// Contains reports whether the screen point (x, y) is over the panel.
func (p *UIPanel) Contains(x, y int) bool {
	if p.Hidden {
		return false
	}
	return float64(x) >= p.X && float64(x) <= p.X+p.Width &&
		float64(y) >= p.Y && float64(y) <= p.Y+p.Height
}

// Update handles input for all visible widgets
func (p *UIPanel) Update() {
	if p.Hidden {
		return
	}
	mx, my := ebiten.CursorPosition()

	// Handle scroll
	if p.Contains(mx, my) {
		_, dy := ebiten.Wheel()
		if dy != 0 {
			p.ScrollOffset -= dy * 20
			p.clampScroll()
		}
	}

	// Toggle sections on header click
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) && p.Contains(mx, my) {
		for i, y := range p.headerY {
			if float64(my) >= y && float64(my) <= y+20 {
				p.sections[i].Collapsed = !p.sections[i].Collapsed
				p.clampScroll()
				return
			}
		}
	}

	// Update all visible widgets
	for i, widget := range p.Widgets {
		if p.visible[i] {
			widget.Update()
		}
	}
}

func (p *UIPanel) clampScroll() {
	maxScroll := p.calculateTotalHeight() - p.Height + 40
	if maxScroll < 0 {
		maxScroll = 0
	}
	if p.ScrollOffset > maxScroll {
		p.ScrollOffset = maxScroll
	}
	if p.ScrollOffset < 0 {
		p.ScrollOffset = 0
	}
}

// Draw renders the panel and all widgets
func (p *UIPanel) Draw(screen *ebiten.Image) {
	if p.Hidden {
		return
	}
	// Draw panel background
	vector.FillRect(screen,
		float32(p.X), float32(p.Y),
		float32(p.Width), float32(p.Height),
		p.BGColor, true)

	// Draw border
	vector.StrokeRect(screen,
		float32(p.X), float32(p.Y),
		float32(p.Width), float32(p.Height),
		2, p.BorderColor, true)

	// Draw title
	ebitenutil.DebugPrintAt(screen, p.Title, int(p.X+10), int(p.Y+5))

	// Draw widgets with clipping and scrolling
	currentY := p.Y + titleHeight - p.ScrollOffset
	p.headerY = p.headerY[:0]
	for i := range p.visible {
		p.visible[i] = false
	}

	for _, section := range p.sections {
		// Draw section header
		p.headerY = append(p.headerY, -1)
		if currentY >= p.Y+titleHeight-5 && currentY+20 <= p.Y+p.Height {
			p.headerY[len(p.headerY)-1] = currentY
			sectionBG := color.RGBA{R: 60, G: 60, B: 70, A: 255}
			vector.FillRect(screen,
				float32(p.X+5), float32(currentY),
				float32(p.Width-10), 20,
				sectionBG, true)
			marker := "-"
			if section.Collapsed {
				marker = "+"
			}
			ebitenutil.DebugPrintAt(screen, marker+" "+section.Title,
				int(p.X+10), int(currentY+2))
		}
		currentY += sectionHeight

		if section.Collapsed {
			continue
		}

		// Draw widgets in this section
		for widgetIdx := section.StartIndex; widgetIdx < section.EndIndex && widgetIdx < len(p.Widgets); widgetIdx++ {
			widget := p.Widgets[widgetIdx]
			label := p.Labels[widgetIdx]

			// Only draw if fully inside the panel
			if currentY >= p.Y+titleHeight-5 && currentY+widget.GetHeight() <= p.Y+p.Height {
				if label != "" {
					ebitenutil.DebugPrintAt(screen, label,
						int(p.X+10), int(currentY))
				}
				widget.SetY(currentY)
				widget.Draw(screen)
				p.visible[widgetIdx] = true
			}

			currentY += widget.GetHeight()
		}
	}
}

// calculateTotalHeight calculates the total content height of expanded sections
func (p *UIPanel) calculateTotalHeight() float64 {
	height := titleHeight

	for _, section := range p.sections {
		height += sectionHeight
		if section.Collapsed {
			continue
		}
		for i := section.StartIndex; i < section.EndIndex && i < len(p.Widgets); i++ {
			height += p.Widgets[i].GetHeight()
		}
	}

	return height
}
