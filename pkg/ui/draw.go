package ui

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/lao-tseu-is-alive/go-boids3d/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-boids3d/pkg/scene"
	"github.com/lao-tseu-is-alive/go-boids3d/pkg/simulation"
)

// whiteImage is the texture sampled by DrawTriangles; vertex colours tint it.
var whiteImage = ebiten.NewImage(3, 3)

func init() {
	whiteImage.Fill(color.White)
}

// koiColors gives every model id a body colour.
var koiColors = map[string]color.RGBA{
	"Koi_01": {R: 255, G: 120, B: 40, A: 255},
	"Koi_02": {R: 250, G: 250, B: 245, A: 255},
	"Koi_03": {R: 230, G: 60, B: 50, A: 255},
	"Koi_04": {R: 255, G: 200, B: 60, A: 255},
	"Koi_05": {R: 40, G: 40, B: 50, A: 255},
	"Koi_06": {R: 255, G: 160, B: 120, A: 255},
	"Koi_07": {R: 200, G: 90, B: 30, A: 255},
	"Koi_08": {R: 180, G: 220, B: 255, A: 255},
}

var (
	boxColor      = color.RGBA{R: 255, G: 165, B: 0, A: 160}
	wanderColor   = color.RGBA{R: 0, G: 255, B: 0, A: 90}
	alignColor    = color.RGBA{R: 0, G: 0, B: 255, A: 90}
	avoidColor    = color.RGBA{R: 255, G: 0, B: 0, A: 90}
	cohesionColor = color.RGBA{R: 255, G: 255, B: 0, A: 90}
)

// ParseHexColor decodes "#RRGGBB".
func ParseHexColor(s string) (color.RGBA, error) {
	c := color.RGBA{A: 255}
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		return c, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return c, nil
}

// Renderer draws flock snapshots with a perspective camera.
type Renderer struct {
	Camera       *scene.Camera
	Orientations *scene.Orientations

	sky, ground color.RGBA
	theme       string
	order       []int
	vertices    []ebiten.Vertex
	indices     []uint16
}

func NewRenderer(width, height float64) *Renderer {
	r := &Renderer{
		Camera:       scene.NewCamera(width, height),
		Orientations: scene.NewOrientations(0),
	}
	r.SetTheme(simulation.ThemeUnderwater)
	return r
}

// SetTheme switches the background colours; unknown themes are ignored.
func (r *Renderer) SetTheme(name string) {
	if name == r.theme {
		return
	}
	t, err := simulation.LookupTheme(name)
	if err != nil {
		return
	}
	r.theme = name
	r.sky, _ = ParseHexColor(t.Sky)
	r.ground, _ = ParseHexColor(t.Ground)
}

// UpdateCamera orbits with the arrow keys and zooms with PageUp/PageDown.
func (r *Renderer) UpdateCamera() {
	const speed = 0.03
	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		r.Camera.Orbit(-speed, 0)
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		r.Camera.Orbit(speed, 0)
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		r.Camera.Orbit(0, speed)
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		r.Camera.Orbit(0, -speed)
	}
	if ebiten.IsKeyPressed(ebiten.KeyPageUp) {
		r.Camera.Zoom(0.98)
	}
	if ebiten.IsKeyPressed(ebiten.KeyPageDown) {
		r.Camera.Zoom(1.02)
	}
}

// Draw renders snap onto screen. cfg supplies the radii of the debug circles and may be nil.
func (r *Renderer) Draw(screen *ebiten.Image, snap *simulation.WorldSnapshot, cfg *simulation.Config, debug DebugOptions) {
	if snap == nil {
		screen.Fill(r.sky)
		return
	}
	r.SetTheme(snap.Theme)
	screen.Fill(r.sky)
	r.drawGround(screen, snap.Boundaries)

	if debug.Boundaries {
		for _, e := range scene.BoxEdges(snap.Boundaries) {
			r.line(screen, e[0], e[1], boxColor)
		}
	}

	r.Orientations.Resize(len(snap.Boids))
	if snap.Reseeded {
		r.Orientations.Reset()
	}

	// painter's algorithm: far boids first
	r.order = r.order[:0]
	for i := range snap.Boids {
		r.order = append(r.order, i)
	}
	eye := r.Camera.Eye()
	sort.Slice(r.order, func(a, b int) bool {
		return snap.Boids[r.order[a]].Position.DistanceSquaredTo(eye) > snap.Boids[r.order[b]].Position.DistanceSquaredTo(eye)
	})

	r.vertices = r.vertices[:0]
	r.indices = r.indices[:0]
	for _, i := range r.order {
		b := snap.Boids[i]
		rot := r.Orientations.Update(i, b.Velocity)
		r.appendBoid(b, rot)
		if cfg != nil {
			r.drawRadii(screen, b, cfg, debug)
		}
	}
	if len(r.vertices) > 0 {
		screen.DrawTriangles(r.vertices, r.indices, whiteImage, &ebiten.DrawTrianglesOptions{})
	}
}

func (r *Renderer) appendBoid(b simulation.BoidSnapshot, rot geometry.Quaternion) {
	// DrawTriangles takes uint16 indices
	if len(r.vertices)+3 > math.MaxUint16 {
		return
	}
	body, ok := koiColors[b.Appearance]
	if !ok {
		body = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	}
	shape := scene.BoidShape(b.Position, rot, b.Scale)
	base := uint16(len(r.vertices))
	for k, p := range shape {
		x, y, depth, visible := r.Camera.Project(p)
		if !visible {
			r.vertices = r.vertices[:base]
			return
		}
		c := r.fog(body, depth)
		if k == 0 {
			// brighter nose shows the heading
			c = blend(c, color.RGBA{R: 255, G: 255, B: 255, A: 255}, 0.3)
		}
		r.vertices = append(r.vertices, ebiten.Vertex{
			DstX:   float32(x),
			DstY:   float32(y),
			SrcX:   1,
			SrcY:   1,
			ColorR: float32(c.R) / 255,
			ColorG: float32(c.G) / 255,
			ColorB: float32(c.B) / 255,
			ColorA: 1,
		})
	}
	r.indices = append(r.indices, base, base+1, base+2)
}

func (r *Renderer) drawRadii(screen *ebiten.Image, b simulation.BoidSnapshot, cfg *simulation.Config, debug DebugOptions) {
	x, y, depth, ok := r.Camera.Project(b.Position)
	if !ok {
		return
	}
	ppu := r.Camera.PixelsPerUnit(depth)
	circle := func(radius float64, clr color.RGBA) {
		vector.StrokeCircle(screen, float32(x), float32(y), float32(radius*ppu), 1, clr, true)
	}
	if debug.Wander {
		circle(cfg.Wander.Radius, wanderColor)
	}
	if debug.Alignment {
		circle(cfg.Alignment.Radius, alignColor)
	}
	if debug.Avoidance {
		circle(cfg.Avoidance.Radius, avoidColor)
	}
	if debug.Cohesion {
		circle(cfg.Cohesion.Radius, cohesionColor)
	}
}

// drawGround draws a grid on the floor of the box.
func (r *Renderer) drawGround(screen *ebiten.Image, half geometry.Vector3D) {
	const lines = 10
	floor := -half.Y
	for i := 0; i <= lines; i++ {
		t := -1 + 2*float64(i)/lines
		r.line(screen,
			geometry.NewVector(t*half.X*2, floor, -half.Z*2),
			geometry.NewVector(t*half.X*2, floor, half.Z*2), r.ground)
		r.line(screen,
			geometry.NewVector(-half.X*2, floor, t*half.Z*2),
			geometry.NewVector(half.X*2, floor, t*half.Z*2), r.ground)
	}
}

func (r *Renderer) line(screen *ebiten.Image, a, b geometry.Vector3D, clr color.RGBA) {
	x0, y0, _, ok0 := r.Camera.Project(a)
	x1, y1, _, ok1 := r.Camera.Project(b)
	if !ok0 || !ok1 {
		return
	}
	vector.StrokeLine(screen, float32(x0), float32(y0), float32(x1), float32(y1), 1, clr, true)
}

// fog fades c into the sky colour with the distance beyond the camera target.
func (r *Renderer) fog(c color.RGBA, depth float64) color.RGBA {
	near := r.Camera.Distance - 4
	far := r.Camera.Distance + 16
	t := (depth - near) / (far - near)
	return blend(c, r.sky, math.Max(0, math.Min(0.8, t)))
}

func blend(a, b color.RGBA, t float64) color.RGBA {
	mix := func(x, y uint8) uint8 {
		return uint8(float64(x)*(1-t) + float64(y)*t)
	}
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 255}
}

// DrawStats prints the host timings and flock figures in the top-right corner.
func DrawStats(screen *ebiten.Image, snap *simulation.WorldSnapshot, updateMs, drawMs float64) {
	msg := fmt.Sprintf("FPS: %.2f\nTPS: %.2f\n\nUpdate: %.2fms\nDraw:   %.2fms",
		ebiten.ActualFPS(), ebiten.ActualTPS(), updateMs, drawMs)
	if snap != nil {
		msg += fmt.Sprintf("\n\nBoids: %d\nTick:  %d\nTime:  %.1fs\nTheme: %s",
			len(snap.Boids), snap.Tick, snap.SimTime, snap.Theme)
	}
	ebitenutil.DebugPrintAt(screen, msg, screen.Bounds().Dx()-160, 10)
}
