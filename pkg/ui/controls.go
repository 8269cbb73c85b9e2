package ui

import (
	"github.com/lao-tseu-is-alive/go-boids3d/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-boids3d/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-boids3d/pkg/scene"
	"github.com/lao-tseu-is-alive/go-boids3d/pkg/simulation"
)

// DebugOptions toggles the helper geometry drawn over the flock.
type DebugOptions struct {
	Boundaries bool
	Wander     bool
	Alignment  bool
	Avoidance  bool
	Cohesion   bool
	Stats      bool
}

// ControlPanel binds a UIPanel to a simulation configuration: every widget
// edits one field, the theme buttons switch themes and the reseed button
// asks for a new flock.
type ControlPanel struct {
	*UIPanel

	cfg    simulation.Config
	themes []string

	count, minScale, maxScale       *Slider
	minSpeed, maxSpeed, maxSteering *Slider
	wanderRadius, wanderStrength    *Slider
	alignRadius, alignStrength      *Slider
	avoidRadius, avoidStrength      *Slider
	cohesionRadius, cohesionStr     *Slider
	boundX, boundY, boundZ          *Slider

	threeD, alignOn, avoidOn, cohesionOn, referenceMode *Checkbox

	showBox, showWander, showAlign, showAvoid, showCohesion, showStats *Checkbox

	themeButtons  []*Button
	reseedPending bool
}

// NewControlPanel builds the panel at (x, y) from cfg.
func NewControlPanel(x, y, width, height float64, cfg *simulation.Config) *ControlPanel {
	c := &ControlPanel{
		UIPanel: NewUIPanel(x, y, width, height),
		cfg:     *cfg,
		themes:  simulation.ThemeNames(),
	}
	p := c.UIPanel
	p.Title = "Boids"

	p.AddSection("Theme")
	c.themeButtons = p.AddButtons(c.themes, func(i int) {
		c.cfg.Theme = c.themes[i]
	})
	p.AddButtons([]string{"Reseed"}, func(int) { c.reseedPending = true })
	p.EndSection()

	p.AddSection("General")
	c.count = p.AddIntSlider("Boids", 1, 2000, cfg.General.Count)
	c.minScale = p.AddSlider("Min Scale", 0.1, 2, cfg.General.MinScale)
	c.maxScale = p.AddSlider("Max Scale", 0.1, 2, cfg.General.MaxScale)
	c.minSpeed = p.AddSlider("Min Speed", 0, 10, cfg.General.MinSpeed)
	c.maxSpeed = p.AddSlider("Max Speed", 0, 10, cfg.General.MaxSpeed)
	c.maxSteering = p.AddSlider("Max Steering", 0, 1, cfg.General.MaxSteering)
	c.threeD = p.AddCheckbox("3D", cfg.ThreeD)
	p.EndSection()

	p.AddSection("Wander")
	c.wanderRadius = p.AddSlider("Radius", 1, 10, cfg.Wander.Radius)
	c.wanderStrength = p.AddSlider("Strength", 0, 10, cfg.Wander.Strength)
	p.EndSection()

	p.AddSection("Alignment")
	c.alignOn = p.AddCheckbox("Enabled", cfg.Alignment.Enabled)
	c.alignRadius = p.AddSlider("Radius", 0, 10, cfg.Alignment.Radius)
	c.alignStrength = p.AddSlider("Strength", 0, 10, cfg.Alignment.Strength)
	p.EndSection()

	p.AddSection("Avoidance")
	c.avoidOn = p.AddCheckbox("Enabled", cfg.Avoidance.Enabled)
	c.referenceMode = p.AddCheckbox("Reference mode (no push)", cfg.Avoidance.Mode == behavior.AvoidanceReference.String())
	c.avoidRadius = p.AddSlider("Radius", 0, 2, cfg.Avoidance.Radius)
	c.avoidStrength = p.AddSlider("Strength", 0, 10, cfg.Avoidance.Strength)
	p.EndSection()

	p.AddSection("Cohesion")
	c.cohesionOn = p.AddCheckbox("Enabled", cfg.Cohesion.Enabled)
	c.cohesionRadius = p.AddSlider("Radius", 0, 10, cfg.Cohesion.Radius)
	c.cohesionStr = p.AddSlider("Strength", 0, 10, cfg.Cohesion.Strength)
	p.EndSection()

	p.AddSection("Boundaries")
	c.boundX = p.AddSlider("Half X", 0.5, 20, cfg.Boundaries.X)
	c.boundY = p.AddSlider("Half Y", 0.5, 20, cfg.Boundaries.Y)
	c.boundZ = p.AddSlider("Half Z", 0.5, 20, cfg.Boundaries.Z)
	p.EndSection()

	p.AddSection("Debug")
	c.showBox = p.AddCheckbox("Show boundaries", false)
	c.showWander = p.AddCheckbox("Wander radius", false)
	c.showAlign = p.AddCheckbox("Alignment radius", false)
	c.showAvoid = p.AddCheckbox("Avoidance radius", false)
	c.showCohesion = p.AddCheckbox("Cohesion radius", false)
	c.showStats = p.AddCheckbox("Stats", true)
	p.EndSection()

	for _, title := range []string{"Wander", "Alignment", "Avoidance", "Cohesion", "Boundaries", "Debug"} {
		p.CollapseSection(title, true)
	}
	return c
}

// Update reads the widgets and returns the resulting configuration, whether
// it differs from the previous frame and whether a reseed was requested.
// The returned configuration is a copy owned by the caller.
func (c *ControlPanel) Update() (cfg *simulation.Config, changed, reseed bool) {
	prev := c.cfg
	c.UIPanel.Update() // theme buttons write c.cfg.Theme directly

	next := c.cfg
	next.General.Count = int(c.count.Value)
	next.General.MinScale = c.minScale.Value
	next.General.MaxScale = c.maxScale.Value
	next.General.MinSpeed = c.minSpeed.Value
	next.General.MaxSpeed = c.maxSpeed.Value
	next.General.MaxSteering = c.maxSteering.Value
	next.ThreeD = c.threeD.Value
	next.Wander = simulation.WanderConfig{Radius: c.wanderRadius.Value, Strength: c.wanderStrength.Value}
	next.Alignment = simulation.RuleConfig{Enabled: c.alignOn.Value, Radius: c.alignRadius.Value, Strength: c.alignStrength.Value}
	next.Avoidance.RuleConfig = simulation.RuleConfig{Enabled: c.avoidOn.Value, Radius: c.avoidRadius.Value, Strength: c.avoidStrength.Value}
	next.Avoidance.Mode = behavior.AvoidanceSeparate.String()
	if c.referenceMode.Value {
		next.Avoidance.Mode = behavior.AvoidanceReference.String()
	}
	next.Cohesion = simulation.RuleConfig{Enabled: c.cohesionOn.Value, Radius: c.cohesionRadius.Value, Strength: c.cohesionStr.Value}
	next.Boundaries = simulation.BoundariesConfig{X: c.boundX.Value, Y: c.boundY.Value, Z: c.boundZ.Value}

	// sliders can cross each other; keep the ranges ordered
	if next.General.MinScale > next.General.MaxScale {
		next.General.MinScale = next.General.MaxScale
		c.minScale.SetValue(next.General.MinScale)
	}
	if next.General.MinSpeed > next.General.MaxSpeed {
		next.General.MinSpeed = next.General.MaxSpeed
		c.minSpeed.SetValue(next.General.MinSpeed)
	}

	for i, b := range c.themeButtons {
		b.Active = c.themes[i] == next.Theme
	}

	changed = next != prev
	c.cfg = next
	reseed = c.reseedPending
	c.reseedPending = false

	out := next
	return &out, changed, reseed
}

// Debug returns the helper geometry toggles.
func (c *ControlPanel) Debug() DebugOptions {
	return DebugOptions{
		Boundaries: c.showBox.Value,
		Wander:     c.showWander.Value,
		Alignment:  c.showAlign.Value,
		Avoidance:  c.showAvoid.Value,
		Cohesion:   c.showCohesion.Value,
		Stats:      c.showStats.Value,
	}
}

// WindowConfig returns a copy of cfg whose box is scaled to a width x height window.
func WindowConfig(cfg *simulation.Config, width, height float64) *simulation.Config {
	out := *cfg
	half := scene.ResponsiveBoundaries(
		geometry.NewVector(cfg.Boundaries.X, cfg.Boundaries.Y, cfg.Boundaries.Z), width, height)
	out.Boundaries = simulation.BoundariesConfig{X: half.X, Y: half.Y, Z: half.Z}
	return &out
}
