package simulation

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"google.golang.org/protobuf/types/known/structpb"
	"gopkg.in/yaml.v3"

	"github.com/lao-tseu-is-alive/go-boids3d/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-boids3d/pkg/geometry"
)

// ErrUnsupportedFormat is returned for configuration files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported config format")

// MaxSeed is the largest seed a float64 holds exactly; the structpb wire form
// carries every number as a float64.
const MaxSeed = 1<<53 - 1

//go:embed config_schema.json
var configSchemaText string

var configSchema = jsonschema.MustCompileString("config_schema.json", configSchemaText)

// Format is the encoding of a configuration document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath guesses the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
}

// GeneralConfig sizes the flock and bounds its speed and steering.
type GeneralConfig struct {
	Count       int     `json:"count"`
	MinScale    float64 `json:"minScale"`
	MaxScale    float64 `json:"maxScale"`
	MinSpeed    float64 `json:"minSpeed"`
	MaxSpeed    float64 `json:"maxSpeed"`
	MaxSteering float64 `json:"maxSteering"`
}

// WanderConfig tunes the idle wander steering.
type WanderConfig struct {
	Radius   float64 `json:"radius"`
	Strength float64 `json:"strength"`
}

// RuleConfig toggles and tunes one neighbor rule.
type RuleConfig struct {
	Enabled  bool    `json:"enabled"`
	Radius   float64 `json:"radius"`
	Strength float64 `json:"strength"`
}

// AvoidanceConfig is the avoidance rule plus the way its vector is used.
type AvoidanceConfig struct {
	RuleConfig
	// Mode is "separate" (neighbors push each other away) or "reference"
	// (the separation vector is computed but never applied).
	Mode string `json:"mode"`
}

// BoundariesConfig holds the half extents of the box the flock lives in.
type BoundariesConfig struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Config is the whole configuration of a simulation session.
type Config struct {
	// Seed of the random source; 0 picks one at start-up.
	Seed   uint64 `json:"seed"`
	Theme  string `json:"theme"`
	ThreeD bool   `json:"threeD"`

	General    GeneralConfig    `json:"general"`
	Wander     WanderConfig     `json:"wander"`
	Alignment  RuleConfig       `json:"alignment"`
	Avoidance  AvoidanceConfig  `json:"avoidance"`
	Cohesion   RuleConfig       `json:"cohesion"`
	Boundaries BoundariesConfig `json:"boundaries"`
}

// DefaultConfig returns the tuning of the reference scene.
func DefaultConfig() *Config {
	return &Config{
		Theme:  ThemeUnderwater,
		ThreeD: true,
		General: GeneralConfig{
			Count:       100,
			MinScale:    0.7,
			MaxScale:    1.3,
			MinSpeed:    0.9,
			MaxSpeed:    3.6,
			MaxSteering: 0.1,
		},
		Wander:    WanderConfig{Radius: 5, Strength: 2},
		Alignment: RuleConfig{Enabled: true, Radius: 1.2, Strength: 4},
		Avoidance: AvoidanceConfig{
			RuleConfig: RuleConfig{Enabled: true, Radius: 0.8, Strength: 2},
			Mode:       behavior.AvoidanceSeparate.String(),
		},
		Cohesion:   RuleConfig{Enabled: true, Radius: 1.22, Strength: 4},
		Boundaries: BoundariesConfig{X: 6, Y: 4, Z: 10},
	}
}

// LoadConfig reads a JSON, YAML or TOML file, validates it against the embedded
// schema and overlays it on DefaultConfig.
func LoadConfig(configFile string) (*Config, error) {
	format, err := FormatFromPath(configFile)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseConfig(b, format)
}

// ParseConfig decodes data in the given format on top of DefaultConfig.
func ParseConfig(data []byte, format Format) (*Config, error) {
	// 1. Decode into a generic document
	doc := map[string]any{}
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode config json: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode config yaml: %w", err)
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode config toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	// 2. Validate and overlay
	return overlay(DefaultConfig(), doc)
}

// ToStruct converts the configuration into its protobuf wire form.
func (c *Config) ToStruct() (*structpb.Struct, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return structpb.NewStruct(m)
}

// ConfigFromStruct overlays the fields present in s on a copy of base
// (DefaultConfig when base is nil). Partial documents are allowed.
func ConfigFromStruct(s *structpb.Struct, base *Config) (*Config, error) {
	if base == nil {
		base = DefaultConfig()
	}
	cfg := *base
	return overlay(&cfg, s.AsMap())
}

// overlay validates doc against the schema, then unmarshals it onto cfg.
func overlay(cfg *Config, doc any) (*Config, error) {
	// Normalise through JSON so every decoder hands the same types to the validator.
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to normalise config: %w", err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("failed to normalise config: %w", err)
	}
	if err := configSchema.Validate(v); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if err := json.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the cross-field constraints the schema cannot express.
func (c *Config) Validate() error {
	if c.Seed > MaxSeed {
		return fmt.Errorf("%w: seed %d is above %d", behavior.ErrInvalidSettings, c.Seed, uint64(MaxSeed))
	}
	if _, err := LookupTheme(c.Theme); err != nil {
		return err
	}
	s, err := c.Settings()
	if err != nil {
		return err
	}
	return s.Validate()
}

// Settings converts the configuration into the steering parameters of a flock.
func (c *Config) Settings() (behavior.Settings, error) {
	mode, err := parseAvoidanceMode(c.Avoidance.Mode)
	if err != nil {
		return behavior.Settings{}, err
	}
	return behavior.Settings{
		Count:       c.General.Count,
		MinScale:    c.General.MinScale,
		MaxScale:    c.General.MaxScale,
		MinSpeed:    c.General.MinSpeed,
		MaxSpeed:    c.General.MaxSpeed,
		MaxSteering: c.General.MaxSteering,
		ThreeD:      c.ThreeD,
		Wander: behavior.WanderSettings{
			Radius:   c.Wander.Radius,
			Strength: c.Wander.Strength,
		},
		Alignment:     ruleSettings(c.Alignment),
		Avoidance:     ruleSettings(c.Avoidance.RuleConfig),
		Cohesion:      ruleSettings(c.Cohesion),
		AvoidanceMode: mode,
		Boundaries:    geometry.NewVector(c.Boundaries.X, c.Boundaries.Y, c.Boundaries.Z),
	}, nil
}

// Models returns the appearance list of the configured theme.
func (c *Config) Models() ([]string, error) {
	t, err := LookupTheme(c.Theme)
	if err != nil {
		return nil, err
	}
	return t.Models, nil
}

func ruleSettings(r RuleConfig) behavior.RuleSettings {
	return behavior.RuleSettings{Radius: r.Radius, Strength: r.Strength, Enabled: r.Enabled}
}

func parseAvoidanceMode(s string) (behavior.AvoidanceMode, error) {
	switch s {
	case "", behavior.AvoidanceSeparate.String():
		return behavior.AvoidanceSeparate, nil
	case behavior.AvoidanceReference.String():
		return behavior.AvoidanceReference, nil
	}
	return 0, fmt.Errorf("%w: unknown avoidance mode %q", behavior.ErrInvalidSettings, s)
}
