package simulation

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownTheme is returned when a configuration names a theme that is not registered.
var ErrUnknownTheme = errors.New("unknown theme")

// Theme groups the look of a scene: the sky colour and the models boids are dressed with.
type Theme struct {
	Name   string
	Title  string
	Sky    string // hex colour, e.g. "#309BFF"
	Ground string
	Models []string
}

const (
	ThemeUnderwater = "underwater"
	ThemeSpace      = "space"
)

var themes = map[string]Theme{
	ThemeUnderwater: {
		Name:   ThemeUnderwater,
		Title:  "Underwater",
		Sky:    "#309BFF",
		Ground: "#DDD6F3",
		Models: []string{
			"Koi_01", "Koi_02", "Koi_03", "Koi_04",
			"Koi_05", "Koi_06", "Koi_07",
		},
	},
	ThemeSpace: {
		Name:   ThemeSpace,
		Title:  "Space",
		Sky:    "#000000",
		Ground: "#333333",
		Models: []string{"Koi_08"},
	},
}

// LookupTheme returns the theme registered under name.
func LookupTheme(name string) (Theme, error) {
	t, ok := themes[name]
	if !ok {
		return Theme{}, fmt.Errorf("%w: %q", ErrUnknownTheme, name)
	}
	t.Models = append([]string(nil), t.Models...)
	return t, nil
}

// ThemeNames lists the registered themes in alphabetical order.
func ThemeNames() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
