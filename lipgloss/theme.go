// Package lipgloss renders csvstory payloads for the terminal using the
// Lipgloss styling library.
package lipgloss

import (
	"fmt"

	"github.com/fwojciec/csvstory"
)

// Compile-time interface verification.
var _ csvstory.Theme = (*Theme)(nil)

// Theme implements csvstory.Theme with Lipgloss-compatible colors.
type Theme struct {
	name         string
	palette      csvstory.Palette
	glamourStyle string
}

// Name returns the theme name.
func (t *Theme) Name() string {
	return t.name
}

// Palette returns the semantic color palette for this theme.
func (t *Theme) Palette() csvstory.Palette {
	return t.palette
}

// GlamourStyle returns the markdown style matching this theme.
func (t *Theme) GlamourStyle() string {
	return t.glamourStyle
}

// DefaultTheme returns the default theme (dark background optimized).
func DefaultTheme() *Theme {
	return DarkTheme()
}

// ThemeByName returns the theme called name: "dark" or "light".
func ThemeByName(name string) (*Theme, error) {
	switch name {
	case "", "dark":
		return DarkTheme(), nil
	case "light":
		return LightTheme(), nil
	}
	return nil, fmt.Errorf("unknown terminal theme %q (want dark or light)", name)
}

// DarkTheme returns a theme optimized for dark terminal backgrounds.
func DarkTheme() *Theme {
	return &Theme{
		name:         "dark",
		glamourStyle: "dark",
		palette: csvstory.Palette{
			// Base colors (Catppuccin Mocha)
			Background: "#1e1e2e",
			Foreground: "#cdd6f4",

			Success: "#a6e3a1",
			Error:   "#f38ba8",
			Warning: "#f9e2af",
			Muted:   "#6c7086",

			Heading: "#89b4fa",
			Accent:  "#cba6f7",
			Null:    "#7f849c",

			Key:         "#89b4fa",
			String:      "#a6e3a1",
			Number:      "#fab387",
			Keyword:     "#cba6f7",
			Punctuation: "#9399b2",

			UIBackground: "#313244",
			UIForeground: "#a6adc8",
			UIAccent:     "#89b4fa",
		},
	}
}

// LightTheme returns a theme optimized for light terminal backgrounds.
func LightTheme() *Theme {
	return &Theme{
		name:         "light",
		glamourStyle: "light",
		palette: csvstory.Palette{
			// Base colors (Catppuccin Latte)
			Background: "#eff1f5",
			Foreground: "#4c4f69",

			Success: "#40a02b",
			Error:   "#d20f39",
			Warning: "#df8e1d",
			Muted:   "#9ca0b0",

			Heading: "#1e66f5",
			Accent:  "#8839ef",
			Null:    "#8c8fa1",

			Key:         "#1e66f5",
			String:      "#40a02b",
			Number:      "#fe640b",
			Keyword:     "#8839ef",
			Punctuation: "#6c6f85",

			UIBackground: "#e6e9ef",
			UIForeground: "#6c6f85",
			UIAccent:     "#1e66f5",
		},
	}
}
