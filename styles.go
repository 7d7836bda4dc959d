package csvstory

// Color is a hex color string in "#RRGGBB" format. Empty means terminal default.
type Color string

// Palette holds the semantic colors used by terminal renderers.
type Palette struct {
	Background Color
	Foreground Color

	// Status colors
	Success Color
	Error   Color
	Warning Color
	Muted   Color

	// Content colors
	Heading Color
	Accent  Color
	Null    Color

	// Syntax highlighting colors for raw payloads
	Key         Color
	String      Color
	Number      Color
	Keyword     Color
	Punctuation Color

	// UI colors
	UIBackground Color
	UIForeground Color
	UIAccent     Color
}

// Theme provides a palette for rendering.
// Different implementations can provide light/dark variants.
type Theme interface {
	Palette() Palette
}
