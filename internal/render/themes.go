package render

import (
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
)

// Markdown style names
const (
	ThemeEmber      = "ember"
	ThemeDark       = styles.DarkStyle
	ThemeLight      = styles.LightStyle
	ThemeDracula    = styles.DraculaStyle
	ThemeTokyoNight = styles.TokyoNightStyle
	ThemeNoTTY      = styles.NoTTYStyle
	ThemeASCII      = styles.AsciiStyle
)

// builtinStyle returns the style configs defined in this package
func builtinStyle(name string) (ansi.StyleConfig, bool) {
	switch name {
	case ThemeEmber:
		return emberStyle(), true
	default:
		return ansi.StyleConfig{}, false
	}
}

// emberStyle is glamour's dark style recolored with warm fire tones
func emberStyle() ansi.StyleConfig {
	cfg := styles.DarkStyleConfig

	cfg.Document.Color = strPtr("#e8dcc8")
	cfg.Heading.Color = strPtr("#ff8c42")
	cfg.H1.Color = strPtr("#1a0f0a")
	cfg.H1.BackgroundColor = strPtr("#ff6b35")
	cfg.Strong.Color = strPtr("#ffb347")
	cfg.Emph.Color = strPtr("#f4a261")
	cfg.Link.Color = strPtr("#e76f51")
	cfg.LinkText.Color = strPtr("#f4a261")
	cfg.Code.Color = strPtr("#ffb347")
	cfg.Code.BackgroundColor = strPtr("#2a1a12")
	cfg.HorizontalRule.Color = strPtr("#5c3d2e")
	cfg.BlockQuote.Color = strPtr("#b08968")
	return cfg
}

func strPtr(s string) *string { return &s }

// IsBuiltinStyle reports whether style names a style this package or glamour
// ships, as opposed to a path to a JSON style file.
func IsBuiltinStyle(style string) bool {
	if _, ok := builtinStyle(style); ok {
		return true
	}
	_, ok := styles.DefaultStyles[style]
	return ok
}

// ThemeInfo contains information about a theme for display purposes.
type ThemeInfo struct {
	Name        string
	Description string
}

// AvailableThemes lists the markdown styles that can be selected by name
func AvailableThemes() []ThemeInfo {
	return []ThemeInfo{
		{Name: ThemeEmber, Description: "Warm dark theme (default)"},
		{Name: ThemeDark, Description: "Glamour dark theme"},
		{Name: ThemeLight, Description: "Light theme for bright terminals"},
		{Name: ThemeDracula, Description: "Dracula color scheme"},
		{Name: ThemeTokyoNight, Description: "Tokyo Night color scheme"},
		{Name: ThemeNoTTY, Description: "Plain text (no styling)"},
		{Name: ThemeASCII, Description: "ASCII-only output"},
	}
}

// ThemeNames returns just the theme names for selection.
func ThemeNames() []string {
	themes := AvailableThemes()
	names := make([]string, len(themes))
	for i, t := range themes {
		names[i] = t.Name
	}
	return names
}
