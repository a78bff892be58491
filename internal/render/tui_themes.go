package render

import (
	"sort"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// TUITheme defines the color scheme of the chat screen
type TUITheme struct {
	Name        string
	Description string

	Background lipgloss.Color
	Surface    lipgloss.Color
	Border     lipgloss.Color

	// Primary colors the title and the assistant label, Secondary the user
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color

	Text     lipgloss.Color
	TextDim  lipgloss.Color
	TextMute lipgloss.Color
}

var (
	// EmberTheme is the default: charcoal surfaces and flame accents
	EmberTheme = TUITheme{
		Name:        "ember",
		Description: "Ember - Charcoal with flame accents",

		Background: lipgloss.Color("#120b08"),
		Surface:    lipgloss.Color("#1f1410"),
		Border:     lipgloss.Color("#5c3d2e"),

		Primary:   lipgloss.Color("#ff6b35"),
		Secondary: lipgloss.Color("#ffb347"),
		Accent:    lipgloss.Color("#e76f51"),
		Warning:   lipgloss.Color("#f4a261"),
		Error:     lipgloss.Color("#ef476f"),

		Text:     lipgloss.Color("#e8dcc8"),
		TextDim:  lipgloss.Color("#8a7060"),
		TextMute: lipgloss.Color("#4a3428"),
	}

	// AshTheme is a muted grayscale variant
	AshTheme = TUITheme{
		Name:        "ash",
		Description: "Ash - Muted grays with a single ember accent",

		Background: lipgloss.Color("#141414"),
		Surface:    lipgloss.Color("#1e1e1e"),
		Border:     lipgloss.Color("#3a3a3a"),

		Primary:   lipgloss.Color("#d0d0d0"),
		Secondary: lipgloss.Color("#9a9a9a"),
		Accent:    lipgloss.Color("#ff6b35"),
		Warning:   lipgloss.Color("#c8a060"),
		Error:     lipgloss.Color("#d06060"),

		Text:     lipgloss.Color("#e0e0e0"),
		TextDim:  lipgloss.Color("#6a6a6a"),
		TextMute: lipgloss.Color("#3a3a3a"),
	}

	// TokyoNightTheme is based on the Tokyo Night color scheme
	TokyoNightTheme = TUITheme{
		Name:        "tokyonight",
		Description: "Tokyo Night - Dark theme with blue accents",

		Background: lipgloss.Color("#1a1b26"),
		Surface:    lipgloss.Color("#24283b"),
		Border:     lipgloss.Color("#414868"),

		Primary:   lipgloss.Color("#7aa2f7"),
		Secondary: lipgloss.Color("#9ece6a"),
		Accent:    lipgloss.Color("#bb9af7"),
		Warning:   lipgloss.Color("#e0af68"),
		Error:     lipgloss.Color("#f7768e"),

		Text:     lipgloss.Color("#c0caf5"),
		TextDim:  lipgloss.Color("#565f89"),
		TextMute: lipgloss.Color("#3b4261"),
	}
)

var tuiThemes = map[string]TUITheme{
	EmberTheme.Name:      EmberTheme,
	AshTheme.Name:        AshTheme,
	TokyoNightTheme.Name: TokyoNightTheme,
}

var (
	tuiThemeMu      sync.RWMutex
	currentTUITheme = EmberTheme
)

// GetTUITheme returns the active TUI theme
func GetTUITheme() TUITheme {
	tuiThemeMu.RLock()
	defer tuiThemeMu.RUnlock()
	return currentTUITheme
}

// SetTUITheme activates the theme called name. Unknown names are ignored
// and reported with false.
func SetTUITheme(name string) bool {
	theme, ok := GetTUIThemeByName(name)
	if !ok {
		return false
	}
	tuiThemeMu.Lock()
	currentTUITheme = theme
	tuiThemeMu.Unlock()
	return true
}

// GetTUIThemeByName returns a TUI theme by its name
func GetTUIThemeByName(name string) (TUITheme, bool) {
	theme, ok := tuiThemes[name]
	return theme, ok
}

// TUIThemeNames returns the theme names in sorted order
func TUIThemeNames() []string {
	names := make([]string, 0, len(tuiThemes))
	for name := range tuiThemes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
