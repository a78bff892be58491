// Package render turns model replies into styled terminal output.
package render

// Options controls how a reply is turned into terminal markdown. It is a
// plain value and doubles as the renderer pool key.
type Options struct {
	// Width is the wrap column; zero or less means 80
	Width int

	// Style is a markdown style name (see AvailableThemes) or a path to a
	// glamour JSON style file; empty means ember
	Style string

	// EnableEmoji turns :shortcodes: into emoji
	EnableEmoji bool

	// PreserveNewLines keeps the line breaks the model wrote
	PreserveNewLines bool

	// TableWrap wraps long table cells instead of truncating them
	TableWrap bool
}

// DefaultOptions is the ember style at 80 columns with emoji, kept line
// breaks and wrapped tables.
func DefaultOptions() Options {
	return Options{
		Width:            80,
		Style:            ThemeEmber,
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
	}
}

// WithWidth sets the wrap column, e.g. to fit a chat bubble
func (o Options) WithWidth(width int) Options {
	o.Width = width
	return o
}

func (o Options) WithStyle(style string) Options {
	o.Style = style
	return o
}

func (o Options) WithEmoji(enabled bool) Options {
	o.EnableEmoji = enabled
	return o
}

func (o Options) WithPreserveNewLines(enabled bool) Options {
	o.PreserveNewLines = enabled
	return o
}
