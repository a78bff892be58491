package commands

import (
	"io"
	"os"

	"github.com/atotto/clipboard"
	"golang.org/x/term"

	"github.com/diogo/cleanfire/internal/chat"
	"github.com/diogo/cleanfire/internal/tui"
)

// ChatRunner runs the interactive chat screen
type ChatRunner func(state chat.State, streamer chat.Streamer, opts tui.Options) error

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	// Starter opens the completion service session
	Starter chat.SessionStarter

	// RunChat runs the interactive TUI
	RunChat ChatRunner

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// IsTTY reports whether stdout is a terminal
	IsTTY func() bool

	// StdinPiped reports whether input is being piped in
	StdinPiped func() bool

	// TermWidth returns the terminal width
	TermWidth func() int

	// Clipboard writes text to the system clipboard
	Clipboard func(string) error
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		Starter:    chat.DefaultStarter,
		RunChat:    tui.RunChat,
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		IsTTY:      isStdoutTTY,
		StdinPiped: isStdinPiped,
		TermWidth:  getTerminalWidth,
		Clipboard:  clipboard.WriteAll,
	}
}

// getTerminalWidth returns the terminal width or a default value
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// isStdoutTTY returns true if stdout is connected to a terminal
func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func isStdinPiped() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
