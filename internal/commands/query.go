package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/cleanfire/internal/chat"
	apierrors "github.com/diogo/cleanfire/internal/errors"
	"github.com/diogo/cleanfire/internal/models"
	"github.com/diogo/cleanfire/internal/render"
)

// Flame gradient for the spinner
var gradientColors = []lipgloss.Color{
	lipgloss.Color("#7f1d1d"),
	lipgloss.Color("#b91c1c"),
	lipgloss.Color("#ea580c"),
	lipgloss.Color("#f97316"),
	lipgloss.Color("#fb923c"),
	lipgloss.Color("#fbbf24"),
	lipgloss.Color("#fde68a"),
	lipgloss.Color("#fbbf24"),
}

var (
	colorText     = lipgloss.Color("#e8dcc8")
	colorTextMute = lipgloss.Color("#4a3428")
	colorSuccess  = lipgloss.Color("#ffb347")
	colorPrimary  = lipgloss.Color("#ff6b35")
	colorWarning  = lipgloss.Color("#ef476f")
)

// Styles matching the chat TUI
var (
	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	assistantBubbleStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary).
				Foreground(colorText).
				Padding(0, 1).
				MarginTop(1).
				MarginBottom(1)
)

// spinner draws an animated status line on w until stopped
type spinner struct {
	w       io.Writer
	message string
	stop    chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	frame   int
	stopped bool
}

func newSpinner(w io.Writer, message string) *spinner {
	return &spinner{
		w:       w,
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (s *spinner) start() {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		fmt.Fprint(s.w, "\033[?25l")

		for {
			select {
			case <-s.stop:
				fmt.Fprint(s.w, "\r\033[K\033[?25h")
				return
			case <-ticker.C:
				s.mu.Lock()
				s.render()
				s.frame++
				s.mu.Unlock()
			}
		}
	}()
}

// setMessage replaces the status text
func (s *spinner) setMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

func (s *spinner) render() {
	flames := []string{"▁", "▂", "▃", "▄", "▅", "▆", "▇", "█", "▇", "▆", "▅", "▃"}

	var bar strings.Builder
	for i := 0; i < 12; i++ {
		color := gradientColors[(i+s.frame)%len(gradientColors)]
		bar.WriteString(lipgloss.NewStyle().Foreground(color).Render(flames[(i*3+s.frame)%len(flames)]))
	}

	var dots strings.Builder
	numDots := (s.frame / 3) % 4
	for i := 0; i < 3; i++ {
		if i < numDots {
			dotColor := gradientColors[(s.frame+i)%len(gradientColors)]
			dots.WriteString(lipgloss.NewStyle().Foreground(dotColor).Render("●"))
		} else {
			dots.WriteString(lipgloss.NewStyle().Foreground(colorTextMute).Render("○"))
		}
	}

	msg := lipgloss.NewStyle().Foreground(colorText).Render(s.message)
	fmt.Fprintf(s.w, "\r\033[K%s %s %s", bar.String(), msg, dots.String())
}

func (s *spinner) stopOnce() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		close(s.stop)
		s.stopped = true
	}
}

func (s *spinner) stopWithSuccess(message string) {
	s.stopOnce()
	<-s.done

	checkmark := lipgloss.NewStyle().Foreground(colorSuccess).Bold(true).Render("✓")
	fmt.Fprintf(s.w, "%s %s\n", checkmark, lipgloss.NewStyle().Foreground(colorSuccess).Render(message))
}

func (s *spinner) stopWithError() {
	s.stopOnce()
	<-s.done
}

// runQuery sends a single message and prints the reply.
//
// On a terminal the reply is collected behind a spinner and printed as
// rendered markdown. Otherwise fragments are written to stdout as they
// arrive. With output set the reply goes to that file instead.
func runQuery(ctx context.Context, deps *Dependencies, prompt, output string) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return apierrors.NewValidationError(apierrors.ErrEmptyInput)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	env := setup(deps)
	defer env.close()

	streamer, err := deps.Starter()
	if err != nil {
		return err
	}
	session := chat.NewSession(func() (chat.Streamer, error) { return streamer, nil },
		chat.WithLogger(env.logger))

	tty := deps.IsTTY()
	streamRaw := !tty && output == ""

	var spin *spinner
	if tty {
		spin = newSpinner(deps.Stderr, "Kindling")
		spin.start()
	}

	received := 0
	session.OnFragment(func(_, fragment string) {
		received += len(fragment)
		if streamRaw {
			fmt.Fprint(deps.Stdout, fragment)
		}
		if spin != nil {
			spin.setMessage(fmt.Sprintf("Receiving (%d chars)", received))
		}
	})

	start := time.Now()
	sendErr := session.Send(ctx, prompt)
	env.logger.Info("one-shot reply", "duration", time.Since(start).Round(time.Millisecond), "chars", received, "error", sendErr)

	if sendErr != nil {
		if spin != nil {
			spin.stopWithError()
		}
		if streamRaw && received > 0 {
			fmt.Fprintln(deps.Stdout)
		}
		return sendErr
	}
	if spin != nil {
		spin.stopWithSuccess("Done")
	}

	reply, _ := session.Snapshot().LastReply()
	text := reply.Text

	if env.cfg.CopyToClipboard {
		copyReply(deps, text, tty)
	}

	if output != "" {
		if err := os.WriteFile(output, []byte(text), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if tty {
			fmt.Fprintln(deps.Stderr, lipgloss.NewStyle().Foreground(colorSuccess).Render(
				fmt.Sprintf("✓ Reply saved to %s", output)))
		}
		return nil
	}

	if streamRaw {
		if !strings.HasSuffix(text, "\n") {
			fmt.Fprintln(deps.Stdout)
		}
		return nil
	}

	bubbleWidth := deps.TermWidth() - 4
	if bubbleWidth < 40 {
		bubbleWidth = 40
	}
	if bubbleWidth > 120 {
		bubbleWidth = 120
	}
	contentWidth := bubbleWidth - 4

	fmt.Fprintln(deps.Stdout, assistantLabelStyle.Render("🔥 "+models.SenderAssistant.String()))
	rendered := render.MarkdownOrPlain(text, render.OptionsFromConfig(env.cfg, contentWidth))
	fmt.Fprintln(deps.Stdout, assistantBubbleStyle.Width(bubbleWidth).Render(rendered))

	return nil
}

// copyReply copies text to the clipboard. Failure only warns.
func copyReply(deps *Dependencies, text string, tty bool) {
	if err := deps.Clipboard(text); err != nil {
		fmt.Fprintln(deps.Stderr, lipgloss.NewStyle().Foreground(colorWarning).Render(
			fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err)))
		return
	}
	if tty {
		fmt.Fprintln(deps.Stderr, lipgloss.NewStyle().Foreground(colorSuccess).Render("✓ Copied to clipboard"))
	}
}
