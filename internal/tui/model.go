package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/cleanfire/internal/api"
	"github.com/diogo/cleanfire/internal/chat"
	"github.com/diogo/cleanfire/internal/logging"
	"github.com/diogo/cleanfire/internal/models"
	"github.com/diogo/cleanfire/internal/render"
)

// Animation tick message
type animationTickMsg time.Time

// Message types for the TUI. Every stream message carries the ID of the
// reply it belongs to so that a late message for an abandoned reply is a
// no-op.
type (
	streamOpenedMsg struct {
		id     string
		stream api.FragmentStream
	}
	fragmentMsg struct {
		id   string
		text string
	}
	streamEndMsg struct {
		id string
	}
	streamErrMsg struct {
		id  string
		err error
	}
	copiedMsg struct {
		err error
	}
)

// writeClipboard is swapped in tests
var writeClipboard = clipboard.WriteAll

// Options configures the chat screen
type Options struct {
	ModelName    string
	Render       render.Options
	CopyOnFinish bool
	Logger       *slog.Logger
}

// Model represents the TUI state. The conversation itself lives in a
// chat.State and is only ever replaced inside Update.
type Model struct {
	state    chat.State
	streamer chat.Streamer
	stream   api.FragmentStream

	ctx    context.Context
	cancel context.CancelFunc

	opts   Options
	logger *slog.Logger

	// UI components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	ready          bool
	notice         string
	animationFrame int

	width  int
	height int
}

// NewChatModel creates the chat screen for a started (or failed) session
func NewChatModel(state chat.State, streamer chat.Streamer, opts Options) Model {
	ta := textarea.New()
	ta.Placeholder = models.InputPlaceholder
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.KeyMap.InsertNewline.SetKeys("alt+enter", "ctrl+j")

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle
	if state.Ready() {
		ta.Focus()
	}

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	if opts.Render.Style == "" {
		opts.Render = render.DefaultOptions()
	}
	if opts.ModelName == "" {
		opts.ModelName = models.DefaultModel.Name
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:    state,
		streamer: streamer,
		ctx:      ctx,
		cancel:   cancel,
		opts:     opts,
		logger:   logger,
		textarea: ta,
		spinner:  s,
	}
}

// State returns the conversation currently displayed
func (m Model) State() chat.State {
	return m.state
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

func animationTick() tea.Cmd {
	return tea.Tick(time.Millisecond*80, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 4
		inputHeight := 6
		statusHeight := 1
		padding := 2

		vpHeight := m.height - headerHeight - inputHeight - statusHeight - padding
		if vpHeight < 5 {
			vpHeight = 5
		}
		contentWidth := m.width - 4

		if !m.ready {
			m.viewport = viewport.New(contentWidth, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = contentWidth
			m.viewport.Height = vpHeight
		}
		m.textarea.SetWidth(contentWidth - 4)
		m.updateViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.shutdown()
			return m, tea.Quit

		case "ctrl+y":
			return m, m.copyLastReply()

		case "enter":
			return m.submit()
		}

	case streamOpenedMsg:
		if msg.id != m.state.InFlightID() {
			_ = msg.stream.Close()
			return m, nil
		}
		m.stream = msg.stream
		return m, nextFragment(msg.id, msg.stream)

	case fragmentMsg:
		m.state = m.state.ApplyFragment(msg.id, msg.text)
		m.updateViewport()
		m.viewport.GotoBottom()
		if m.stream != nil && msg.id == m.state.InFlightID() {
			return m, nextFragment(msg.id, m.stream)
		}
		return m, nil

	case streamEndMsg:
		m.state = m.state.EndStream(msg.id)
		m.finishStream()
		m.logger.Info("reply finished", "id", msg.id)
		if m.opts.CopyOnFinish {
			return m, m.copyLastReply()
		}
		return m, nil

	case streamErrMsg:
		m.state = m.state.FailStream(msg.id, msg.err)
		m.finishStream()
		m.logger.Warn("reply failed", "id", msg.id, "error", msg.err)
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.notice = "Copy failed: " + msg.err.Error()
			m.logger.Warn("clipboard write failed", "error", msg.err)
		} else {
			m.notice = "Reply copied to clipboard"
		}

	case spinner.TickMsg:
		if m.state.Loading() {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case animationTickMsg:
		if m.state.Loading() {
			m.animationFrame++
			cmds = append(cmds, animationTick())
		}
	}

	// Only pass KeyMsg to the textarea, and only while it accepts input
	if m.state.CanSubmit() {
		if _, ok := msg.(tea.KeyMsg); ok {
			m.textarea, cmd = m.textarea.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// submit applies the textarea content to the state and opens the reply
// stream. A rejected submission leaves everything untouched.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := m.textarea.Value()
	next, placeholder, err := m.state.Submit(text)
	if err != nil {
		m.logger.Debug("submission rejected", "reason", err)
		return m, nil
	}

	m.state = next
	m.notice = ""
	m.animationFrame = 0
	m.textarea.Reset()
	m.textarea.Blur()
	m.updateViewport()
	m.viewport.GotoBottom()
	m.logger.Info("reply started", "id", placeholder.ID)

	return m, tea.Batch(
		openStream(m.ctx, m.streamer, placeholder.ID, strings.TrimSpace(text)),
		m.spinner.Tick,
		animationTick(),
	)
}

// finishStream releases the stream after the state left loading
func (m *Model) finishStream() {
	if m.stream != nil {
		_ = m.stream.Close()
		m.stream = nil
	}
	if m.state.Ready() {
		m.textarea.Focus()
	}
	m.updateViewport()
	m.viewport.GotoBottom()
}

// shutdown cancels any in-flight request
func (m *Model) shutdown() {
	if m.cancel != nil {
		m.cancel()
	}
	if m.stream != nil {
		_ = m.stream.Close()
		m.stream = nil
	}
}

// openStream starts the reply for id on a background goroutine
func openStream(ctx context.Context, streamer chat.Streamer, id, text string) tea.Cmd {
	return func() tea.Msg {
		if streamer == nil {
			return streamErrMsg{id: id, err: errors.New(models.InitErrorFallback)}
		}
		stream, err := streamer.SendMessageStream(ctx, text)
		if err != nil {
			return streamErrMsg{id: id, err: err}
		}
		return streamOpenedMsg{id: id, stream: stream}
	}
}

// nextFragment pulls exactly one fragment. Update schedules the next pull
// after applying it, so fragments land in arrival order.
func nextFragment(id string, stream api.FragmentStream) tea.Cmd {
	return func() tea.Msg {
		text, err := stream.Next()
		switch {
		case errors.Is(err, io.EOF):
			return streamEndMsg{id: id}
		case err != nil:
			return streamErrMsg{id: id, err: err}
		default:
			return fragmentMsg{id: id, text: text}
		}
	}
}

func (m Model) copyLastReply() tea.Cmd {
	reply, ok := m.state.LastReply()
	if !ok || reply.Text == "" {
		return nil
	}
	text := reply.Text
	return func() tea.Msg {
		return copiedMsg{err: writeClipboard(text)}
	}
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Kindling...")
	}

	var sections []string
	contentWidth := m.width - 4

	header := lipgloss.JoinHorizontal(lipgloss.Center,
		titleStyle.Render("🔥 "+models.AppTitle),
		hintStyle.Render("  •  "),
		subtitleStyle.Render(m.opts.ModelName),
	)
	sections = append(sections, headerStyle.Width(contentWidth).Render(header))

	messagesPanel := messagesAreaStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(m.viewport.View())
	sections = append(sections, messagesPanel)

	var inputContent string
	switch {
	case m.state.Loading():
		inputContent = m.renderLoadingAnimation()
	case !m.state.Ready():
		inputContent = hintStyle.Render("Input is disabled until the session can start.")
	default:
		inputContent = lipgloss.JoinVertical(
			lipgloss.Left,
			inputLabelStyle.Render(models.SenderUser.String()),
			m.textarea.View(),
		)
	}
	sections = append(sections, inputPanelStyle.Width(contentWidth).Render(inputContent))

	sections = append(sections, m.renderStatusBar(contentWidth))

	if e := m.state.Err(); e != "" {
		sections = append(sections, errorStyle.Width(contentWidth).Render("⚠ "+e))
	}
	if m.notice != "" {
		sections = append(sections, noticeStyle.Render(m.notice))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderLoadingAnimation renders the flickering flame shown while a reply
// streams in
func (m Model) renderLoadingAnimation() string {
	flames := []string{"▁", "▂", "▃", "▄", "▅", "▆", "▇", "█", "▇", "▆", "▅", "▃"}
	frame := m.animationFrame

	var bar strings.Builder
	for i := 0; i < 16; i++ {
		color := gradientColors[(i+frame)%len(gradientColors)]
		char := flames[(i*3+frame)%len(flames)]
		bar.WriteString(lipgloss.NewStyle().Foreground(color).Render(char))
	}

	text := lipgloss.NewStyle().Foreground(colorText).
		Render(fmt.Sprintf(" %s is answering ", models.SenderAssistant))

	return fmt.Sprintf("%s %s %s", m.spinner.View(), bar.String(), text)
}

func (m Model) renderStatusBar(width int) string {
	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send"},
		{"Alt+Enter", "Newline"},
		{"Ctrl+Y", "Copy reply"},
		{"↑↓", "Scroll"},
		{"Esc", "Quit"},
	}

	var items []string
	for _, s := range shortcuts {
		items = append(items, statusKeyStyle.Render(s.key)+statusDescStyle.Render(" "+s.desc))
	}

	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(strings.Join(items, "  │  "))
}

// updateViewport re-renders the message log from the current state
func (m *Model) updateViewport() {
	if !m.ready {
		return
	}

	var content strings.Builder
	bubbleWidth := m.viewport.Width - 6
	opts := m.opts.Render.WithWidth(bubbleWidth - 4)

	for i, msg := range m.state.Messages() {
		if i > 0 {
			content.WriteString("\n")
		}

		if msg.IsUser() {
			label := userLabelStyle.Render("● " + msg.Sender.String())
			bubble := userBubbleStyle.Width(bubbleWidth).Render(msg.Text)
			content.WriteString(label + "\n" + bubble)
		} else {
			label := assistantLabelStyle.Render("🔥 " + msg.Sender.String())

			body := render.MarkdownOrPlain(msg.Text, opts)
			if msg.Text == "" && msg.ID == m.state.InFlightID() {
				body = hintStyle.Render("…")
			}
			bubble := assistantBubbleStyle.Width(bubbleWidth).Render(body)
			content.WriteString(label + "\n" + bubble)
		}
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())
}

// RunChat starts the chat TUI and blocks until the user quits
func RunChat(state chat.State, streamer chat.Streamer, opts Options) error {
	m := NewChatModel(state, streamer, opts)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
	)

	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.shutdown()
	}
	return err
}
