package tui

import (
	"errors"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diogo/cleanfire/internal/api"
	"github.com/diogo/cleanfire/internal/chat"
	apierrors "github.com/diogo/cleanfire/internal/errors"
	"github.com/diogo/cleanfire/internal/models"
)

func newTestModel(t *testing.T, mock *api.MockSession) Model {
	t.Helper()
	m := NewChatModel(chat.Initialized(), mock, Options{})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return updated.(Model)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

// typeAndSubmit enters text and presses Enter
func typeAndSubmit(t *testing.T, m Model, text string) Model {
	t.Helper()
	m.textarea.SetValue(text)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	return m
}

// drive opens the in-flight stream and feeds every stream message back into
// Update until the reply settles. It returns the command produced by the
// final message.
func drive(t *testing.T, m Model, mock *api.MockSession, text string) (Model, tea.Cmd) {
	t.Helper()
	id := m.state.InFlightID()
	require.NotEmpty(t, id)

	msg := openStream(m.ctx, mock, id, text)()
	for i := 0; i < 100; i++ {
		var cmd tea.Cmd
		m, cmd = update(t, m, msg)
		switch msg.(type) {
		case streamOpenedMsg, fragmentMsg:
		default:
			return m, cmd
		}
		if cmd == nil {
			return m, nil
		}
		msg = cmd()
	}
	t.Fatal("stream did not settle")
	return m, nil
}

func TestNewChatModel(t *testing.T) {
	m := NewChatModel(chat.Initialized(), api.NewMockSession(), Options{})

	assert.Equal(t, models.InputPlaceholder, m.textarea.Placeholder)
	assert.True(t, m.textarea.Focused())
	assert.Equal(t, models.DefaultModel.Name, m.opts.ModelName)
	assert.Equal(t, 1, m.State().Len())
	assert.NotNil(t, m.Init())
}

func TestView_Initialized(t *testing.T) {
	m := newTestModel(t, api.NewMockSession())
	view := m.View()

	assert.Contains(t, view, models.AppTitle)
	assert.Contains(t, view, "inward")
	assert.Contains(t, view, "Clean Fire")
	assert.NotContains(t, view, "⚠")
}

func TestView_NotReady(t *testing.T) {
	m := NewChatModel(chat.Initialized(), nil, Options{})
	assert.Contains(t, m.View(), "Kindling")
}

func TestSubmitAndStream(t *testing.T) {
	mock := api.NewMockSession(api.MockReply{Fragments: []string{"You ", "are ", "not ", "tired."}})
	m := newTestModel(t, mock)

	m = typeAndSubmit(t, m, "Hello")
	require.True(t, m.state.Loading())
	assert.Equal(t, 3, m.state.Len())
	assert.Empty(t, m.textarea.Value())
	assert.False(t, m.textarea.Focused())
	assert.Contains(t, m.View(), "is answering")

	m, _ = drive(t, m, mock, "Hello")

	assert.False(t, m.state.Loading())
	reply, ok := m.state.LastReply()
	require.True(t, ok)
	assert.Equal(t, "You are not tired.", reply.Text)
	assert.Nil(t, m.stream)
	assert.True(t, m.textarea.Focused())
	assert.True(t, mock.Streams()[0].Closed())
	assert.Equal(t, []string{"Hello"}, mock.Prompts())
}

func TestStreamFailureShowsBanner(t *testing.T) {
	mock := api.NewMockSession(api.MockReply{Fragments: []string{"half"}, Err: errors.New("network drop")})
	m := newTestModel(t, mock)

	m = typeAndSubmit(t, m, "Hi")
	m, _ = drive(t, m, mock, "Hi")

	assert.False(t, m.state.Loading())
	assert.Equal(t, "The connection faltered. network drop", m.state.Err())
	assert.Equal(t, 2, m.state.Len())
	assert.Contains(t, m.View(), "faltered")
}

func TestOpenFailureShowsBanner(t *testing.T) {
	mock := api.NewMockSession(api.MockReply{OpenErr: apierrors.NewTransportError("send message", "", errors.New("dial tcp: timeout"))})
	m := newTestModel(t, mock)

	m = typeAndSubmit(t, m, "Hi")
	m, _ = drive(t, m, mock, "Hi")

	assert.Equal(t, "The connection faltered. dial tcp: timeout", m.state.Err())
}

func TestSubmitIgnoredWhileLoading(t *testing.T) {
	mock := api.NewMockSession(api.MockReply{Fragments: []string{"x"}})
	m := newTestModel(t, mock)

	m = typeAndSubmit(t, m, "first")
	before := m.state.Messages()

	m.textarea.SetValue("second")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, before, m.state.Messages())
}

func TestSubmitIgnoredWhenEmpty(t *testing.T) {
	m := newTestModel(t, api.NewMockSession())

	m = typeAndSubmit(t, m, "   ")
	assert.False(t, m.state.Loading())
	assert.Equal(t, 1, m.state.Len())
}

func TestFailedInitDisablesInput(t *testing.T) {
	m := NewChatModel(chat.FailedInit(apierrors.ErrMissingAPIKey), nil, Options{})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})

	assert.False(t, m.textarea.Focused())
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	assert.Empty(t, m.textarea.Value())

	m = typeAndSubmit(t, m, "hello")
	assert.Equal(t, 0, m.state.Len())

	view := m.View()
	assert.Contains(t, view, "GEMINI_API_KEY or API_KEY environment variable not set")
	assert.Contains(t, view, "disabled")
}

func TestLateMessagesAreIgnored(t *testing.T) {
	mock := api.NewMockSession(api.MockReply{Err: errors.New("network drop")})
	m := newTestModel(t, mock)

	m = typeAndSubmit(t, m, "Hi")
	id := m.state.InFlightID()
	m, _ = drive(t, m, mock, "Hi")
	settled := m.state.Messages()

	m, cmd := update(t, m, fragmentMsg{id: id, text: "late"})
	assert.Nil(t, cmd)
	assert.Equal(t, settled, m.state.Messages())

	stale := &api.MockStream{}
	m, _ = update(t, m, streamOpenedMsg{id: id, stream: stale})
	assert.True(t, stale.Closed())
	assert.Nil(t, m.stream)
}

func TestCopyLastReply(t *testing.T) {
	var copied string
	orig := writeClipboard
	writeClipboard = func(s string) error {
		copied = s
		return nil
	}
	defer func() { writeClipboard = orig }()

	m := newTestModel(t, api.NewMockSession())
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})
	require.NotNil(t, cmd)

	m, _ = update(t, m, cmd())
	assert.Equal(t, models.Greeting, copied)
	assert.Equal(t, "Reply copied to clipboard", m.notice)
}

func TestCopyOnFinish(t *testing.T) {
	var copied string
	orig := writeClipboard
	writeClipboard = func(s string) error {
		copied = s
		return nil
	}
	defer func() { writeClipboard = orig }()

	mock := api.NewMockSession(api.MockReply{Fragments: []string{"Sit. ", "Breathe."}})
	m := NewChatModel(chat.Initialized(), mock, Options{CopyOnFinish: true})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})

	m = typeAndSubmit(t, m, "Hello")
	m, cmd := drive(t, m, mock, "Hello")
	require.NotNil(t, cmd)

	m, _ = update(t, m, cmd())
	assert.Equal(t, "Sit. Breathe.", copied)
	assert.Equal(t, "Reply copied to clipboard", m.notice)
}

func TestCopyFailureNotice(t *testing.T) {
	m := newTestModel(t, api.NewMockSession())
	m, _ = update(t, m, copiedMsg{err: errors.New("no clipboard utility")})
	assert.True(t, strings.HasPrefix(m.notice, "Copy failed"))
}

func TestQuitKeys(t *testing.T) {
	for _, key := range []tea.KeyType{tea.KeyEsc, tea.KeyCtrlC} {
		m := newTestModel(t, api.NewMockSession())
		_, cmd := update(t, m, tea.KeyMsg{Type: key})
		require.NotNil(t, cmd)
		_, ok := cmd().(tea.QuitMsg)
		assert.True(t, ok)
		assert.Error(t, m.ctx.Err())
	}
}

func TestFormatError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains []string
	}{
		{
			name:     "configuration",
			err:      apierrors.NewConfigurationError("", apierrors.ErrMissingAPIKey),
			contains: []string{"GEMINI_API_KEY or API_KEY environment variable not set", "GEMINI_API_KEY"},
		},
		{
			name:     "rate limited",
			err:      apierrors.NewServiceError(429, "RESOURCE_EXHAUSTED", "", "quota exceeded"),
			contains: []string{"The connection faltered.", "HTTP Status: 429", "RESOURCE_EXHAUSTED", "rate limit"},
		},
		{
			name:     "transport",
			err:      apierrors.NewTransportError("stream read", "", errors.New("connection reset")),
			contains: []string{"The connection faltered. connection reset", "internet connection"},
		},
		{
			name:     "truncated reply",
			err:      apierrors.NewTransportError("stream read", "", io.ErrUnexpectedEOF),
			contains: []string{"The connection faltered. unexpected EOF", "internet connection"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := FormatError(tt.err)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
		})
	}

	assert.Empty(t, FormatError(nil))
}
