package api

import (
	"context"
	"io"
	"sync"

	apierrors "github.com/diogo/cleanfire/internal/errors"
	"github.com/diogo/cleanfire/internal/models"
)

// MockReply scripts one reply of a MockSession
type MockReply struct {
	Fragments []string
	// Err is returned by Next after the fragments; nil means io.EOF
	Err error
	// OpenErr makes SendMessageStream fail before any fragment
	OpenErr error
}

// MockSession is a scripted ChatSessionInterface for testing
type MockSession struct {
	Model   models.Model
	Replies []MockReply

	mu      sync.Mutex
	prompts []string
	streams []*MockStream
	history []Content
}

// Ensure MockSession implements ChatSessionInterface
var _ ChatSessionInterface = (*MockSession)(nil)

// NewMockSession creates a MockSession answering with replies in order
func NewMockSession(replies ...MockReply) *MockSession {
	return &MockSession{Model: models.DefaultModel, Replies: replies}
}

func (m *MockSession) SendMessageStream(ctx context.Context, userText string) (FragmentStream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.prompts = append(m.prompts, userText)
	var reply MockReply
	if len(m.Replies) > 0 {
		reply = m.Replies[0]
		m.Replies = m.Replies[1:]
	}
	if reply.OpenErr != nil {
		return nil, reply.OpenErr
	}

	stream := &MockStream{Fragments: reply.Fragments, Err: reply.Err}
	stream.onComplete = func(text string) {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.history = append(m.history,
			Content{Role: string(models.SenderUser), Parts: []Part{{Text: userText}}},
			Content{Role: string(models.SenderAssistant), Parts: []Part{{Text: text}}},
		)
	}
	m.streams = append(m.streams, stream)
	return stream, nil
}

func (m *MockSession) GetModel() models.Model {
	return m.Model
}

func (m *MockSession) History() []Content {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Content(nil), m.history...)
}

// Prompts returns every text sent so far
func (m *MockSession) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// Streams returns every stream opened so far
func (m *MockSession) Streams() []*MockStream {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*MockStream(nil), m.streams...)
}

// MockStream replays scripted fragments
type MockStream struct {
	Fragments []string
	Err       error

	mu         sync.Mutex
	pos        int
	closed     bool
	done       error
	reply      string
	onComplete func(string)
}

// Ensure MockStream implements FragmentStream
var _ FragmentStream = (*MockStream)(nil)

func (s *MockStream) Next() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done != nil {
		return "", s.done
	}
	if s.closed {
		s.done = apierrors.ErrStreamClosed
		return "", s.done
	}
	if s.pos < len(s.Fragments) {
		f := s.Fragments[s.pos]
		s.pos++
		s.reply += f
		return f, nil
	}
	if s.Err != nil {
		s.done = s.Err
		return "", s.done
	}
	s.done = io.EOF
	if s.onComplete != nil {
		s.onComplete(s.reply)
	}
	return "", io.EOF
}

func (s *MockStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Closed reports whether Close was called
func (s *MockStream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
