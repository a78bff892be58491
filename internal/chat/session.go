package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/diogo/cleanfire/internal/api"
	"github.com/diogo/cleanfire/internal/logging"
)

// Streamer opens the reply stream for one user utterance
type Streamer interface {
	SendMessageStream(ctx context.Context, userText string) (api.FragmentStream, error)
}

// SessionStarter opens the completion service session. It is called once per
// chat session.
type SessionStarter func() (Streamer, error)

// DefaultStarter opens a session on the shared Gemini client with the fixed
// persona.
func DefaultStarter() (Streamer, error) {
	session, err := api.StartCleanFire()
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Start runs starter and returns the matching initial state. The streamer is
// nil when the service could not be started.
func Start(starter SessionStarter) (State, Streamer) {
	if starter == nil {
		return FailedInit(nil), nil
	}
	streamer, err := starter()
	if err != nil || streamer == nil {
		return FailedInit(err), nil
	}
	return Initialized(), streamer
}

// Session drives a State against a Streamer. Each transition is published
// to the observers in the order it was applied.
type Session struct {
	mu         sync.Mutex
	state      State
	streamer   Streamer
	logger     *slog.Logger
	onChange   []func(State)
	onFragment []func(id, fragment string)
}

// Option configures a Session
type Option func(*Session)

// WithLogger sets the session logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSession starts the completion service and seeds the conversation
func NewSession(starter SessionStarter, opts ...Option) *Session {
	state, streamer := Start(starter)
	s := &Session{
		state:    state,
		streamer: streamer,
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if !state.Ready() {
		s.logger.Error("session failed to initialize", "error", state.Err())
	}
	return s
}

// Snapshot returns the current state
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// OnChange registers fn to receive every new state
func (s *Session) OnChange(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// OnFragment registers fn to receive every fragment applied to the log
func (s *Session) OnFragment(fn func(id, fragment string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onFragment = append(s.onFragment, fn)
}

// Send submits text and consumes the reply until it ends or fails. A
// rejected submission returns a ValidationError and changes nothing. A
// remote failure is recorded in the state and also returned.
func (s *Session) Send(ctx context.Context, text string) error {
	s.mu.Lock()
	next, placeholder, err := s.state.Submit(text)
	if err != nil {
		s.mu.Unlock()
		s.logger.Debug("submission rejected", "reason", err)
		return err
	}
	s.state = next
	streamer := s.streamer
	s.mu.Unlock()
	s.publish(next)

	id := placeholder.ID
	s.logger.Info("reply started", "id", id)

	stream, err := streamer.SendMessageStream(ctx, strings.TrimSpace(text))
	if err != nil {
		s.apply(func(st State) State { return st.FailStream(id, err) })
		s.logger.Warn("reply failed", "id", id, "error", err)
		return err
	}
	defer stream.Close()

	for {
		fragment, err := stream.Next()
		if errors.Is(err, io.EOF) {
			s.apply(func(st State) State { return st.EndStream(id) })
			s.logger.Info("reply finished", "id", id)
			return nil
		}
		if err != nil {
			s.apply(func(st State) State { return st.FailStream(id, err) })
			s.logger.Warn("reply failed", "id", id, "error", err)
			return err
		}

		s.apply(func(st State) State { return st.ApplyFragment(id, fragment) })
		s.publishFragment(id, fragment)
	}
}

// apply runs one transition atomically and publishes the result
func (s *Session) apply(transition func(State) State) {
	s.mu.Lock()
	s.state = transition(s.state)
	next := s.state
	s.mu.Unlock()
	s.publish(next)
}

func (s *Session) publish(st State) {
	s.mu.Lock()
	observers := append([]func(State){}, s.onChange...)
	s.mu.Unlock()
	for _, fn := range observers {
		fn(st)
	}
}

func (s *Session) publishFragment(id, fragment string) {
	s.mu.Lock()
	observers := append([]func(string, string){}, s.onFragment...)
	s.mu.Unlock()
	for _, fn := range observers {
		fn(id, fragment)
	}
}
