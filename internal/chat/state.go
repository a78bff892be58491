// Package chat implements the conversation state manager: an ordered message
// log, the loading and error flags, and the transitions applied while a reply
// streams in.
//
// State is an immutable value. Every transition returns a new State and
// leaves the receiver untouched, so snapshots handed to a renderer never
// change underneath it.
package chat

import (
	"strings"

	apierrors "github.com/diogo/cleanfire/internal/errors"
	"github.com/diogo/cleanfire/internal/models"
)

// State is one snapshot of a chat session
type State struct {
	messages []models.Message
	loading  bool
	err      string
	inFlight string
	ready    bool
}

// Initialized returns the state of a session whose service started: the
// greeting is the only message.
func Initialized() State {
	return State{
		messages: []models.Message{models.GreetingMessage()},
		ready:    true,
	}
}

// FailedInit returns the state of a session whose service could not be
// configured. Submissions are rejected for its whole lifetime.
func FailedInit(err error) State {
	msg := models.InitErrorFallback
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return State{err: msg}
}

// Messages returns a copy of the conversation in display order
func (s State) Messages() []models.Message {
	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of messages
func (s State) Len() int { return len(s.messages) }

// Loading reports whether a reply is streaming
func (s State) Loading() bool { return s.loading }

// Err returns the error banner text, empty when there is none
func (s State) Err() string { return s.err }

// Ready reports whether the session initialized successfully
func (s State) Ready() bool { return s.ready }

// InFlightID returns the ID of the streaming placeholder, if any
func (s State) InFlightID() string { return s.inFlight }

// Last returns the newest message
func (s State) Last() (models.Message, bool) {
	if len(s.messages) == 0 {
		return models.Message{}, false
	}
	return s.messages[len(s.messages)-1], true
}

// Find returns the message with id
func (s State) Find(id string) (models.Message, bool) {
	if i := s.index(id); i >= 0 {
		return s.messages[i], true
	}
	return models.Message{}, false
}

// LastReply returns the newest finished assistant message
func (s State) LastReply() (models.Message, bool) {
	for i := len(s.messages) - 1; i >= 0; i-- {
		m := s.messages[i]
		if m.IsAssistant() && m.ID != s.inFlight {
			return m, true
		}
	}
	return models.Message{}, false
}

// CanSubmit reports whether Submit would accept non-empty text
func (s State) CanSubmit() bool {
	return s.ready && !s.loading
}

// Submit appends the user message and an empty assistant placeholder and
// marks the session loading. The returned placeholder's ID is the one the
// caller must use for the fragments of the reply.
//
// Empty text, a streaming reply or a failed init reject the submission with
// a ValidationError and return s unchanged.
func (s State) Submit(text string) (State, models.Message, error) {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return s, models.Message{}, apierrors.NewValidationError(apierrors.ErrEmptyInput)
	case !s.ready:
		return s, models.Message{}, apierrors.NewValidationError(apierrors.ErrNotReady)
	case s.loading:
		return s, models.Message{}, apierrors.NewValidationError(apierrors.ErrBusy)
	}

	user := models.NewMessage(models.SenderUser, text)
	placeholder := models.NewMessage(models.SenderAssistant, "")

	next := s.with(append(s.Messages(), user, placeholder))
	next.loading = true
	next.err = ""
	next.inFlight = placeholder.ID
	return next, placeholder, nil
}

// ApplyFragment appends fragment to the in-flight message with id. Fragments
// for any other message, including one already removed by a failure, are
// dropped.
func (s State) ApplyFragment(id, fragment string) State {
	if id == "" || id != s.inFlight || fragment == "" {
		return s
	}
	i := s.index(id)
	if i < 0 {
		return s
	}

	msgs := s.Messages()
	msgs[i].Text += fragment
	return s.with(msgs)
}

// EndStream finalizes the in-flight message with id and clears loading.
func (s State) EndStream(id string) State {
	if id == "" || id != s.inFlight {
		return s
	}
	next := s
	next.loading = false
	next.inFlight = ""
	return next
}

// FailStream removes the message with id, discarding any partial reply, and
// records the error banner.
func (s State) FailStream(id string, err error) State {
	if id == "" || id != s.inFlight {
		return s
	}

	msgs := make([]models.Message, 0, len(s.messages))
	for _, m := range s.messages {
		if m.ID != id {
			msgs = append(msgs, m)
		}
	}

	next := s.with(msgs)
	next.loading = false
	next.inFlight = ""
	next.err = ErrorText(err)
	return next
}

// ErrorText builds the banner shown for a failed reply
func ErrorText(err error) string {
	desc := apierrors.Describe(err)
	if desc == "" {
		desc = models.UnknownError
	}
	return models.ErrorLeadIn + " " + desc
}

func (s State) with(msgs []models.Message) State {
	next := s
	next.messages = msgs
	return next
}

func (s State) index(id string) int {
	for i, m := range s.messages {
		if m.ID == id {
			return i
		}
	}
	return -1
}
