package api

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"

	apierrors "github.com/diogo/cleanfire/internal/errors"
	"github.com/diogo/cleanfire/internal/models"
)

// Stream is a pull-based, non-restartable sequence of reply fragments read
// from a server-sent events body.
//
// Next returns fragments in arrival order and io.EOF once the provider ends
// the reply with a finish reason. A body that ends before that is a transport
// failure. Any error is terminal: every later call returns it again.
type Stream struct {
	body     io.ReadCloser
	reader   *bufio.Reader
	endpoint string
	logger   *slog.Logger
	cancel   context.CancelFunc

	mu         sync.Mutex
	err        error
	reply      strings.Builder
	fragments  int
	finished   bool
	onComplete func(reply string)
}

// Ensure Stream implements FragmentStream
var _ FragmentStream = (*Stream)(nil)

func newStream(body io.ReadCloser, endpoint string, logger *slog.Logger, cancel context.CancelFunc) *Stream {
	if cancel == nil {
		cancel = func() {}
	}
	return &Stream{
		body:     body,
		reader:   bufio.NewReader(body),
		endpoint: endpoint,
		logger:   logger,
		cancel:   cancel,
	}
}

// Next blocks until the next fragment arrives.
func (s *Stream) Next() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return "", s.err
	}

	for {
		data, err := s.readEvent()
		if err == io.EOF {
			if !s.finished {
				return "", s.failLocked(apierrors.NewTransportError("stream read", s.endpoint, io.ErrUnexpectedEOF))
			}
			s.finishLocked()
			return "", io.EOF
		}
		if err != nil {
			return "", s.failLocked(apierrors.NewTransportError("stream read", s.endpoint, err))
		}

		chunk, ok := models.ParseStreamChunk(data)
		if !ok {
			return "", s.failLocked(apierrors.NewServiceError(0, "", s.endpoint, "malformed stream event"))
		}
		if chunk.IsError() {
			return "", s.failLocked(apierrors.NewServiceError(chunk.ErrorCode, chunk.ErrorStatus, s.endpoint, chunk.ErrorMessage))
		}
		if chunk.IsBlocked() {
			return "", s.failLocked(apierrors.NewServiceError(0, chunk.Reason(), s.endpoint, "response blocked: "+chunk.Reason()))
		}
		if chunk.FinishReason != "" {
			s.finished = true
		}
		if chunk.Text == "" {
			continue
		}

		if s.fragments == 0 {
			s.logger.Debug("first fragment received")
		}
		s.fragments++
		s.reply.WriteString(chunk.Text)
		return chunk.Text, nil
	}
}

// Close releases the connection. Closing before the end discards the turn.
// It may be called while another goroutine is blocked in Next.
func (s *Stream) Close() error {
	s.cancel()
	closeErr := s.body.Close()

	s.mu.Lock()
	if s.err == nil {
		s.err = apierrors.ErrStreamClosed
	}
	s.mu.Unlock()
	return closeErr
}

// Reply returns the text received so far
func (s *Stream) Reply() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reply.String()
}

// readEvent returns the data of the next SSE event, joining multi-line data
// fields. Comment lines and other fields are skipped. An event cut off by the
// end of the body yields io.ErrUnexpectedEOF.
func (s *Stream) readEvent() ([]byte, error) {
	var data []byte
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}

		trimmed := strings.TrimRight(line, "\r\n")
		switch {
		case trimmed == "":
			if len(data) > 0 {
				return data, nil
			}
		case strings.HasPrefix(trimmed, ":"):
		case strings.HasPrefix(trimmed, "data:"):
			payload := strings.TrimPrefix(trimmed, "data:")
			payload = strings.TrimPrefix(payload, " ")
			if len(data) > 0 {
				data = append(data, '\n')
			}
			data = append(data, payload...)
		}

		if err == io.EOF {
			if len(data) > 0 || trimmed != "" {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, io.EOF
		}
	}
}

// finishLocked marks the stream complete and records the turn
func (s *Stream) finishLocked() {
	s.err = io.EOF
	s.cancel()
	_ = s.body.Close()
	s.logger.Info("stream finished", "fragments", s.fragments, "chars", s.reply.Len())
	if s.onComplete != nil {
		s.onComplete(s.reply.String())
		s.onComplete = nil
	}
}

// failLocked makes err terminal and releases the connection
func (s *Stream) failLocked(err error) error {
	s.err = err
	s.cancel()
	_ = s.body.Close()
	if !errors.Is(err, context.Canceled) {
		s.logger.Warn("stream failed", "fragments", s.fragments, "error", err)
	}
	return err
}
