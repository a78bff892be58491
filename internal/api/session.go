package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	http "github.com/bogdanfinn/fhttp"

	apierrors "github.com/diogo/cleanfire/internal/errors"
	"github.com/diogo/cleanfire/internal/models"
)

// Part is a piece of message content on the wire
type Part struct {
	Text string `json:"text"`
}

// Content is one turn of the conversation on the wire
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// generateRequest is the body of a streamGenerateContent call
type generateRequest struct {
	SystemInstruction *Content              `json:"systemInstruction,omitempty"`
	Contents          []Content             `json:"contents"`
	GenerationConfig  models.SamplingConfig `json:"generationConfig"`
}

// ChatSession keeps the fixed session configuration and the completed turns
// sent as context with every new message.
type ChatSession struct {
	client       *GeminiClient
	systemPrompt string
	sampling     models.SamplingConfig
	model        models.Model

	mu      sync.RWMutex // Protects history
	history []Content
}

// Ensure ChatSession implements ChatSessionInterface
var _ ChatSessionInterface = (*ChatSession)(nil)

// GetModel returns the session's model
func (s *ChatSession) GetModel() models.Model {
	return s.model
}

// History returns a copy of the completed turns
func (s *ChatSession) History() []Content {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Content, len(s.history))
	copy(out, s.history)
	return out
}

// appendTurn records a finished exchange
func (s *ChatSession) appendTurn(userText, reply string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history,
		Content{Role: string(models.SenderUser), Parts: []Part{{Text: userText}}},
		Content{Role: string(models.SenderAssistant), Parts: []Part{{Text: reply}}},
	)
}

// buildPayload creates the JSON body for a user turn
func (s *ChatSession) buildPayload(userText string) ([]byte, error) {
	contents := s.History()
	contents = append(contents, Content{
		Role:  string(models.SenderUser),
		Parts: []Part{{Text: userText}},
	})

	req := generateRequest{
		Contents:         contents,
		GenerationConfig: s.sampling,
	}
	if s.systemPrompt != "" {
		req.SystemInstruction = &Content{Parts: []Part{{Text: s.systemPrompt}}}
	}

	return json.Marshal(req)
}

// SendMessageStream sends userText and returns the reply as a fragment
// stream. The turn joins the session history only if the stream completes.
func (s *ChatSession) SendMessageStream(ctx context.Context, userText string) (FragmentStream, error) {
	if userText == "" {
		return nil, apierrors.NewValidationError(apierrors.ErrEmptyInput)
	}

	payload, err := s.buildPayload(userText)
	if err != nil {
		return nil, fmt.Errorf("failed to build payload: %w", err)
	}

	c := s.client
	endpoint := c.streamURL(s.model)

	var cancel context.CancelFunc
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range models.DefaultHeaders() {
		req.Header.Set(key, value)
	}
	req.Header.Set("x-goog-api-key", c.apiKey)

	c.logger.Debug("opening stream", "model", s.model.Name, "turns", len(s.History())+1)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		cancel()
		c.logger.Warn("stream request failed", "error", err)
		return nil, apierrors.NewTransportError("send message", endpoint, err)
	}

	if resp.StatusCode != http.StatusOK {
		defer cancel()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		status, message := models.ParseErrorBody(body)
		c.logger.Warn("stream rejected", "status", resp.StatusCode, "provider_status", status)
		return nil, apierrors.NewServiceError(resp.StatusCode, status, endpoint, message)
	}

	stream := newStream(resp.Body, endpoint, c.logger, cancel)
	stream.onComplete = func(reply string) {
		s.appendTurn(userText, reply)
	}
	return stream, nil
}
