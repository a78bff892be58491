package api

import (
	"sync"

	"github.com/diogo/cleanfire/internal/models"
)

// The process-wide client is built on first use and kept for the lifetime of
// the process. Only successful constructions are cached.
var (
	defaultMu     sync.Mutex
	defaultClient *GeminiClient
	defaultOpts   []ClientOption
)

// SetDefaultOptions sets the options used when the shared client is built.
// It has no effect once the client exists.
func SetDefaultOptions(opts ...ClientOption) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultOpts = opts
}

// Default returns the shared client, constructing it from the environment on
// the first successful call.
func Default() (*GeminiClient, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultClient != nil {
		return defaultClient, nil
	}

	client, err := NewClientFromEnv(defaultOpts...)
	if err != nil {
		return nil, err
	}
	defaultClient = client
	return defaultClient, nil
}

// ResetDefault drops the shared client and its options
func ResetDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultClient = nil
	defaultOpts = nil
}

// InitializeSession opens a chat session on the shared client
func InitializeSession(systemPrompt string, sampling models.SamplingConfig, model models.Model) (*ChatSession, error) {
	client, err := Default()
	if err != nil {
		return nil, err
	}
	return client.StartChat(systemPrompt, sampling, model), nil
}

// StartCleanFire opens a session with the fixed persona, sampling and model
func StartCleanFire() (*ChatSession, error) {
	return InitializeSession(models.SystemInstruction, models.DefaultSampling, models.DefaultModel)
}
