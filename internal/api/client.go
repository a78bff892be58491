// Package api provides the Gemini streaming client used as the completion
// stream adapter.
package api

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"

	"github.com/diogo/cleanfire/internal/config"
	apierrors "github.com/diogo/cleanfire/internal/errors"
	"github.com/diogo/cleanfire/internal/models"
)

// DefaultTimeout bounds a whole streamed reply when no option overrides it
const DefaultTimeout = 300 * time.Second

// HTTPDoer is the part of tls_client.HttpClient the client needs
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// GeminiClient talks to the Gemini API with an API key. It holds transport
// configuration only. Its fields are fixed after NewClient, so it is safe to
// share without locking.
type GeminiClient struct {
	httpClient HTTPDoer
	apiKey     string
	baseURL    string
	model      models.Model
	timeout    time.Duration
	logger     *slog.Logger
}

// ClientOption is a function that configures the client
type ClientOption func(*GeminiClient)

// WithModel sets the default model for the client
func WithModel(model models.Model) ClientOption {
	return func(c *GeminiClient) {
		c.model = model
	}
}

// WithBaseURL points the client at another API root
func WithBaseURL(baseURL string) ClientOption {
	return func(c *GeminiClient) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient replaces the TLS client, mainly for tests
func WithHTTPClient(doer HTTPDoer) ClientOption {
	return func(c *GeminiClient) {
		c.httpClient = doer
	}
}

// WithTimeout bounds each streamed reply. Zero or negative keeps the default.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *GeminiClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger for request lifecycle events
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *GeminiClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a new GeminiClient. An empty key is a ConfigurationError.
func NewClient(apiKey string, opts ...ClientOption) (*GeminiClient, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, apierrors.NewConfigurationError("", apierrors.ErrMissingAPIKey)
	}

	client := &GeminiClient{
		apiKey:  apiKey,
		baseURL: models.EndpointBase,
		model:   models.DefaultModel,
		timeout: DefaultTimeout,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.httpClient == nil {
		options := []tls_client.HttpClientOption{
			tls_client.WithTimeoutSeconds(int(client.timeout / time.Second)),
			tls_client.WithClientProfile(profiles.Chrome_120),
			tls_client.WithNotFollowRedirects(),
		}

		httpClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		client.httpClient = httpClient
	}

	return client, nil
}

// NewClientFromEnv creates a client with the key found in the environment
func NewClientFromEnv(opts ...ClientOption) (*GeminiClient, error) {
	key, err := config.LookupAPIKey()
	if err != nil {
		return nil, err
	}
	return NewClient(key, opts...)
}

// GetModel returns the default model
func (c *GeminiClient) GetModel() models.Model {
	return c.model
}

// BaseURL returns the API root the client talks to
func (c *GeminiClient) BaseURL() string {
	return c.baseURL
}

// Timeout returns the per-reply timeout
func (c *GeminiClient) Timeout() time.Duration {
	return c.timeout
}

// StartChat creates a chat session bound to this client. Passing a zero
// model uses the client's default.
func (c *GeminiClient) StartChat(systemPrompt string, sampling models.SamplingConfig, model models.Model) *ChatSession {
	if model.Name == "" {
		model = c.GetModel()
	}
	return &ChatSession{
		client:       c,
		systemPrompt: systemPrompt,
		sampling:     sampling,
		model:        model,
	}
}

// streamURL returns the SSE endpoint for model
func (c *GeminiClient) streamURL(model models.Model) string {
	return fmt.Sprintf("%s/%s:%s?alt=sse", c.baseURL, model.Path(), models.MethodStreamGenerate)
}
