package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	http "github.com/bogdanfinn/fhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/cleanfire/internal/errors"
	"github.com/diogo/cleanfire/internal/models"
)

// fakeDoer implements HTTPDoer for testing
type fakeDoer struct {
	mu       sync.Mutex
	requests []*http.Request
	bodies   []string
	doFunc   func(req *http.Request) (*http.Response, error)
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	body, _ := io.ReadAll(req.Body)
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.bodies = append(f.bodies, string(body))
	f.mu.Unlock()
	return f.doFunc(req)
}

func (f *fakeDoer) lastBody() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[len(f.bodies)-1]
}

func sseResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"text/event-stream"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func textEvent(text string) string {
	return `data: {"candidates":[{"content":{"parts":[{"text":"` + text + `"}],"role":"model"}}]}` + "\n\n"
}

// stopEvent is the closing event the provider sends once the reply is complete
const stopEvent = `data: {"candidates":[{"content":{"parts":[{"text":""}],"role":"model"},"finishReason":"STOP"}]}` + "\n\n"

func newTestClient(t *testing.T, doer HTTPDoer) *GeminiClient {
	t.Helper()
	client, err := NewClient("test-key", WithHTTPClient(doer), WithBaseURL("https://api.test/v1beta/"))
	require.NoError(t, err)
	return client
}

func slogDiscard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func drain(t *testing.T, s FragmentStream) ([]string, error) {
	t.Helper()
	var out []string
	for {
		f, err := s.Next()
		if err != nil {
			return out, err
		}
		out = append(out, f)
	}
}

func TestNewClient(t *testing.T) {
	_, err := NewClient("   ")
	require.Error(t, err)
	assert.True(t, apierrors.IsConfigurationError(err))
	assert.ErrorIs(t, err, apierrors.ErrMissingAPIKey)

	client, err := NewClient("key", WithHTTPClient(&fakeDoer{}), WithTimeout(5*time.Second), WithModel(models.Model{Name: "gemini-test"}))
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, client.Timeout())
	assert.Equal(t, "gemini-test", client.GetModel().Name)
	assert.Equal(t, models.EndpointBase, client.BaseURL())

	client, err = NewClient("key", WithHTTPClient(&fakeDoer{}), WithTimeout(0))
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, client.Timeout())
}

func TestSendMessageStream_Fragments(t *testing.T) {
	doer := &fakeDoer{doFunc: func(req *http.Request) (*http.Response, error) {
		return sseResponse(200, textEvent("You ")+textEvent("are ")+textEvent("not ")+textEvent("tired.")+stopEvent), nil
	}}
	client := newTestClient(t, doer)
	session := client.StartChat(models.SystemInstruction, models.DefaultSampling, models.Model{})

	stream, err := session.SendMessageStream(context.Background(), "Hello")
	require.NoError(t, err)

	fragments, err := drain(t, stream)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []string{"You ", "are ", "not ", "tired."}, fragments)

	// Not restartable
	_, err = stream.Next()
	assert.ErrorIs(t, err, io.EOF)

	req := doer.requests[0]
	assert.Equal(t, "https://api.test/v1beta/models/gemini-2.5-flash:streamGenerateContent?alt=sse", req.URL.String())
	assert.Equal(t, "test-key", req.Header.Get("x-goog-api-key"))
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

	body := doer.lastBody()
	require.True(t, gjson.Valid(body))
	assert.Contains(t, gjson.Get(body, "systemInstruction.parts.0.text").String(), "Clean Fire")
	assert.Equal(t, 0.8, gjson.Get(body, "generationConfig.temperature").Float())
	assert.Equal(t, 0.9, gjson.Get(body, "generationConfig.topP").Float())
	assert.Equal(t, int64(40), gjson.Get(body, "generationConfig.topK").Int())
	assert.Equal(t, int64(1), gjson.Get(body, "contents.#").Int())
	assert.Equal(t, "Hello", gjson.Get(body, "contents.0.parts.0.text").String())
	assert.Equal(t, "user", gjson.Get(body, "contents.0.role").String())
}

func TestSendMessageStream_HistoryOnlyForCompletedTurns(t *testing.T) {
	replies := []string{
		textEvent("Walk on.") + stopEvent,
		textEvent("Partial") + `data: {"error":{"code":500,"message":"internal","status":"INTERNAL"}}` + "\n\n",
		textEvent("Carry the stone.") + stopEvent,
	}
	call := 0
	doer := &fakeDoer{doFunc: func(req *http.Request) (*http.Response, error) {
		body := replies[call]
		call++
		return sseResponse(200, body), nil
	}}
	session := newTestClient(t, doer).StartChat("", models.DefaultSampling, models.DefaultModel)

	stream, err := session.SendMessageStream(context.Background(), "first")
	require.NoError(t, err)
	_, err = drain(t, stream)
	require.ErrorIs(t, err, io.EOF)
	require.Len(t, session.History(), 2)

	stream, err = session.SendMessageStream(context.Background(), "second")
	require.NoError(t, err)
	_, err = drain(t, stream)
	require.True(t, apierrors.IsServiceError(err))
	assert.Len(t, session.History(), 2, "failed turn must not be recorded")

	stream, err = session.SendMessageStream(context.Background(), "third")
	require.NoError(t, err)
	_, _ = drain(t, stream)

	body := doer.lastBody()
	assert.False(t, gjson.Get(body, "systemInstruction").Exists(), "empty system prompt is omitted")
	assert.Equal(t, int64(3), gjson.Get(body, "contents.#").Int())
	assert.Equal(t, "first", gjson.Get(body, "contents.0.parts.0.text").String())
	assert.Equal(t, "model", gjson.Get(body, "contents.1.role").String())
	assert.Equal(t, "Walk on.", gjson.Get(body, "contents.1.parts.0.text").String())
	assert.Equal(t, "third", gjson.Get(body, "contents.2.parts.0.text").String())
	assert.Len(t, session.History(), 4)
}

func TestSendMessageStream_OpenErrors(t *testing.T) {
	tests := []struct {
		name   string
		doFunc func(req *http.Request) (*http.Response, error)
		check  func(t *testing.T, err error)
	}{
		{
			name: "network failure",
			doFunc: func(req *http.Request) (*http.Response, error) {
				return nil, errors.New("dial tcp: connection refused")
			},
			check: func(t *testing.T, err error) {
				assert.True(t, apierrors.IsTransportError(err))
				assert.Equal(t, "dial tcp: connection refused", apierrors.Describe(err))
			},
		},
		{
			name: "invalid key",
			doFunc: func(req *http.Request) (*http.Response, error) {
				return sseResponse(400, `{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT"}}`), nil
			},
			check: func(t *testing.T, err error) {
				var svc *apierrors.ServiceError
				require.ErrorAs(t, err, &svc)
				assert.Equal(t, 400, svc.StatusCode)
				assert.Equal(t, "INVALID_ARGUMENT", svc.Status)
				assert.Equal(t, "API key not valid. Please pass a valid API key.", svc.Message)
			},
		},
		{
			name: "gateway error with plain body",
			doFunc: func(req *http.Request) (*http.Response, error) {
				return sseResponse(502, "Bad Gateway"), nil
			},
			check: func(t *testing.T, err error) {
				assert.Equal(t, 502, apierrors.GetHTTPStatus(err))
				assert.Contains(t, err.Error(), "Bad Gateway")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := newTestClient(t, &fakeDoer{doFunc: tt.doFunc}).StartChat("", models.DefaultSampling, models.DefaultModel)
			stream, err := session.SendMessageStream(context.Background(), "Hi")
			assert.Nil(t, stream)
			require.Error(t, err)
			tt.check(t, err)
			assert.Empty(t, session.History())
		})
	}
}

func TestSendMessageStream_EmptyText(t *testing.T) {
	doer := &fakeDoer{doFunc: func(req *http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	}}
	session := newTestClient(t, doer).StartChat("", models.DefaultSampling, models.DefaultModel)

	_, err := session.SendMessageStream(context.Background(), "")
	assert.True(t, apierrors.IsValidationError(err))
}

func TestSendMessageStream_TransportDropMidStream(t *testing.T) {
	pr, pw := io.Pipe()
	doer := &fakeDoer{doFunc: func(req *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: 200, Body: pr, Header: http.Header{}}, nil
	}}
	session := newTestClient(t, doer).StartChat("", models.DefaultSampling, models.DefaultModel)

	stream, err := session.SendMessageStream(context.Background(), "Hi")
	require.NoError(t, err)

	go func() {
		_, _ = io.WriteString(pw, textEvent("You "))
		pw.CloseWithError(errors.New("network drop"))
	}()

	f, err := stream.Next()
	require.NoError(t, err)
	assert.Equal(t, "You ", f)

	_, err = stream.Next()
	require.Error(t, err)
	assert.True(t, apierrors.IsTransportError(err))
	assert.Equal(t, "network drop", apierrors.Describe(err))

	// Sticky
	_, again := stream.Next()
	assert.Equal(t, err, again)
	assert.Empty(t, session.History())
}

func TestSendMessageStream_FragmentsArriveIncrementally(t *testing.T) {
	pr, pw := io.Pipe()
	doer := &fakeDoer{doFunc: func(req *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: 200, Body: pr, Header: http.Header{}}, nil
	}}
	session := newTestClient(t, doer).StartChat("", models.DefaultSampling, models.DefaultModel)
	stream, err := session.SendMessageStream(context.Background(), "Hi")
	require.NoError(t, err)

	release := make(chan struct{})
	go func() {
		_, _ = io.WriteString(pw, textEvent("first"))
		<-release
		_, _ = io.WriteString(pw, textEvent("second")+stopEvent)
		_ = pw.Close()
	}()

	f, err := stream.Next()
	require.NoError(t, err)
	assert.Equal(t, "first", f, "first fragment is available before the rest of the body")

	close(release)
	f, err = stream.Next()
	require.NoError(t, err)
	assert.Equal(t, "second", f)

	_, err = stream.Next()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "firstsecond", stream.(*Stream).Reply())
}

func TestSendMessageStream_TruncatedBodyIsNotFinal(t *testing.T) {
	doer := &fakeDoer{doFunc: func(req *http.Request) (*http.Response, error) {
		return sseResponse(200, textEvent("You ")), nil
	}}
	session := newTestClient(t, doer).StartChat("", models.DefaultSampling, models.DefaultModel)

	stream, err := session.SendMessageStream(context.Background(), "Hi")
	require.NoError(t, err)

	f, err := stream.Next()
	require.NoError(t, err)
	assert.Equal(t, "You ", f)

	_, err = stream.Next()
	require.Error(t, err)
	assert.NotErrorIs(t, err, io.EOF)
	assert.True(t, apierrors.IsTransportError(err))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Empty(t, session.History())
}

func TestSendMessageStream_CutInsideEvent(t *testing.T) {
	doer := &fakeDoer{doFunc: func(req *http.Request) (*http.Response, error) {
		return sseResponse(200, textEvent("You ")+`data: {"candidates":[{"content":{"parts":[{"text":"are`), nil
	}}
	session := newTestClient(t, doer).StartChat("", models.DefaultSampling, models.DefaultModel)

	stream, err := session.SendMessageStream(context.Background(), "Hi")
	require.NoError(t, err)

	fragments, err := drain(t, stream)
	assert.Equal(t, []string{"You "}, fragments)
	require.Error(t, err)
	assert.True(t, apierrors.IsTransportError(err))
	assert.False(t, apierrors.IsServiceError(err))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Empty(t, session.History())
}

func TestStream_CloseDiscardsTurn(t *testing.T) {
	doer := &fakeDoer{doFunc: func(req *http.Request) (*http.Response, error) {
		return sseResponse(200, textEvent("a")+textEvent("b")), nil
	}}
	session := newTestClient(t, doer).StartChat("", models.DefaultSampling, models.DefaultModel)
	stream, err := session.SendMessageStream(context.Background(), "Hi")
	require.NoError(t, err)

	_, err = stream.Next()
	require.NoError(t, err)
	require.NoError(t, stream.Close())

	_, err = stream.Next()
	assert.ErrorIs(t, err, apierrors.ErrStreamClosed)
	assert.Empty(t, session.History())
}

func TestStream_SSEParsing(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    []string
		wantErr func(error) bool
	}{
		{
			name: "comments and crlf",
			body: ": keep-alive\r\n" + strings.ReplaceAll(textEvent("a"), "\n", "\r\n") + textEvent("b") + stopEvent,
			want: []string{"a", "b"},
		},
		{
			name: "final fragment carries the finish reason",
			body: textEvent("a") + `data: {"candidates":[{"content":{"parts":[{"text":"z"}]},"finishReason":"MAX_TOKENS"}]}` + "\n\n",
			want: []string{"a", "z"},
		},
		{
			name:    "body ends without finish reason",
			body:    textEvent("You ") + textEvent("are "),
			want:    []string{"You ", "are "},
			wantErr: apierrors.IsTransportError,
		},
		{
			name:    "body cut inside an event",
			body:    textEvent("You ") + `data: {"candidates":[{"content":{"parts":[{"text":"are`,
			want:    []string{"You "},
			wantErr: apierrors.IsTransportError,
		},
		{
			name:    "last event without trailing blank line",
			body:    textEvent("a") + `data: {"candidates":[{"content":{"parts":[{"text":"z"}]},"finishReason":"STOP"}]}`,
			want:    []string{"a"},
			wantErr: apierrors.IsTransportError,
		},
		{
			name: "multi-line data field",
			body: "data: {\"candidates\":[{\"content\":\n" + `data: {"parts":[{"text":"joined"}]}}]}` + "\n\n" + stopEvent,
			want: []string{"joined"},
		},
		{
			name: "events without text are skipped",
			body: textEvent("a") + `data: {"candidates":[{"finishReason":"STOP"}],"usageMetadata":{"totalTokenCount":9}}` + "\n\n",
			want: []string{"a"},
		},
		{
			name:    "blocked prompt",
			body:    `data: {"promptFeedback":{"blockReason":"SAFETY"}}` + "\n\n",
			wantErr: apierrors.IsServiceError,
		},
		{
			name:    "malformed event",
			body:    textEvent("a") + "data: {not json\n\n",
			want:    []string{"a"},
			wantErr: apierrors.IsServiceError,
		},
		{
			name:    "empty body",
			body:    "",
			wantErr: apierrors.IsTransportError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStream(io.NopCloser(strings.NewReader(tt.body)), "test", slogDiscard(), nil)
			got, err := drain(t, s)
			assert.Equal(t, tt.want, got)
			if tt.wantErr != nil {
				assert.True(t, tt.wantErr(err), "unexpected error %v", err)
			} else {
				assert.ErrorIs(t, err, io.EOF)
			}
		})
	}
}

func TestSendMessageStream_ContextCanceled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	doer := &fakeDoer{doFunc: func(req *http.Request) (*http.Response, error) {
		go func() {
			<-req.Context().Done()
			pw.CloseWithError(req.Context().Err())
		}()
		return &http.Response{StatusCode: 200, Body: pr, Header: http.Header{}}, nil
	}}
	session := newTestClient(t, doer).StartChat("", models.DefaultSampling, models.DefaultModel)

	ctx, cancel := context.WithCancel(context.Background())
	stream, err := session.SendMessageStream(ctx, "Hi")
	require.NoError(t, err)
	cancel()

	_, err = stream.Next()
	require.Error(t, err)
	assert.True(t, apierrors.IsTransportError(err))
	assert.ErrorIs(t, err, context.Canceled)
}
