package relay

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatrelay/internal/upstream"
	"chatrelay/pkg/types"
)

type fakeProvider struct {
	stream    string
	streamErr error
	listIDs   []string
	listErr   error

	gotKey      string
	gotModel    string
	gotMessages []types.Message
	gotTemp     float64
}

func (f *fakeProvider) ChatCompletionStream(ctx context.Context, key, model string, messages []types.Message, temperature float64) (io.ReadCloser, error) {
	f.gotKey, f.gotModel, f.gotMessages, f.gotTemp = key, model, messages, temperature
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	return io.NopCloser(strings.NewReader(f.stream)), nil
}

func (f *fakeProvider) ListModels(ctx context.Context, key string) ([]string, error) {
	return f.listIDs, f.listErr
}

type fakeRecorder struct {
	id        string
	user      types.Message
	assistant types.Message
	calls     int
}

func (f *fakeRecorder) AppendExchange(id string, user, assistant types.Message) error {
	f.id, f.user, f.assistant = id, user, assistant
	f.calls++
	return nil
}

func newTestRelay(p Provider, rec Recorder, cfg Config) *Relay {
	return New(p, wordCounter{}, rec, cfg, zerolog.Nop())
}

func TestChatStreamPassThrough(t *testing.T) {
	const raw = "data: {\"choices\":[{\"delta\":{\"content\":\"hi\"}}]}\n\ndata: [DONE]\n\n"
	p := &fakeProvider{stream: raw}
	r := newTestRelay(p, nil, Config{ServerKey: "sk-server"})

	var out bytes.Buffer
	flushes := 0
	err := r.ChatStream(context.Background(), types.ChatRequest{
		Model:    "llama3-8b-8192",
		Messages: []types.Message{{Role: "user", Content: "hello"}},
	}, &out, func() { flushes++ })
	require.NoError(t, err)
	assert.Equal(t, raw, out.String(), "stream must pass through unmodified")
	assert.Greater(t, flushes, 0)
	assert.Equal(t, "sk-server", p.gotKey)
}

func TestChatStreamPrependsSystemPrompt(t *testing.T) {
	p := &fakeProvider{stream: "x"}
	r := newTestRelay(p, nil, Config{ServerKey: "k", SystemPrompt: "be brief"})

	err := r.ChatStream(context.Background(), types.ChatRequest{
		Model:    "llama3-8b-8192",
		Messages: []types.Message{{Role: "user", Content: "hello"}},
	}, io.Discard, nil)
	require.NoError(t, err)
	require.Len(t, p.gotMessages, 2)
	assert.Equal(t, types.Message{Role: "system", Content: "be brief"}, p.gotMessages[0])
	assert.Equal(t, "hello", p.gotMessages[1].Content)
}

func TestChatStreamRequestKeyAndPromptWin(t *testing.T) {
	p := &fakeProvider{stream: "x"}
	r := newTestRelay(p, nil, Config{ServerKey: "sk-server", SystemPrompt: "server prompt"})

	temp := 0.2
	err := r.ChatStream(context.Background(), types.ChatRequest{
		Model:       "llama3-8b-8192",
		Key:         "sk-request",
		Prompt:      "request prompt",
		Temperature: &temp,
		Messages:    []types.Message{{Role: "user", Content: "hi"}},
	}, io.Discard, nil)
	require.NoError(t, err)
	assert.Equal(t, "sk-request", p.gotKey)
	assert.Equal(t, "request prompt", p.gotMessages[0].Content)
	assert.Equal(t, 0.2, p.gotTemp)
}

func TestReadyNeedsProviderOnly(t *testing.T) {
	assert.True(t, newTestRelay(&fakeProvider{}, nil, Config{}).Ready(),
		"a relay with no conversation store is still ready")
	assert.False(t, newTestRelay(nil, nil, Config{}).Ready())
}

func TestChatStreamZeroServerTemperature(t *testing.T) {
	p := &fakeProvider{stream: "x"}
	zero := 0.0
	r := newTestRelay(p, nil, Config{ServerKey: "k", Temperature: &zero})

	err := r.ChatStream(context.Background(), types.ChatRequest{
		Model:    "llama3-8b-8192",
		Messages: []types.Message{{Role: "user", Content: "hi"}},
	}, io.Discard, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, p.gotTemp, "configured zero temperature must not fall back to the default")
}

func TestChatStreamDefaultTemperature(t *testing.T) {
	p := &fakeProvider{stream: "x"}
	r := newTestRelay(p, nil, Config{ServerKey: "k"})

	err := r.ChatStream(context.Background(), types.ChatRequest{
		Model:    "llama3-8b-8192",
		Messages: []types.Message{{Role: "user", Content: "hi"}},
	}, io.Discard, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultTemperature, p.gotTemp)
}

func TestChatStreamDefaultModel(t *testing.T) {
	p := &fakeProvider{stream: "x"}
	r := newTestRelay(p, nil, Config{ServerKey: "k", DefaultModel: "mixtral-8x7b-32768"})

	err := r.ChatStream(context.Background(), types.ChatRequest{
		Messages: []types.Message{{Role: "user", Content: "hi"}},
	}, io.Discard, nil)
	require.NoError(t, err)
	assert.Equal(t, "mixtral-8x7b-32768", p.gotModel)
}

func TestChatStreamUnknownModel(t *testing.T) {
	r := newTestRelay(&fakeProvider{}, nil, Config{ServerKey: "k"})
	err := r.ChatStream(context.Background(), types.ChatRequest{Model: "gpt-99"}, io.Discard, nil)
	require.Error(t, err)
	assert.True(t, IsModelNotFound(err))
}

func TestChatStreamMissingKey(t *testing.T) {
	r := newTestRelay(&fakeProvider{}, nil, Config{})
	err := r.ChatStream(context.Background(), types.ChatRequest{Model: "llama3-8b-8192"}, io.Discard, nil)
	require.Error(t, err)
	assert.True(t, IsMissingKey(err))
}

func TestChatStreamUpstreamStatusError(t *testing.T) {
	p := &fakeProvider{streamErr: upstream.ErrStatus(401, "Invalid API Key")}
	r := newTestRelay(p, nil, Config{ServerKey: "bad"})
	err := r.ChatStream(context.Background(), types.ChatRequest{Model: "llama3-8b-8192"}, io.Discard, nil)
	require.Error(t, err)
	assert.True(t, IsUpstream(err))
	assert.Contains(t, err.Error(), "Invalid API Key")
}

func TestChatStreamNetworkError(t *testing.T) {
	p := &fakeProvider{streamErr: errors.New("dial tcp: connection refused")}
	r := newTestRelay(p, nil, Config{ServerKey: "k"})
	err := r.ChatStream(context.Background(), types.ChatRequest{Model: "llama3-8b-8192"}, io.Discard, nil)
	require.Error(t, err)
	assert.True(t, IsUpstream(err))
	assert.NotContains(t, err.Error(), "connection refused", "transport details must not leak")
}

func TestChatStreamTrimsHistory(t *testing.T) {
	p := &fakeProvider{stream: "x"}
	r := newTestRelay(p, nil, Config{ServerKey: "k", ReplyMargin: 8190})
	// budget = 8192 - 8190 - promptTokens; only the newest short message fits.
	err := r.ChatStream(context.Background(), types.ChatRequest{
		Model:  "llama3-8b-8192",
		Prompt: "p",
		Messages: []types.Message{
			{Role: "user", Content: "a"},
			{Role: "assistant", Content: "b"},
			{Role: "user", Content: "c"},
		},
	}, io.Discard, nil)
	require.NoError(t, err)
	require.Len(t, p.gotMessages, 2) // system + newest
	assert.Equal(t, "c", p.gotMessages[1].Content)
}

func TestChatStreamRecordsExchange(t *testing.T) {
	const raw = "data: {\"choices\":[{\"delta\":{\"content\":\"Waves \"}}]}\n\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"fold\"}}]}\n\n" +
		"data: [DONE]\n\n"
	p := &fakeProvider{stream: raw}
	rec := &fakeRecorder{}
	r := newTestRelay(p, rec, Config{ServerKey: "k"})

	var out bytes.Buffer
	err := r.ChatStream(context.Background(), types.ChatRequest{
		Model:          "llama3-8b-8192",
		ConversationID: "c1",
		Messages:       []types.Message{{Role: "user", Content: "haiku please"}},
	}, &out, nil)
	require.NoError(t, err)
	assert.Equal(t, raw, out.String(), "recording must not alter the stream")
	require.Equal(t, 1, rec.calls)
	assert.Equal(t, "c1", rec.id)
	assert.Equal(t, "haiku please", rec.user.Content)
	assert.Equal(t, "Waves fold", rec.assistant.Content)
}

func TestChatStreamNoRecordWithoutConversation(t *testing.T) {
	p := &fakeProvider{stream: "x"}
	rec := &fakeRecorder{}
	r := newTestRelay(p, rec, Config{ServerKey: "k"})
	err := r.ChatStream(context.Background(), types.ChatRequest{
		Model:    "llama3-8b-8192",
		Messages: []types.Message{{Role: "user", Content: "hi"}},
	}, io.Discard, nil)
	require.NoError(t, err)
	assert.Zero(t, rec.calls)
}

func TestModelsIntersection(t *testing.T) {
	p := &fakeProvider{listIDs: []string{"llama3-8b-8192", "whisper-large-v3"}}
	r := newTestRelay(p, nil, Config{})
	got := r.Models(context.Background(), "k")
	require.Len(t, got, 1)
	assert.Equal(t, "llama3-8b-8192", got[0].ID)
}

func TestModelsFallbackOnError(t *testing.T) {
	p := &fakeProvider{listErr: errors.New("boom")}
	r := newTestRelay(p, nil, Config{})
	got := r.Models(context.Background(), "k")
	assert.Len(t, got, 3, "fallback list is the full static catalog")
}

func TestModelsFallbackOnEmptyIntersection(t *testing.T) {
	p := &fakeProvider{listIDs: []string{"whisper-large-v3"}}
	r := newTestRelay(p, nil, Config{})
	got := r.Models(context.Background(), "k")
	assert.Len(t, got, 3)
}
