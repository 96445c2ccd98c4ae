// Package relay implements the chat relay core: resolve model and key, trim
// history to the model's token budget, forward the request upstream and pass
// the streamed bytes back to the caller.
package relay

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"chatrelay/internal/registry"
	"chatrelay/internal/tokens"
	"chatrelay/internal/upstream"
	"chatrelay/pkg/types"
)

// DefaultSystemPrompt is used when the request carries no prompt and none is
// configured.
const DefaultSystemPrompt = "You are a helpful assistant. Follow the user's instructions carefully. Respond using markdown."

// DefaultTemperature is used when the request omits temperature.
const DefaultTemperature = 1.0

// Provider is the upstream API surface the relay depends on.
type Provider interface {
	ChatCompletionStream(ctx context.Context, key, model string, messages []types.Message, temperature float64) (io.ReadCloser, error)
	ListModels(ctx context.Context, key string) ([]string, error)
}

// Recorder persists completed exchanges. May be nil when the request names no
// conversation.
type Recorder interface {
	AppendExchange(id string, user, assistant types.Message) error
}

// Config holds relay defaults resolved from the environment.
type Config struct {
	// DefaultModel is used when the request omits a model id.
	DefaultModel string
	// ServerKey is used when the request omits a key.
	ServerKey string
	// SystemPrompt is used when the request omits a prompt.
	SystemPrompt string
	// Temperature is used when the request omits a temperature. Nil means
	// DefaultTemperature; zero is a valid setting.
	Temperature *float64
	// ReplyMargin is the token headroom reserved for the reply.
	ReplyMargin int
}

// Relay is the service behind the HTTP API.
type Relay struct {
	provider Provider
	counter  tokens.Counter
	recorder Recorder
	cfg      Config
	log      zerolog.Logger
}

// New builds a Relay, filling config zero values with defaults.
func New(p Provider, c tokens.Counter, rec Recorder, cfg Config, log zerolog.Logger) *Relay {
	if c == nil {
		c = tokens.Default()
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.Temperature == nil {
		v := float64(DefaultTemperature)
		cfg.Temperature = &v
	}
	if cfg.ReplyMargin == 0 {
		cfg.ReplyMargin = DefaultReplyMargin
	}
	return &Relay{provider: p, counter: c, recorder: rec, cfg: cfg, log: log}
}

// Ready reports whether the relay can serve requests.
func (r *Relay) Ready() bool { return r.provider != nil }

// ChatStream forwards a chat request upstream and copies the streamed
// response to w unmodified, flushing as bytes arrive. A single best-effort
// attempt: no retry, no backoff.
func (r *Relay) ChatStream(ctx context.Context, req types.ChatRequest, w io.Writer, flush func()) error {
	modelID := req.Model
	if modelID == "" {
		modelID = r.cfg.DefaultModel
	}
	model, ok := registry.Lookup(modelID)
	if !ok {
		return ErrModelNotFound(modelID)
	}

	key := req.Key
	if key == "" {
		key = r.cfg.ServerKey
	}
	if key == "" {
		return ErrMissingKey()
	}

	prompt := req.Prompt
	if prompt == "" {
		prompt = r.cfg.SystemPrompt
	}
	temperature := *r.cfg.Temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	promptTokens := r.counter.Count(prompt)
	kept := TrimMessages(r.counter, req.Messages, promptTokens, model.TokenLimit, r.cfg.ReplyMargin)
	if dropped := len(req.Messages) - len(kept); dropped > 0 {
		r.log.Debug().Str("model", model.ID).Int("dropped", dropped).Msg("trimmed history to token budget")
	}

	outbound := make([]types.Message, 0, len(kept)+1)
	outbound = append(outbound, types.Message{Role: "system", Content: prompt})
	outbound = append(outbound, kept...)

	body, err := r.provider.ChatCompletionStream(ctx, key, model.ID, outbound, temperature)
	if err != nil {
		if status, text, ok := upstream.IsStatus(err); ok {
			if upstream.IsUnauthorized(err) {
				r.log.Warn().Int("status", status).Msg("upstream rejected api key")
			}
			return ErrUpstream("upstream error: " + text)
		}
		return ErrUpstream("upstream unreachable")
	}
	defer body.Close()

	var record *sseAccumulator
	writer := w
	if r.recorder != nil && req.ConversationID != "" {
		record = &sseAccumulator{}
		writer = io.MultiWriter(w, record)
	}

	if err := copyStream(ctx, writer, body, flush); err != nil {
		return err
	}

	if record != nil && len(kept) > 0 {
		last := kept[len(kept)-1]
		if last.Role == "user" {
			assistant := types.Message{Role: "assistant", Content: record.Text()}
			if err := r.recorder.AppendExchange(req.ConversationID, last, assistant); err != nil {
				r.log.Warn().Err(err).Str("conversation", req.ConversationID).Msg("failed to record exchange")
			}
		}
	}
	return nil
}

// Models returns the upstream model list intersected with the catalog. On any
// upstream failure, or when nothing usable comes back, the static catalog is
// returned verbatim.
func (r *Relay) Models(ctx context.Context, key string) []types.Model {
	if key == "" {
		key = r.cfg.ServerKey
	}
	ids, err := r.provider.ListModels(ctx, key)
	if err != nil {
		r.log.Warn().Err(err).Msg("model list failed, serving fallback")
		return registry.All()
	}
	models := registry.Intersect(ids)
	if len(models) == 0 {
		return registry.All()
	}
	return models
}

// copyStream pumps body to w chunk by chunk, flushing after each write so the
// client sees tokens as they arrive.
func copyStream(ctx context.Context, w io.Writer, body io.Reader, flush func()) error {
	buf := make([]byte, 4096)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return werr
			}
			if flush != nil {
				flush()
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return ErrUpstream("upstream stream interrupted")
		}
	}
}

// sseAccumulator reassembles assistant text from an OpenAI-style SSE stream
// so completed exchanges can be recorded. Unparseable events are skipped; the
// bytes forwarded to the client are never altered.
type sseAccumulator struct {
	buf  []byte
	text strings.Builder
}

func (a *sseAccumulator) Write(p []byte) (int, error) {
	a.buf = append(a.buf, p...)
	for {
		idx := indexByte(a.buf, '\n')
		if idx < 0 {
			break
		}
		a.consumeLine(strings.TrimRight(string(a.buf[:idx]), "\r"))
		a.buf = a.buf[idx+1:]
	}
	return len(p), nil
}

func (a *sseAccumulator) consumeLine(line string) {
	data, ok := strings.CutPrefix(line, "data:")
	if !ok {
		return
	}
	data = strings.TrimSpace(data)
	if data == "" || data == "[DONE]" {
		return
	}
	var chunk struct {
		Choices []struct {
			Delta struct {
				Content string `json:"content"`
			} `json:"delta"`
		} `json:"choices"`
	}
	if err := json.Unmarshal([]byte(data), &chunk); err != nil {
		return
	}
	for _, c := range chunk.Choices {
		a.text.WriteString(c.Delta.Content)
	}
}

// Text returns the accumulated assistant message.
func (a *sseAccumulator) Text() string { return a.text.String() }

func indexByte(b []byte, c byte) int {
	for i := range b {
		if b[i] == c {
			return i
		}
	}
	return -1
}
