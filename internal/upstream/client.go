// Package upstream is the HTTP client for the OpenAI-compatible provider
// that performs all inference.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"chatrelay/pkg/types"
)

// Client talks to a single provider host (e.g. https://api.groq.com/openai).
// Two underlying clients: streams must not be cut off by the list timeout.
type Client struct {
	stream *resty.Client
	list   *resty.Client
}

// New builds a client for host. timeout bounds the model-list call only;
// chat streams run until the upstream closes them or the context is canceled.
func New(host string, timeout time.Duration) *Client {
	base := strings.TrimRight(host, "/")
	list := resty.New().SetBaseURL(base)
	if timeout > 0 {
		list.SetTimeout(timeout)
	}
	return &Client{
		stream: resty.New().SetBaseURL(base),
		list:   list,
	}
}

// chatCompletionRequest mirrors the provider's chat completion payload.
type chatCompletionRequest struct {
	Model       string          `json:"model"`
	Messages    []types.Message `json:"messages"`
	Temperature float64         `json:"temperature"`
	Stream      bool            `json:"stream"`
}

// ChatCompletionStream issues a streaming chat completion and hands back the
// raw response body for pass-through. The caller owns closing the reader.
func (c *Client) ChatCompletionStream(ctx context.Context, key, model string, messages []types.Message, temperature float64) (io.ReadCloser, error) {
	resp, err := c.stream.R().
		SetContext(ctx).
		SetAuthToken(key).
		SetHeader("Content-Type", "application/json").
		SetBody(chatCompletionRequest{
			Model:       model,
			Messages:    messages,
			Temperature: temperature,
			Stream:      true,
		}).
		SetDoNotParseResponse(true).
		Post("/v1/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		body := resp.RawBody()
		text := http.StatusText(resp.StatusCode())
		if body != nil {
			if b, rerr := io.ReadAll(io.LimitReader(body, 4096)); rerr == nil {
				if msg := errorMessage(b); msg != "" {
					text = msg
				}
			}
			_ = body.Close()
		}
		return nil, ErrStatus(resp.StatusCode(), text)
	}
	return resp.RawBody(), nil
}

// modelListResponse mirrors GET /v1/models.
type modelListResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// ListModels returns the model ids the provider advertises for this key.
func (c *Client) ListModels(ctx context.Context, key string) ([]string, error) {
	var out modelListResponse
	resp, err := c.list.R().
		SetContext(ctx).
		SetAuthToken(key).
		SetResult(&out).
		Get("/v1/models")
	if err != nil {
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		text := http.StatusText(resp.StatusCode())
		if msg := errorMessage(resp.Body()); msg != "" {
			text = msg
		}
		return nil, ErrStatus(resp.StatusCode(), text)
	}
	ids := make([]string, 0, len(out.Data))
	for _, m := range out.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// errorMessage pulls the message out of an OpenAI-style error body, e.g.
// {"error":{"message":"Invalid API Key","type":"invalid_request_error"}}.
func errorMessage(body []byte) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.Error.Message)
}
