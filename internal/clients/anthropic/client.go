package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/JacksonLee45/stride-sync-sub000/internal/observability"
	"github.com/JacksonLee45/stride-sync-sub000/internal/platform/logger"
	"github.com/JacksonLee45/stride-sync-sub000/internal/types"
)

// Client talks to the conversational model's messages API. StreamMessages
// is a single-pass consumer: once the stream is open it runs until the
// upstream ends, errors, or ctx is cancelled.
type Client interface {
	// StreamMessages opens a streaming completion and forwards each text
	// delta to onDelta in arrival order. It returns the full accumulated
	// assistant text.
	StreamMessages(ctx context.Context, system string, messages []types.Message, onDelta func(delta string)) (string, error)

	// Complete issues a non-streaming completion and returns the assistant
	// text.
	Complete(ctx context.Context, system string, messages []types.Message) (string, error)
}

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	version    string
	model      string
	maxTokens  int
	httpClient *http.Client
}

func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	apiKey := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	if apiKey == "" {
		return nil, fmt.Errorf("missing ANTHROPIC_API_KEY")
	}

	baseURL := strings.TrimSpace(os.Getenv("ANTHROPIC_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	version := strings.TrimSpace(os.Getenv("ANTHROPIC_VERSION"))
	if version == "" {
		version = "2023-06-01"
	}

	model := strings.TrimSpace(os.Getenv("ANTHROPIC_MODEL"))
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}

	maxTokens := 4096
	if v := strings.TrimSpace(os.Getenv("ANTHROPIC_MAX_TOKENS")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			maxTokens = parsed
		}
	}

	timeoutSec := 300
	if v := strings.TrimSpace(os.Getenv("ANTHROPIC_TIMEOUT_SECONDS")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}

	return &client{
		log:        log.With("service", "AnthropicClient"),
		baseURL:    baseURL,
		apiKey:     apiKey,
		version:    version,
		model:      model,
		maxTokens:  maxTokens,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
	}, nil
}

// NewClientWithHTTPClient is used by tests to point the client at a fake
// transport.
func NewClientWithHTTPClient(log *logger.Logger, baseURL, apiKey, model string, maxTokens int, httpClient *http.Client) Client {
	return &client{
		log:        log.With("service", "AnthropicClient"),
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		version:    "2023-06-01",
		model:      model,
		maxTokens:  maxTokens,
		httpClient: httpClient,
	}
}

func (c *client) newRequest(ctx context.Context, body messagesRequest, accept string) (*http.Request, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/messages", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", c.version)
	req.Header.Set("Content-Type", "application/json")
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	return req, nil
}

func (c *client) StreamMessages(ctx context.Context, system string, messages []types.Message, onDelta func(delta string)) (string, error) {
	body := messagesRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    strings.TrimSpace(system),
		Messages:  toWireMessages(messages),
		Stream:    true,
	}

	req, err := c.newRequest(ctx, body, "text/event-stream")
	if err != nil {
		return "", err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		observability.Current().ObserveLLMRequest(c.model, "/v1/messages", "error", time.Since(start))
		return "", err
	}
	defer resp.Body.Close()
	defer func() {
		observability.Current().ObserveLLMRequest(c.model, "/v1/messages", strconv.Itoa(resp.StatusCode), time.Since(start))
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return "", parseHTTPError(resp.StatusCode, raw)
	}
	if resp.Body == nil {
		return "", fmt.Errorf("anthropic stream: empty response body")
	}

	var full strings.Builder
	err = streamSSE(resp.Body, func(event string, data string) error {
		data = strings.TrimSpace(data)
		if data == "" || data == "[DONE]" {
			return nil
		}

		var ev streamEvent
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			c.log.Warn("Skipping malformed stream record", "event", event, "error", err)
			return nil
		}

		switch ev.Type {
		case "content_block_delta":
			if ev.Delta != nil && ev.Delta.Type == "text_delta" && ev.Delta.Text != "" {
				full.WriteString(ev.Delta.Text)
				if onDelta != nil {
					onDelta(ev.Delta.Text)
				}
			}
		case "message_stop":
			return errStopStream
		case "error":
			msg := "stream error"
			if ev.Error != nil && strings.TrimSpace(ev.Error.Message) != "" {
				msg = ev.Error.Message
			}
			return fmt.Errorf("anthropic stream error: %s", msg)
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStopStream) {
		return full.String(), err
	}
	return full.String(), nil
}

func (c *client) Complete(ctx context.Context, system string, messages []types.Message) (string, error) {
	body := messagesRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    strings.TrimSpace(system),
		Messages:  toWireMessages(messages),
	}

	req, err := c.newRequest(ctx, body, "")
	if err != nil {
		return "", err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		observability.Current().ObserveLLMRequest(c.model, "/v1/messages", "error", time.Since(start))
		return "", err
	}
	observability.Current().ObserveLLMRequest(c.model, "/v1/messages", strconv.Itoa(resp.StatusCode), time.Since(start))

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return "", readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", parseHTTPError(resp.StatusCode, raw)
	}

	var out messagesResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("anthropic decode error: %w; raw=%s", err, string(raw))
	}
	for _, block := range out.Content {
		if block.Type == "text" && strings.TrimSpace(block.Text) != "" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("anthropic response contained no text block")
}

func toWireMessages(messages []types.Message) []wireMessage {
	out := make([]wireMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, wireMessage{Role: m.Role, Content: m.Content})
	}
	return out
}
