package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/saxil/mareen/internal/core"
	"github.com/saxil/mareen/pkg/log"
	"github.com/saxil/mareen/pkg/retry"
)

// OpenAICompatible talks to any server implementing /v1/chat/completions.
type OpenAICompatible struct {
	baseProvider
	authHeader   string
	authPrefix   string
	extraHeaders map[string]string
	retrier      *retry.Retrier
}

type OpenAICompatibleConfig struct {
	BaseURL      string
	APIKey       string
	Model        string
	Timeout      time.Duration
	AuthHeader   string // e.g., "Authorization"
	AuthPrefix   string // e.g., "Bearer "
	ExtraHeaders map[string]string
	Retry        *retry.Config
}

func NewOpenAICompatible(cfg OpenAICompatibleConfig) *OpenAICompatible {
	rc := retry.NewDefaultConfig()
	if cfg.Retry != nil {
		copied := *cfg.Retry
		rc = &copied
	}
	if rc.OnRetry == nil {
		rc.OnRetry = logRetry
	}
	return &OpenAICompatible{
		baseProvider: newBaseProvider(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Timeout),
		authHeader:   cfg.AuthHeader,
		authPrefix:   cfg.AuthPrefix,
		extraHeaders: cfg.ExtraHeaders,
		retrier:      retry.NewRetrier(rc),
	}
}

func (o *OpenAICompatible) Model() string {
	return o.model
}

func (o *OpenAICompatible) Chat(ctx context.Context, history []core.ChatMessage) (core.ChatMessage, error) {
	payload := map[string]any{
		"model":    o.model,
		"messages": history,
		"stream":   false,
	}

	var reply core.ChatMessage
	err := o.retrier.Do(ctx, func() error {
		resp, err := o.doRequest(ctx, http.MethodPost, "/v1/chat/completions", payload, o.headers())
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		reply, err = parseChatResponse(resp)
		return err
	})
	if err != nil {
		return core.ChatMessage{}, core.ProviderError("Chat", err)
	}
	return reply, nil
}

// Models lists the models the endpoint advertises.
func (o *OpenAICompatible) Models(ctx context.Context) ([]core.Model, error) {
	var listing struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := o.getJSON(ctx, "/v1/models", o.headers(), &listing); err != nil {
		return nil, core.ProviderError("Models", err)
	}

	models := make([]core.Model, 0, len(listing.Data))
	for _, m := range listing.Data {
		models = append(models, core.Model{ID: m.ID, Name: m.ID})
	}
	return models, nil
}

func (o *OpenAICompatible) headers() map[string]string {
	headers := make(map[string]string)
	if o.authHeader != "" && o.apiKey != "" {
		headers[o.authHeader] = o.authPrefix + o.apiKey
	}
	for k, v := range o.extraHeaders {
		headers[k] = v
	}
	return headers
}

func logRetry(ctx context.Context, attempt int, err error, wait time.Duration) {
	log.FromCtx(ctx).Warn().Err(err).Int("attempt", attempt).Dur("wait", wait).Msg("chat request failed, retrying")
}

func parseChatResponse(resp *http.Response) (core.ChatMessage, error) {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return core.ChatMessage{}, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("http %d: %s", resp.StatusCode, string(data))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return core.ChatMessage{}, err
		}
		return core.ChatMessage{}, retry.Permanent(err)
	}

	var result struct {
		Choices []struct {
			Message core.ChatMessage `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return core.ChatMessage{}, retry.Permanent(fmt.Errorf("decode: %w", err))
	}
	if len(result.Choices) == 0 {
		return core.ChatMessage{}, retry.Permanent(fmt.Errorf("empty choices: %s", string(data)))
	}
	return result.Choices[0].Message, nil
}
