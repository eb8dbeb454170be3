package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// RemoteConfig configures the remote OpenAI-compatible backend. BaseURL may
// point at any chat-completions-shaped endpoint (OpenAI, OpenRouter, etc.).
type RemoteConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// RemoteBackend speaks the OpenAI chat completions protocol over HTTPS.
type RemoteBackend struct {
	client *openai.Client
	model  string
	log    *zap.Logger
}

func NewRemoteBackend(cfg RemoteConfig, log *zap.Logger) (*RemoteBackend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("remote backend requires an API key")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &RemoteBackend{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		log:    log,
	}, nil
}

func (b *RemoteBackend) Provider() Provider { return ProviderRemote }

func (b *RemoteBackend) Send(ctx context.Context, p Payload) (Reply, error) {
	model := p.Model
	if model == "" {
		model = b.model
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(p.Messages)+1)
	if p.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: p.System,
		})
	}
	for _, m := range p.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    remoteRole(m.Role),
			Content: m.Content,
		})
	}

	start := time.Now()
	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: p.Temperature,
		MaxTokens:   p.MaxTokens,
	})
	if err != nil {
		return Reply{}, fmt.Errorf("remote chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return Reply{}, fmt.Errorf("remote backend returned an empty choice list")
	}

	b.log.Debug("remote completion",
		zap.String("model", model),
		zap.Duration("duration", time.Since(start)),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)

	return Reply{
		Text: resp.Choices[0].Message.Content,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
		Estimated: resp.Usage.TotalTokens == 0,
	}, nil
}

// remoteRole maps the neutral role vocabulary onto the OpenAI constants.
func remoteRole(r Role) string {
	switch r {
	case RoleSystem:
		return openai.ChatMessageRoleSystem
	case RoleAssistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}
