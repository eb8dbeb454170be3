package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

// LocalConfig configures the local Ollama backend.
type LocalConfig struct {
	Host    string
	Model   string
	Timeout time.Duration
}

// LocalBackend speaks the Ollama chat API against a locally running server.
type LocalBackend struct {
	client  *api.Client
	model   string
	timeout time.Duration
	log     *zap.Logger
}

func NewLocalBackend(cfg LocalConfig, log *zap.Logger) (*LocalBackend, error) {
	// api.NewClient wants the bare host URL, without the /v1 suffix some
	// OpenAI-compat configs carry.
	host := strings.TrimSuffix(cfg.Host, "/v1")
	host = strings.TrimSuffix(host, "/")
	parsed, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid local backend host %q: %w", cfg.Host, err)
	}

	httpClient := &http.Client{}
	if cfg.Timeout > 0 {
		httpClient.Timeout = cfg.Timeout
	}

	return &LocalBackend{
		client:  api.NewClient(parsed, httpClient),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		log:     log,
	}, nil
}

func (b *LocalBackend) Provider() Provider { return ProviderLocal }

func (b *LocalBackend) Send(ctx context.Context, p Payload) (Reply, error) {
	model := p.Model
	if model == "" {
		model = b.model
	}

	messages := make([]api.Message, 0, len(p.Messages)+1)
	if p.System != "" {
		messages = append(messages, api.Message{Role: "system", Content: p.System})
	}
	for _, m := range p.Messages {
		messages = append(messages, api.Message{Role: localRole(m.Role), Content: m.Content})
	}

	stream := false
	req := &api.ChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   &stream,
		Options: map[string]any{
			"temperature": float64(p.Temperature),
		},
	}
	if p.MaxTokens > 0 {
		req.Options["num_predict"] = p.MaxTokens
	}

	start := time.Now()
	var last api.ChatResponse
	err := b.client.Chat(ctx, req, func(r api.ChatResponse) error {
		last = r
		return nil
	})
	if err != nil {
		return Reply{}, fmt.Errorf("local chat failed: %w", err)
	}
	if last.Message.Content == "" {
		return Reply{}, fmt.Errorf("local backend returned an empty message")
	}

	b.log.Debug("local completion",
		zap.String("model", model),
		zap.Duration("duration", time.Since(start)),
		zap.Int("prompt_eval_count", last.Metrics.PromptEvalCount),
		zap.Int("eval_count", last.Metrics.EvalCount),
	)

	usage := Usage{
		PromptTokens:     last.Metrics.PromptEvalCount,
		CompletionTokens: last.Metrics.EvalCount,
		TotalTokens:      last.Metrics.PromptEvalCount + last.Metrics.EvalCount,
	}
	return Reply{
		Text:      last.Message.Content,
		Usage:     usage,
		Estimated: usage.TotalTokens == 0,
	}, nil
}

// localRole maps the neutral role vocabulary onto Ollama's role strings.
func localRole(r Role) string {
	switch r {
	case RoleSystem:
		return "system"
	case RoleAssistant:
		return "assistant"
	default:
		return "user"
	}
}
