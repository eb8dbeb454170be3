// Package llm defines the backend contract for text generation providers
// and ships two concrete profiles: a remote OpenAI-compatible HTTPS API and
// a local Ollama HTTP API. Conversation turns are stored provider-neutral;
// each backend maps roles into its own vocabulary at dispatch time.
package llm

import "context"

// Provider identifies a configured generation backend.
type Provider string

const (
	ProviderRemote Provider = "remote"
	ProviderLocal  Provider = "local"
)

// Role is the provider-neutral role vocabulary for conversation turns.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one provider-neutral conversation turn.
type Message struct {
	Role    Role
	Content string
}

// Payload is a rendered request, ready for a backend to translate into its
// wire format. Model may be empty, in which case the backend uses its
// configured default.
type Payload struct {
	Model       string
	System      string
	Messages    []Message
	Temperature float32
	MaxTokens   int
}

// Usage carries token accounting reported by a backend envelope.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Reply is a parsed backend response. Estimated is set when the backend
// envelope carried no usage block and the counts were derived locally.
type Reply struct {
	Text      string
	Usage     Usage
	Estimated bool
}

// Backend executes one request/response cycle against a generation provider.
// Implementations return transport and malformed-envelope failures as plain
// errors; retry and fallback policy lives in the pipeline, not here.
type Backend interface {
	Provider() Provider
	Send(ctx context.Context, p Payload) (Reply, error)
}
