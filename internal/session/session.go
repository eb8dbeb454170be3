// Package session holds ordered dialogue state for one logical conversation
// with a generation backend. Turns are append-only: they are never edited,
// removed, or truncated, so history growth is unbounded by design.
package session

import (
	"sync"

	"github.com/google/uuid"

	"dreamdelve/internal/llm"
)

// Session is a provider-bound, ordered dialogue context. All methods are
// safe for concurrent use, though the pipeline serializes sends per session.
type Session struct {
	mu sync.Mutex

	id          string
	purpose     string
	provider    llm.Provider
	model       string
	temperature float32
	system      string
	turns       []llm.Message
}

// New creates a session for one logical dialogue (setting, level, room, or
// interactive play).
func New(purpose string, provider llm.Provider, temperature float32) *Session {
	return &Session{
		id:          uuid.NewString(),
		purpose:     purpose,
		provider:    provider,
		temperature: temperature,
	}
}

func (s *Session) ID() string      { return s.id }
func (s *Session) Purpose() string { return s.purpose }

// SetSystem replaces the system instruction. Unlike turns, the system
// instruction is mutable.
func (s *Session) SetSystem(instruction string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.system = instruction
}

// SetModel pins a specific model identifier. When empty, the backend's
// configured default is used.
func (s *Session) SetModel(model string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = model
}

// AddTurn appends one turn. Turn order is append-only and reflects real
// request/response pairing.
func (s *Session) AddTurn(role llm.Role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, llm.Message{Role: role, Content: content})
}

// Len reports the number of turns recorded so far.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}

// Provider reports the backend this session is currently bound to.
func (s *Session) Provider() llm.Provider {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.provider
}

// SwitchProvider rebinds the session to another backend without losing
// history. Turns are stored provider-neutral, so no conversion is needed;
// role remapping happens at render time inside each backend. Switching to
// the current provider is a no-op.
func (s *Session) SwitchProvider(p llm.Provider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.provider = p
}

// Render produces the provider-neutral payload for the next request. The
// returned message slice is a copy; mutating it does not affect the session.
func (s *Session) Render() llm.Payload {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := make([]llm.Message, len(s.turns))
	copy(msgs, s.turns)
	return llm.Payload{
		Model:       s.model,
		System:      s.system,
		Messages:    msgs,
		Temperature: s.temperature,
	}
}
