package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dreamdelve/internal/llm"
)

func TestNewSessionHasIdentity(t *testing.T) {
	a := New("setting", llm.ProviderRemote, 0.8)
	b := New("setting", llm.ProviderRemote, 0.8)

	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, "setting", a.Purpose())
	assert.Equal(t, llm.ProviderRemote, a.Provider())
}

func TestTurnsAreAppendOnly(t *testing.T) {
	s := New("play", llm.ProviderRemote, 0.8)

	s.AddTurn(llm.RoleUser, "look around")
	s.AddTurn(llm.RoleAssistant, "You see a door.")
	s.AddTurn(llm.RoleUser, "open it")

	require.Equal(t, 3, s.Len())

	payload := s.Render()
	require.Len(t, payload.Messages, 3)
	assert.Equal(t, llm.RoleUser, payload.Messages[0].Role)
	assert.Equal(t, "look around", payload.Messages[0].Content)
	assert.Equal(t, llm.RoleAssistant, payload.Messages[1].Role)
	assert.Equal(t, llm.RoleUser, payload.Messages[2].Role)
}

func TestRenderReturnsCopy(t *testing.T) {
	s := New("play", llm.ProviderRemote, 0.8)
	s.AddTurn(llm.RoleUser, "original")

	payload := s.Render()
	payload.Messages[0].Content = "mutated"

	again := s.Render()
	assert.Equal(t, "original", again.Messages[0].Content)
}

func TestRenderCarriesSystemModelAndTemperature(t *testing.T) {
	s := New("play", llm.ProviderLocal, 0.3)
	s.SetSystem("You are the narrator.")
	s.SetModel("llama3.1")

	payload := s.Render()
	assert.Equal(t, "You are the narrator.", payload.System)
	assert.Equal(t, "llama3.1", payload.Model)
	assert.Equal(t, float32(0.3), payload.Temperature)
}

func TestSwitchProviderPreservesHistory(t *testing.T) {
	s := New("play", llm.ProviderRemote, 0.8)
	s.AddTurn(llm.RoleUser, "hello")
	s.AddTurn(llm.RoleAssistant, "greetings")

	s.SwitchProvider(llm.ProviderLocal)

	assert.Equal(t, llm.ProviderLocal, s.Provider())
	assert.Equal(t, 2, s.Len())

	payload := s.Render()
	assert.Equal(t, "hello", payload.Messages[0].Content)
	assert.Equal(t, "greetings", payload.Messages[1].Content)
}

func TestSwitchProviderToSameIsNoOp(t *testing.T) {
	s := New("play", llm.ProviderRemote, 0.8)
	s.SwitchProvider(llm.ProviderRemote)
	assert.Equal(t, llm.ProviderRemote, s.Provider())
}
