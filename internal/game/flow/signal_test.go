package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseReplyEnvelope(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		narration string
		signal    Signal
	}{
		{
			name:      "plain continuation",
			raw:       `{"narration": "The door creaks open.", "signal": ""}`,
			narration: "The door creaks open.",
			signal:    SignalNone,
		},
		{
			name:      "objective complete",
			raw:       `{"narration": "The sigil dims; the way is clear.", "signal": "objective_complete"}`,
			narration: "The sigil dims; the way is clear.",
			signal:    SignalObjectiveComplete,
		},
		{
			name:      "player defeated",
			raw:       `{"narration": "Darkness takes you.", "signal": "player_defeated"}`,
			narration: "Darkness takes you.",
			signal:    SignalPlayerDefeated,
		},
		{
			name:      "code fences tolerated",
			raw:       "```json\n{\"narration\": \"You press on.\", \"signal\": \"\"}\n```",
			narration: "You press on.",
			signal:    SignalNone,
		},
		{
			name:      "surrounding chatter tolerated",
			raw:       `Here is my response: {"narration": "A draft stirs.", "signal": ""} Hope that helps!`,
			narration: "A draft stirs.",
			signal:    SignalNone,
		},
		{
			name:      "unknown signal degrades to none",
			raw:       `{"narration": "Something shifts.", "signal": "room_exploded"}`,
			narration: "Something shifts.",
			signal:    SignalNone,
		},
		{
			name:      "non-json degrades to raw narration",
			raw:       "The corridor stretches on.",
			narration: "The corridor stretches on.",
			signal:    SignalNone,
		},
		{
			name:      "malformed json degrades to raw narration",
			raw:       `{"narration": "broken`,
			narration: `{"narration": "broken`,
			signal:    SignalNone,
		},
		{
			name:      "empty narration field falls back to raw",
			raw:       `{"narration": "", "signal": "objective_complete"}`,
			narration: `{"narration": "", "signal": "objective_complete"}`,
			signal:    SignalNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			narration, signal := ParseReply(tt.raw)
			assert.Equal(t, tt.narration, narration)
			assert.Equal(t, tt.signal, signal)
		})
	}
}

func TestParseReplyProseMentioningDeathDoesNotSignal(t *testing.T) {
	// Narration that talks about defeat must not trip a transition; only
	// the structured signal field does.
	narration, signal := ParseReply(`{"narration": "You recall how the last dreamer died here, defeated.", "signal": ""}`)
	assert.Equal(t, "You recall how the last dreamer died here, defeated.", narration)
	assert.Equal(t, SignalNone, signal)
}
