package flow

import (
	"encoding/json"
	"strings"
)

// Signal is the structured completion/failure marker a backend returns
// alongside free text during interactive play. Signals travel in a JSON
// envelope rather than as sentinel substrings inside the prose, so narration
// that happens to mention death or victory cannot trip a transition.
type Signal string

const (
	SignalNone              Signal = ""
	SignalObjectiveComplete Signal = "objective_complete"
	SignalPlayerDefeated    Signal = "player_defeated"
)

type envelope struct {
	Narration string `json:"narration"`
	Signal    Signal `json:"signal"`
}

// ParseReply extracts narration and signal from a raw interactive-play
// reply. Models are instructed to answer with a bare JSON envelope, but the
// parser tolerates code fences and surrounding chatter. Anything that fails
// to parse degrades to plain narration with no signal; a malformed envelope
// must never stall the game.
func ParseReply(raw string) (string, Signal) {
	text := strings.TrimSpace(raw)

	candidate := text
	if start := strings.Index(candidate, "{"); start >= 0 {
		if end := strings.LastIndex(candidate, "}"); end > start {
			candidate = candidate[start : end+1]
		}
	}

	var env envelope
	if err := json.Unmarshal([]byte(candidate), &env); err != nil || env.Narration == "" {
		return text, SignalNone
	}

	switch env.Signal {
	case SignalObjectiveComplete, SignalPlayerDefeated:
		return env.Narration, env.Signal
	default:
		return env.Narration, SignalNone
	}
}
