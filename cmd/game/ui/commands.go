package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"dreamdelve/internal/game/flow"
)

func animationTimer() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return animationTickMsg{}
	})
}

// waitForEvent blocks on the orchestrator's event stream. Re-armed after
// every received event; a closed channel ends the program.
func waitForEvent(events <-chan flow.Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-events
		return eventMsg{event: e, ok: ok}
	}
}

// submitInput hands one line of player input to the orchestrator. Submit can
// block briefly while the orchestrator finishes emitting, so it runs as a
// command rather than inside Update.
func submitInput(orch *flow.Orchestrator, text string) tea.Cmd {
	return func() tea.Msg {
		orch.Submit(text)
		return inputSentMsg{}
	}
}

func getLoadingAnimation(frame int) string {
	arc := []string{"◜", "◠", "◝", "◞", "◡", "◟"}
	return arc[frame%len(arc)]
}
