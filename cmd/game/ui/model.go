package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"dreamdelve/internal/game/flow"
)

// Model is the Bubble Tea model wrapping one orchestrator run. It renders
// the event stream and forwards player input.
type Model struct {
	orch   *flow.Orchestrator
	events <-chan flow.Event

	messages       []string
	input          string
	width          int
	height         int
	loading        bool
	animationFrame int
	prompting      bool
	done           bool
	debug          bool

	state      flow.State
	levelIndex int
	roomLabel  string
}

func NewModel(orch *flow.Orchestrator, debug bool) Model {
	messages := []string{}
	if debug {
		messages = append(messages,
			"[DEBUG] event stream attached, waiting for setting generation",
			"")
	}

	return Model{
		orch:     orch,
		events:   orch.Events(),
		messages: messages,
		loading:  true,
		debug:    debug,
		state:    flow.StateIdle,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.events), animationTimer())
}

type animationTickMsg struct{}

type inputSentMsg struct{}

type eventMsg struct {
	event flow.Event
	ok    bool
}

func (m *Model) statusLine() string {
	if m.done {
		return "the run has ended (press q to quit)"
	}
	label := m.state.String()
	if m.levelIndex > 0 {
		label = fmt.Sprintf("%s · level %d · room %s", label, m.levelIndex, m.roomLabel)
	}
	return label
}
