package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"dreamdelve/internal/game/flow"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m.handleEvent(msg)
	case inputSentMsg:
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case animationTickMsg:
		return m.handleAnimation()
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}
	return m, nil
}

func (m Model) handleEvent(msg eventMsg) (tea.Model, tea.Cmd) {
	if !msg.ok {
		m.done = true
		m.loading = false
		return m, tea.Quit
	}

	e := msg.event
	m.state = e.State
	if e.LevelIndex > 0 {
		m.levelIndex = e.LevelIndex
		m.roomLabel = e.Room.String()
	}

	m.stopLoading()

	if m.debug {
		m.messages = append(m.messages, fmt.Sprintf("[DEBUG] state=%s prompting=%v", e.State, e.Prompting))
	}

	if e.Err != nil {
		m.messages = append(m.messages, "[DEBUG] "+e.Err.Error())
	}

	if e.Text != "" {
		m.messages = append(m.messages, e.Text, "")
	}
	if e.ImageRef != "" {
		m.messages = append(m.messages, "(an image forms: "+e.ImageRef+")", "")
	}
	if len(e.Choices) > 0 {
		m.messages = append(m.messages, renderChoices(e.Choices))
	}

	m.prompting = e.Prompting

	if e.Done {
		m.done = true
		m.prompting = false
		return m, waitForEvent(m.events)
	}

	if !e.Prompting {
		m.startLoading()
		return m, tea.Batch(waitForEvent(m.events), animationTimer())
	}
	return m, waitForEvent(m.events)
}

func (m Model) handleAnimation() (tea.Model, tea.Cmd) {
	if !m.loading {
		return m, nil
	}
	m.animationFrame++
	return m, animationTimer()
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "q":
		if m.done || !m.prompting {
			return m, tea.Quit
		}
		m.input += "q"
		return m, nil

	case "enter":
		text := strings.TrimSpace(m.input)
		if text == "" || !m.prompting || m.loading {
			return m, nil
		}
		m.messages = append(m.messages, "> "+text)
		m.input = ""
		m.prompting = false
		m.startLoading()
		return m, tea.Batch(submitInput(m.orch, text), animationTimer())

	case "backspace":
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
		return m, nil

	default:
		if len(msg.String()) == 1 {
			m.input += msg.String()
		}
		return m, nil
	}
}

func (m *Model) startLoading() {
	if m.loading {
		return
	}
	m.loading = true
	m.animationFrame = 0
	m.messages = append(m.messages, "LOADING_ANIMATION")
}

func (m *Model) stopLoading() {
	if !m.loading {
		return
	}
	m.loading = false
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i] == "LOADING_ANIMATION" {
			m.messages = append(m.messages[:i], m.messages[i+1:]...)
			break
		}
	}
}

func renderChoices(choices []flow.Choice) string {
	var b strings.Builder
	b.WriteString("Passages lead ")
	for i, c := range choices {
		if i > 0 {
			if i == len(choices)-1 {
				b.WriteString(" and ")
			} else {
				b.WriteString(", ")
			}
		}
		b.WriteString(c.Direction.String())
		if c.Visited {
			b.WriteString(" (explored)")
		}
	}
	b.WriteString(". Which way?")
	return b.String()
}
