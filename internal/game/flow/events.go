package flow

import "dreamdelve/internal/game/dungeon"

// Choice is one candidate move presented during room selection.
type Choice struct {
	Direction dungeon.Direction
	Pos       dungeon.Position
	Visited   bool
}

// Event is what the orchestrator emits to the presentation layer. Text and
// ImageRef carry generated content; Choices is non-empty only during room
// selection; Prompting reports that the orchestrator is now waiting for
// player input; Done marks the terminal event of a run.
type Event struct {
	State     State
	Text      string
	ImageRef  string
	Choices   []Choice
	Prompting bool
	Done      bool
	Err       error

	LevelIndex int
	Room       dungeon.Position
}
