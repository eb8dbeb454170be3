// Package dungeon generates and validates the room graph for one level of
// the descent. Generation is randomized but fully deterministic under an
// injected seed.
package dungeon

import "fmt"

// Direction is a cardinal connection between adjacent rooms.
type Direction int

const (
	North Direction = iota
	South
	East
	West
)

// Directions lists all four in a stable order.
var Directions = []Direction{North, South, East, West}

func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case South:
		return "south"
	case East:
		return "east"
	case West:
		return "west"
	default:
		return "unknown"
	}
}

// Opposite returns the reverse direction, used to keep connections symmetric.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	default:
		return East
	}
}

// Position is a grid coordinate, unique within a level.
type Position struct {
	X, Y int
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Step returns the adjacent position in the given direction. North decreases
// Y so that levels render naturally top-down.
func (p Position) Step(d Direction) Position {
	switch d {
	case North:
		return Position{p.X, p.Y - 1}
	case South:
		return Position{p.X, p.Y + 1}
	case East:
		return Position{p.X + 1, p.Y}
	default:
		return Position{p.X - 1, p.Y}
	}
}

// Kind classifies a room within its level.
type Kind int

const (
	KindEntrance Kind = iota
	KindStandard
	KindExit
	KindSpecialEncounter
)

func (k Kind) String() string {
	switch k {
	case KindEntrance:
		return "entrance"
	case KindExit:
		return "exit"
	case KindSpecialEncounter:
		return "special-encounter"
	default:
		return "standard"
	}
}

// Room is one node in a level's navigable graph. Connections are immutable
// after generation; only Visited is mutated afterwards, by the orchestrator.
type Room struct {
	Pos     Position
	Kind    Kind
	Visited bool

	links map[Direction]Position
}

func newRoom(pos Position) *Room {
	return &Room{
		Pos:   pos,
		Kind:  KindStandard,
		links: make(map[Direction]Position, 4),
	}
}

// Connected returns the neighboring position in the given direction, if a
// connection exists.
func (r *Room) Connected(d Direction) (Position, bool) {
	p, ok := r.links[d]
	return p, ok
}

// ConnectionCount reports how many of the four directions are linked.
func (r *Room) ConnectionCount() int {
	return len(r.links)
}

// Neighbors returns the connected positions in stable direction order.
func (r *Room) Neighbors() []Position {
	out := make([]Position, 0, len(r.links))
	for _, d := range Directions {
		if p, ok := r.links[d]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Exits returns connected directions in stable order.
func (r *Room) Exits() []Direction {
	out := make([]Direction, 0, len(r.links))
	for _, d := range Directions {
		if _, ok := r.links[d]; ok {
			out = append(out, d)
		}
	}
	return out
}
