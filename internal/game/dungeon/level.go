package dungeon

import "sort"

// Level is one generation of the room graph. It is immutable once validated;
// the orchestrator discards and replaces it on advance.
type Level struct {
	Index    int
	Width    int
	Height   int
	Entrance Position
	Exit     Position

	rooms map[Position]*Room
}

// Room returns the room at pos, or nil if none exists.
func (l *Level) Room(pos Position) *Room {
	return l.rooms[pos]
}

// RoomCount reports the number of rooms in the level.
func (l *Level) RoomCount() int {
	return len(l.rooms)
}

// Rooms returns every room. The slice order is unspecified.
func (l *Level) Rooms() []*Room {
	out := make([]*Room, 0, len(l.rooms))
	for _, r := range l.rooms {
		out = append(out, r)
	}
	return out
}

// IsReachable reports whether pos can be reached from the entrance by
// following connections.
func (l *Level) IsReachable(pos Position) bool {
	_, ok := l.Distances()[pos]
	return ok
}

// Distances returns the BFS graph-distance from the entrance to every
// reachable room.
func (l *Level) Distances() map[Position]int {
	dist := map[Position]int{l.Entrance: 0}
	queue := []Position{l.Entrance}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		room := l.rooms[cur]
		if room == nil {
			continue
		}
		for _, next := range room.Neighbors() {
			if _, seen := dist[next]; seen {
				continue
			}
			dist[next] = dist[cur] + 1
			queue = append(queue, next)
		}
	}
	return dist
}

// fullyReachable reports whether every room is reachable from the entrance.
func (l *Level) fullyReachable() bool {
	return len(l.Distances()) == len(l.rooms)
}

// connect links two adjacent rooms symmetrically. Only used during
// generation.
func (l *Level) connect(from Position, d Direction) {
	to := from.Step(d)
	a, b := l.rooms[from], l.rooms[to]
	if a == nil || b == nil {
		return
	}
	a.links[d] = to
	b.links[d.Opposite()] = from
}

// connected reports whether from already links toward d.
func (l *Level) connected(from Position, d Direction) bool {
	r := l.rooms[from]
	if r == nil {
		return false
	}
	_, ok := r.links[d]
	return ok
}

func (l *Level) inBounds(p Position) bool {
	return p.X >= 0 && p.X < l.Width && p.Y >= 0 && p.Y < l.Height
}

// sortedPositions returns room positions in row-major order so that
// generation passes consume randomness deterministically.
func (l *Level) sortedPositions() []Position {
	out := make([]Position, 0, len(l.rooms))
	for p := range l.rooms {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})
	return out
}
