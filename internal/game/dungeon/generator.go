package dungeon

import (
	"errors"
	"fmt"
	"math/rand"

	"go.uber.org/zap"
)

// maxGenerateAttempts bounds whole-level regeneration when a generated graph
// fails reachability validation.
const maxGenerateAttempts = 10

// maxConnectionsPerRoom bounds the extra-edge pass that introduces cycles.
const maxConnectionsPerRoom = 4

// extraEdgeChance is the probability that an eligible adjacent pair gains a
// cycle-forming connection.
const extraEdgeChance = 0.25

// specialEncounterChance is the probability that an interior room is marked
// as a special encounter.
const specialEncounterChance = 0.15

// ErrUnreachable is returned when no valid level could be produced within
// the regeneration cap.
var ErrUnreachable = errors.New("generated level failed reachability validation")

// Generator builds connected room graphs. It is deterministic for a given
// *rand.Rand seed.
type Generator struct {
	rng *rand.Rand
	log *zap.Logger
}

func NewGenerator(rng *rand.Rand, log *zap.Logger) *Generator {
	return &Generator{rng: rng, log: log}
}

// Generate builds a validated level: targetRoomCount rooms grown by
// randomized depth-first placement inside width×height bounds, an exit at
// maximum BFS distance from the entrance, and a few cycle-forming extra
// edges. An unreachable graph is regenerated up to maxGenerateAttempts times
// before failing.
func (g *Generator) Generate(levelIndex, targetRoomCount, width, height int) (*Level, error) {
	if targetRoomCount < 1 {
		return nil, fmt.Errorf("target room count must be at least 1, got %d", targetRoomCount)
	}
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("level bounds must be positive, got %dx%d", width, height)
	}
	if targetRoomCount > width*height {
		return nil, fmt.Errorf("cannot place %d rooms in %dx%d bounds", targetRoomCount, width, height)
	}

	for attempt := 1; attempt <= maxGenerateAttempts; attempt++ {
		level := g.build(levelIndex, targetRoomCount, width, height)
		if level.fullyReachable() {
			if attempt > 1 {
				g.log.Info("level regenerated successfully",
					zap.Int("level", levelIndex),
					zap.Int("attempt", attempt),
				)
			}
			return level, nil
		}
		g.log.Warn("generated level not fully reachable, regenerating",
			zap.Int("level", levelIndex),
			zap.Int("attempt", attempt),
		)
	}
	return nil, fmt.Errorf("level %d after %d attempts: %w", levelIndex, maxGenerateAttempts, ErrUnreachable)
}

func (g *Generator) build(levelIndex, targetRoomCount, width, height int) *Level {
	level := &Level{
		Index:  levelIndex,
		Width:  width,
		Height: height,
		rooms:  make(map[Position]*Room, targetRoomCount),
	}

	entrance := Position{g.rng.Intn(width), g.rng.Intn(height)}
	level.rooms[entrance] = newRoom(entrance)
	level.rooms[entrance].Kind = KindEntrance
	level.Entrance = entrance

	g.grow(level, entrance, targetRoomCount)
	g.placeExit(level)
	g.addCycleEdges(level)
	g.markSpecialEncounters(level)

	return level
}

// grow performs randomized depth-first placement: push the current room,
// carve toward a random unoccupied neighbor, backtrack when boxed in.
func (g *Generator) grow(level *Level, entrance Position, target int) {
	stack := []Position{entrance}

	for len(level.rooms) < target && len(stack) > 0 {
		cur := stack[len(stack)-1]

		dir, ok := g.randomFreeNeighbor(level, cur)
		if !ok {
			stack = stack[:len(stack)-1]
			continue
		}

		next := cur.Step(dir)
		level.rooms[next] = newRoom(next)
		level.connect(cur, dir)
		stack = append(stack, next)
	}
}

// randomFreeNeighbor picks a random direction from pos leading to an
// in-bounds, unoccupied cell.
func (g *Generator) randomFreeNeighbor(level *Level, pos Position) (Direction, bool) {
	dirs := make([]Direction, len(Directions))
	copy(dirs, Directions)
	g.rng.Shuffle(len(dirs), func(i, j int) { dirs[i], dirs[j] = dirs[j], dirs[i] })

	for _, d := range dirs {
		next := pos.Step(d)
		if !level.inBounds(next) {
			continue
		}
		if _, occupied := level.rooms[next]; occupied {
			continue
		}
		return d, true
	}
	return North, false
}

// placeExit marks the room at maximum graph-distance from the entrance as
// the exit. A shallow exit is accepted with a quality warning; the distance
// heuristic is advisory, not a validation failure.
func (g *Generator) placeExit(level *Level) {
	dist := level.Distances()

	exit := level.Entrance
	best := -1
	for pos, d := range dist {
		if d > best || (d == best && (pos.Y < exit.Y || (pos.Y == exit.Y && pos.X < exit.X))) {
			best = d
			exit = pos
		}
	}

	if best < level.RoomCount()/2 {
		g.log.Warn("exit is closer to entrance than desired",
			zap.Int("level", level.Index),
			zap.Int("distance", best),
			zap.Int("room_count", level.RoomCount()),
		)
	}

	level.Exit = exit
	if exit != level.Entrance {
		level.rooms[exit].Kind = KindExit
	}
}

// addCycleEdges connects a few already-placed adjacent room pairs that the
// depth-first growth left unlinked, bounded per room, so levels are not pure
// trees.
func (g *Generator) addCycleEdges(level *Level) {
	for _, pos := range level.sortedPositions() {
		room := level.rooms[pos]
		for _, d := range Directions {
			if level.connected(pos, d) {
				continue
			}
			next := pos.Step(d)
			neighbor := level.rooms[next]
			if neighbor == nil {
				continue
			}
			if room.ConnectionCount() >= maxConnectionsPerRoom || neighbor.ConnectionCount() >= maxConnectionsPerRoom {
				continue
			}
			if g.rng.Float64() < extraEdgeChance {
				level.connect(pos, d)
			}
		}
	}
}

// markSpecialEncounters flags a small random subset of interior rooms.
func (g *Generator) markSpecialEncounters(level *Level) {
	for _, pos := range level.sortedPositions() {
		room := level.rooms[pos]
		if room.Kind != KindStandard {
			continue
		}
		if g.rng.Float64() < specialEncounterChance {
			room.Kind = KindSpecialEncounter
		}
	}
}
