package dungeon

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestGenerator(seed int64) *Generator {
	return NewGenerator(rand.New(rand.NewSource(seed)), zap.NewNop())
}

func TestGenerateProducesRequestedRoomCount(t *testing.T) {
	gen := newTestGenerator(42)

	level, err := gen.Generate(1, 10, 6, 6)
	require.NoError(t, err)

	assert.Equal(t, 10, level.RoomCount())
	assert.Equal(t, 1, level.Index)
}

func TestGenerateAllRoomsReachable(t *testing.T) {
	gen := newTestGenerator(7)

	level, err := gen.Generate(1, 12, 6, 6)
	require.NoError(t, err)

	dist := level.Distances()
	for _, room := range level.Rooms() {
		assert.True(t, level.IsReachable(room.Pos), "room %s unreachable", room.Pos)
		_, ok := dist[room.Pos]
		assert.True(t, ok, "room %s missing from BFS distances", room.Pos)
	}
}

func TestGenerateExitIsFurthestRoom(t *testing.T) {
	gen := newTestGenerator(99)

	level, err := gen.Generate(2, 10, 6, 6)
	require.NoError(t, err)

	dist := level.Distances()
	exitDist := dist[level.Exit]
	for _, d := range dist {
		assert.LessOrEqual(t, d, exitDist, "exit must be at maximum distance")
	}
	assert.NotEqual(t, level.Entrance, level.Exit)
	assert.Equal(t, KindExit, level.Room(level.Exit).Kind)
	assert.Equal(t, KindEntrance, level.Room(level.Entrance).Kind)
}

func TestGenerateConnectionsAreSymmetric(t *testing.T) {
	gen := newTestGenerator(3)

	level, err := gen.Generate(1, 15, 6, 6)
	require.NoError(t, err)

	for _, room := range level.Rooms() {
		for _, d := range room.Exits() {
			pos, ok := room.Connected(d)
			require.True(t, ok)

			neighbor := level.Room(pos)
			require.NotNil(t, neighbor)
			back, ok := neighbor.Connected(d.Opposite())
			require.True(t, ok, "connection %s -> %s has no return link", room.Pos, pos)
			assert.Equal(t, room.Pos, back)
		}
	}
}

func TestGenerateRespectsConnectionBound(t *testing.T) {
	gen := newTestGenerator(11)

	level, err := gen.Generate(1, 30, 6, 6)
	require.NoError(t, err)

	for _, room := range level.Rooms() {
		assert.LessOrEqual(t, room.ConnectionCount(), 4)
	}
}

func TestGenerateDeterministicForSeed(t *testing.T) {
	build := func() *Level {
		level, err := newTestGenerator(1234).Generate(1, 12, 6, 6)
		require.NoError(t, err)
		return level
	}

	a := build()
	b := build()

	assert.Equal(t, a.Entrance, b.Entrance)
	assert.Equal(t, a.Exit, b.Exit)
	require.Equal(t, a.RoomCount(), b.RoomCount())

	for _, room := range a.Rooms() {
		other := b.Room(room.Pos)
		require.NotNil(t, other, "room %s missing from second build", room.Pos)
		assert.Equal(t, room.Kind, other.Kind)
		assert.Equal(t, room.Exits(), other.Exits())
	}
}

func TestGenerateSingleRoomLevel(t *testing.T) {
	gen := newTestGenerator(5)

	level, err := gen.Generate(1, 1, 1, 1)
	require.NoError(t, err)

	assert.Equal(t, 1, level.RoomCount())
	assert.Equal(t, level.Entrance, level.Exit)
}

func TestGenerateRejectsInvalidArguments(t *testing.T) {
	gen := newTestGenerator(1)

	_, err := gen.Generate(1, 0, 6, 6)
	assert.Error(t, err)

	_, err = gen.Generate(1, 10, 0, 6)
	assert.Error(t, err)

	_, err = gen.Generate(1, 37, 6, 6)
	assert.Error(t, err, "room count above width*height must be rejected")
}

func TestGenerateErrUnreachableIsSentinel(t *testing.T) {
	assert.False(t, errors.Is(errors.New("other"), ErrUnreachable))
	assert.True(t, errors.Is(ErrUnreachable, ErrUnreachable))
}

func TestPositionStep(t *testing.T) {
	p := Position{X: 2, Y: 2}

	assert.Equal(t, Position{X: 2, Y: 1}, p.Step(North))
	assert.Equal(t, Position{X: 2, Y: 3}, p.Step(South))
	assert.Equal(t, Position{X: 3, Y: 2}, p.Step(East))
	assert.Equal(t, Position{X: 1, Y: 2}, p.Step(West))
}

func TestDirectionOpposite(t *testing.T) {
	for _, d := range Directions {
		assert.Equal(t, d, d.Opposite().Opposite())
	}
}
