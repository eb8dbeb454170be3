package content

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dreamdelve/internal/game/dungeon"
)

func TestGetMissingPosition(t *testing.T) {
	c := NewCache()

	_, ok := c.Get(dungeon.Position{X: 1, Y: 1})
	assert.False(t, ok)
	assert.False(t, c.Has(dungeon.Position{X: 1, Y: 1}))
}

func TestFieldsFillInOverRoomLifetime(t *testing.T) {
	c := NewCache()
	pos := dungeon.Position{X: 2, Y: 3}

	c.SetDescription(pos, "a flooded archive")
	rc, ok := c.Get(pos)
	require.True(t, ok)
	assert.Equal(t, "a flooded archive", rc.Description)
	assert.Empty(t, rc.Summary)

	c.SetImage(pos, "images/abc.png")
	c.SetSummary(pos, "the player drained the archive")
	c.SetRevisit(pos, "the archive stands dry and silent")

	rc, _ = c.Get(pos)
	assert.Equal(t, "a flooded archive", rc.Description)
	assert.Equal(t, "images/abc.png", rc.ImageRef)
	assert.Equal(t, "the player drained the archive", rc.Summary)
	assert.Equal(t, "the archive stands dry and silent", rc.RevisitDescription)
}

func TestGetReturnsCopy(t *testing.T) {
	c := NewCache()
	pos := dungeon.Position{X: 0, Y: 0}
	c.SetDescription(pos, "original")

	rc, _ := c.Get(pos)
	rc.Description = "mutated"

	again, _ := c.Get(pos)
	assert.Equal(t, "original", again.Description)
}

func TestClaimRevisitWonOnce(t *testing.T) {
	c := NewCache()
	pos := dungeon.Position{X: 1, Y: 2}

	assert.True(t, c.ClaimRevisit(pos))
	assert.False(t, c.ClaimRevisit(pos))

	// A different room is an independent claim.
	assert.True(t, c.ClaimRevisit(dungeon.Position{X: 2, Y: 2}))
}

func TestClaimRevisitConcurrent(t *testing.T) {
	c := NewCache()
	pos := dungeon.Position{X: 4, Y: 4}

	const goroutines = 16
	var wins int32
	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			if c.ClaimRevisit(pos) {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins)
}

func TestSetRevisitNeverCreatesRecord(t *testing.T) {
	c := NewCache()
	pos := dungeon.Position{X: 3, Y: 1}

	c.SetRevisit(pos, "text for a room that was never generated")

	assert.Equal(t, 0, c.Len())
	assert.False(t, c.Has(pos))
}

func TestSetRevisitAfterResetIsDiscarded(t *testing.T) {
	c := NewCache()
	pos := dungeon.Position{X: 2, Y: 2}

	c.SetDescription(pos, "old level room")
	require.True(t, c.ClaimRevisit(pos))
	c.Reset()

	// The lazy revisit pass lands after the level advanced; it must not
	// resurrect the old level's record.
	c.SetRevisit(pos, "stale revisit text from the previous level")

	assert.Equal(t, 0, c.Len())
	_, ok := c.Get(pos)
	assert.False(t, ok)
}

func TestResetDropsEverything(t *testing.T) {
	c := NewCache()
	a := dungeon.Position{X: 0, Y: 0}
	b := dungeon.Position{X: 1, Y: 0}
	c.SetDescription(a, "first")
	c.SetDescription(b, "second")
	require.Equal(t, 2, c.Len())

	c.Reset()

	assert.Equal(t, 0, c.Len())
	assert.False(t, c.Has(a))

	// Claims do not survive a reset either.
	assert.True(t, c.ClaimRevisit(a))
}

func TestConcurrentWritesToDifferentRooms(t *testing.T) {
	c := NewCache()

	var wg sync.WaitGroup
	for x := 0; x < 8; x++ {
		wg.Add(1)
		go func(x int) {
			defer wg.Done()
			pos := dungeon.Position{X: x, Y: 0}
			c.SetDescription(pos, "room")
			c.SetSummary(pos, "done")
		}(x)
	}
	wg.Wait()

	assert.Equal(t, 8, c.Len())
}
