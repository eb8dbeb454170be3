// Package content memoizes generated room content so revisits are free and
// consistent. Records live for one level and are dropped wholesale on level
// advance.
package content

import (
	"sync"

	"dreamdelve/internal/game/dungeon"
)

// RoomContent is the per-room record of already-generated material. Fields
// fill in over a room's lifetime: Description and ImageRef during first
// entry, Summary at summarization, RevisitDescription lazily after the room
// is left.
type RoomContent struct {
	Description        string
	Summary            string
	RevisitDescription string
	ImageRef           string
}

type record struct {
	mu               sync.Mutex
	content          RoomContent
	revisitRequested bool
}

// Cache stores RoomContent keyed by room position. Writes to different keys
// are independent; writes to the same key are serialized by a per-record
// mutex, since the description and revisit paths can race on one room.
type Cache struct {
	mu      sync.RWMutex
	records map[dungeon.Position]*record
}

func NewCache() *Cache {
	return &Cache{records: make(map[dungeon.Position]*record)}
}

// Get returns a copy of the record for pos, and whether one exists.
func (c *Cache) Get(pos dungeon.Position) (RoomContent, bool) {
	c.mu.RLock()
	rec, ok := c.records[pos]
	c.mu.RUnlock()
	if !ok {
		return RoomContent{}, false
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.content, true
}

// Has reports whether pos has a record.
func (c *Cache) Has(pos dungeon.Position) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.records[pos]
	return ok
}

// SetDescription creates the record for pos if needed and fills the first
// entry fields atomically.
func (c *Cache) SetDescription(pos dungeon.Position, description string) {
	c.update(pos, func(rc *RoomContent) { rc.Description = description })
}

// SetImage attaches the generated image reference.
func (c *Cache) SetImage(pos dungeon.Position, imageRef string) {
	c.update(pos, func(rc *RoomContent) { rc.ImageRef = imageRef })
}

// SetSummary records the room's summarized dialogue.
func (c *Cache) SetSummary(pos dungeon.Position, summary string) {
	c.update(pos, func(rc *RoomContent) { rc.Summary = summary })
}

// SetRevisit records the lazily generated revisit description. Unlike the
// other setters it never creates a record: a revisit that lands after Reset
// dropped the level's records is stale and must be discarded, not allowed to
// resurrect a record the next level's room graph may key by the same
// position.
func (c *Cache) SetRevisit(pos dungeon.Position, revisit string) {
	c.mu.RLock()
	rec, ok := c.records[pos]
	c.mu.RUnlock()
	if !ok {
		return
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.content.RevisitDescription = revisit
}

// ClaimRevisit marks pos as having its revisit generation scheduled and
// reports whether the caller won the claim. This keeps the background
// revisit pass from being started twice for the same room.
func (c *Cache) ClaimRevisit(pos dungeon.Position) bool {
	rec := c.recordFor(pos)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.revisitRequested {
		return false
	}
	rec.revisitRequested = true
	return true
}

// Reset drops every record. Called on level advance.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = make(map[dungeon.Position]*record)
}

// Len reports the number of cached rooms.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

func (c *Cache) recordFor(pos dungeon.Position) *record {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.records[pos]
	if !ok {
		rec = &record{}
		c.records[pos] = rec
	}
	return rec
}

func (c *Cache) update(pos dungeon.Position, fn func(*RoomContent)) {
	rec := c.recordFor(pos)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	fn(&rec.content)
}
