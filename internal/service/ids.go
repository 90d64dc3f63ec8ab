package service

import (
	"sync"
	"time"
)

// IDGenerator issues clock-derived item ids (Unix milliseconds). Ids from
// one generator are strictly increasing: when the clock has not advanced
// since the previous id, the previous id plus one is used instead.
type IDGenerator struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

// NewIDGenerator creates a generator reading the given clock. A nil clock
// means time.Now.
func NewIDGenerator(now func() time.Time) *IDGenerator {
	if now == nil {
		now = time.Now
	}
	return &IDGenerator{now: now}
}

// Next returns a new id greater than every id previously returned and
// greater than floor.
func (g *IDGenerator) Next(floor int64) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	if id <= floor {
		id = floor + 1
	}
	g.last = id

	return id
}
