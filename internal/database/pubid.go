package database

import (
	"sync"
	"time"

	"tasker/internal/constants"
)

// IDGenerator issues Snowflake-style public ids shared by projects, folders
// and tasks: milliseconds since the tasker epoch shifted left by ten bits,
// or'ed with a per-process sequence.
type IDGenerator struct {
	mu     sync.Mutex
	now    func() time.Time
	lastMs int64
	seq    int64
}

// NewIDGenerator returns a generator backed by the wall clock.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{now: time.Now}
}

// Next returns a new id. Ids from one generator strictly increase; when the
// sequence is exhausted inside one millisecond Next waits for the next one.
func (g *IDGenerator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.now().UnixMilli() - constants.PubIDEpochMillis
	if ms < g.lastMs {
		// Clock stepped back; keep issuing from the last seen millisecond.
		ms = g.lastMs
	}
	if ms == g.lastMs {
		g.seq = (g.seq + 1) & constants.PubIDSequenceMask
		if g.seq == 0 {
			for ms <= g.lastMs {
				time.Sleep(100 * time.Microsecond)
				ms = g.now().UnixMilli() - constants.PubIDEpochMillis
			}
		}
	} else {
		g.seq = 0
	}
	g.lastMs = ms
	return ms<<constants.PubIDSequenceBits | g.seq
}
