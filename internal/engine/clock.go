package engine

import "sync/atomic"

// seqClock numbers a document's revisions. The base revision is seq 0.
//
// Apply reads Pending before touching the document and calls Advance only
// after the revision is committed, so a failed op never leaves a gap. Last is
// safe to call without holding the engine lock.
type seqClock struct {
	last atomic.Int64
}

func clockAt(seq int64) *seqClock {
	c := &seqClock{}
	c.last.Store(seq)
	return c
}

// Last is the seq of the newest committed revision.
func (c *seqClock) Last() int64 { return c.last.Load() }

// Pending is the seq the next committed revision will get.
func (c *seqClock) Pending() int64 { return c.last.Load() + 1 }

// Advance commits the pending seq and returns it.
func (c *seqClock) Advance() int64 { return c.last.Add(1) }
