package engine

import (
	"sync"

	"github.com/roach88/blockdoc/internal/blocks"
	"github.com/roach88/blockdoc/internal/ir"
)

// recordingGenerator passes ids through from base and remembers them until
// drained. The engine drains it after every op to journal the ids the op
// drew.
type recordingGenerator struct {
	base blocks.IDGenerator

	mu     sync.Mutex
	issued []ir.BlockID
}

func newRecordingGenerator(base blocks.IDGenerator) *recordingGenerator {
	return &recordingGenerator{base: base}
}

func (g *recordingGenerator) Generate() string {
	id := g.base.Generate()
	g.mu.Lock()
	g.issued = append(g.issued, ir.BlockID(id))
	g.mu.Unlock()
	return id
}

// drain returns and forgets the ids issued since the last drain.
func (g *recordingGenerator) drain() []ir.BlockID {
	g.mu.Lock()
	defer g.mu.Unlock()
	ids := g.issued
	g.issued = nil
	return ids
}

// replayGenerator hands out journaled ids. Drawing past the end records an
// overrun instead of panicking so Replay can report which op diverged.
type replayGenerator struct {
	ids     []ir.BlockID
	overrun bool
}

func (g *replayGenerator) load(ids []ir.BlockID) {
	g.ids = ids
	g.overrun = false
}

func (g *replayGenerator) Generate() string {
	if len(g.ids) == 0 {
		g.overrun = true
		return ""
	}
	id := g.ids[0]
	g.ids = g.ids[1:]
	return string(id)
}
