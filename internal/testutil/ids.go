package testutil

import (
	"fmt"
	"sync"
)

// SequenceGenerator produces predictable block ids: prefix-1, prefix-2, ...
//
// Identical edit sequences run against a fresh SequenceGenerator produce
// byte-identical documents, which is what golden snapshots rely on.
//
// Implements blocks.IDGenerator. Safe for concurrent use.
type SequenceGenerator struct {
	prefix string

	mu     sync.Mutex
	issued int64
}

// NewSequenceGenerator creates a generator. An empty prefix becomes "block".
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	if prefix == "" {
		prefix = "block"
	}
	return &SequenceGenerator{prefix: prefix}
}

// Generate returns the next id.
func (g *SequenceGenerator) Generate() string {
	g.mu.Lock()
	g.issued++
	n := g.issued
	g.mu.Unlock()
	return fmt.Sprintf("%s-%d", g.prefix, n)
}

// Issued returns how many ids have been generated.
func (g *SequenceGenerator) Issued() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.issued
}

// Reset restarts the sequence at prefix-1.
func (g *SequenceGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.issued = 0
}

// FixedGenerator returns predetermined ids in order.
//
//	gen := NewFixedGenerator("a", "b")
//	gen.Generate() // "a"
//	gen.Generate() // "b"
//	gen.Generate() // panic: all ids exhausted
//
// Running out panics so a test that draws more ids than it planned for
// fails loudly. Safe for concurrent use.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator over ids.
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined id.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}

// Remaining returns how many ids are left.
func (g *FixedGenerator) Remaining() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.ids) - g.idx
}
