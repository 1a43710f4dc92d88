// Package blocks implements the editing algebra of a blocks document.
//
// A document is an ordered layout of block ids plus a mapping from block id
// to block data. Every operation takes a Form and returns a new Form; inputs
// are never modified, so a Form may be shared freely between readers.
//
// # Invariants
//
// After every operation:
//   - the layout holds no id missing from the blocks mapping, and no id twice
//   - the layout is never empty; deleting the last block inserts one block of
//     the default type
//   - committing a value with MutateBlock leaves a block without a value right
//     after the committed block, reusing an existing one when present
//   - order lives only in the layout; the blocks mapping carries none
//
// # Malformed Input
//
// Operations trust that their input already satisfies the invariants. They do
// not repair documents. Arguments naming an id that is not in the layout, or
// an index outside the layout, fail with ErrUnknownBlock or
// ErrIndexOutOfRange and leave the input untouched. Use Validate at load
// boundaries to reject malformed documents up front.
//
// # Block Types
//
// Whether a block "has a value" is decided per block type by a Registry of
// predicates. Types without a predicate always have a value; the editor uses
// this to recognise placeholder blocks.
package blocks
