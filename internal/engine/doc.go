// Package engine runs edit sessions over one blocks document.
//
// An Engine owns the current revision of a document and applies Ops to it
// through a blocks.Editor, one at a time. When backed by a store.Store,
// every successful op is journaled together with the revision it produced.
//
// Single-Writer Loop:
// Ops are enqueued from any goroutine and applied by Run in FIFO order.
// Apply is the synchronous path for callers that do not run the loop.
// Both paths serialize on the same lock, so the document only ever moves
// from one revision to the next.
//
// Logical Clock:
// Each successful op is stamped with the next seq of the document's Clock.
// Failed ops consume no seq and leave the document at its previous
// revision.
//
// Deterministic Replay:
// The ids an op draws from the id generator are journaled with its
// arguments. Replay feeds them back, so re-applying a journal to revision 0
// reproduces every stored revision byte for byte.
package engine
