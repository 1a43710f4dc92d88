// Package store provides SQLite-backed durable storage for blocks documents.
//
// The store keeps, per document:
//   - Documents: identity, resolved field names, creation order
//   - Revisions: the full document after each edit, as canonical JSON
//   - Ops: the journal of edits that produced those revisions
//
// Revision n is the result of applying op n to revision n-1. Revision 0 is
// the document as created or imported and has no op.
//
// # Ordering
//
// All ordering uses the per-document seq column (a logical clock), never
// wall time, so a journal replays identically on any machine. Every list
// query carries an explicit ORDER BY.
//
// # Idempotency
//
// Writes use ON CONFLICT DO NOTHING: writing the same (document, seq) twice
// keeps the first row.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// # Block queries
//
// FindBlocks selects blocks out of the latest revisions with a
// queryir.Query compiled by querysql. It reads the stored JSON directly, so
// no per-block rows are kept.
//
// Content hashes come from ir.DocumentHash and ir.OpHash.
package store
