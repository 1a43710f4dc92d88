package store

import "github.com/roach88/blockdoc/internal/ir"

// Document identifies a stored blocks document.
type Document struct {
	ID         string        `json:"id"`
	Names      ir.FieldNames `json:"names"`
	CreatedSeq int64         `json:"created_seq"`
}

// Revision is the full content of a document at one point in its history.
type Revision struct {
	DocumentID  string      `json:"document_id"`
	Seq         int64       `json:"seq"`
	Content     ir.IRObject `json:"content"`
	ContentHash string      `json:"content_hash"`
}

// OpRecord is one journaled edit. Args holds the op's arguments as
// produced by the engine.
type OpRecord struct {
	DocumentID string      `json:"document_id"`
	Seq        int64       `json:"seq"`
	Kind       string      `json:"kind"`
	Args       ir.IRObject `json:"args"`
	OpHash     string      `json:"op_hash"`
}

// BlockMatch is one block selected by FindBlocks. Data is nil for a
// cleared block.
type BlockMatch struct {
	DocumentID string       `json:"document_id"`
	Seq        int64        `json:"seq"`
	Index      int          `json:"index"`
	BlockID    ir.BlockID   `json:"block_id"`
	Data       ir.BlockData `json:"data"`
}
