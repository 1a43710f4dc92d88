package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/blockdoc/internal/ir"
)

// CreateDocument registers a document and stores content as revision 0.
// Returns the stored Document. Creating an existing id is an error: the
// revision history of a document starts exactly once.
func (s *Store) CreateDocument(ctx context.Context, id string, names ir.FieldNames, content ir.IRObject) (Document, error) {
	namesJSON, err := marshalNames(names)
	if err != nil {
		return Document{}, fmt.Errorf("create document: %w", err)
	}
	contentJSON, hash, err := encodeContent(content)
	if err != nil {
		return Document{}, fmt.Errorf("create document: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Document{}, fmt.Errorf("create document: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var createdSeq int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(created_seq), 0) + 1 FROM documents`,
	).Scan(&createdSeq); err != nil {
		return Document{}, fmt.Errorf("create document: next seq: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO documents (id, names_json, created_seq)
		VALUES (?, ?, ?)
	`, id, namesJSON, createdSeq); err != nil {
		return Document{}, fmt.Errorf("create document %q: %w", id, err)
	}

	if err := insertRevision(ctx, tx, id, 0, contentJSON, hash); err != nil {
		return Document{}, fmt.Errorf("create document %q: base revision: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return Document{}, fmt.Errorf("create document: commit: %w", err)
	}

	return Document{ID: id, Names: names, CreatedSeq: createdSeq}, nil
}

// CommitEdit journals an op and the revision it produced in one
// transaction, so the journal never holds an op without its result.
//
// seq must be the next free seq of the document. When another writer already
// committed it, nothing is written and the error wraps ErrSeqConflict.
func (s *Store) CommitEdit(ctx context.Context, documentID string, seq int64, kind string, args, content ir.IRObject) (OpRecord, Revision, error) {
	argsJSON, err := marshalObject("op args", args)
	if err != nil {
		return OpRecord{}, Revision{}, fmt.Errorf("commit edit: %w", err)
	}
	opHash, err := ir.OpHash(documentID, kind, args, seq)
	if err != nil {
		return OpRecord{}, Revision{}, fmt.Errorf("commit edit: %w", err)
	}
	contentJSON, contentHash, err := encodeContent(content)
	if err != nil {
		return OpRecord{}, Revision{}, fmt.Errorf("commit edit: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return OpRecord{}, Revision{}, fmt.Errorf("commit edit: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := insertOp(ctx, tx, documentID, seq, kind, argsJSON, opHash); err != nil {
		return OpRecord{}, Revision{}, fmt.Errorf("commit edit %q: %w", documentID, err)
	}
	if err := insertRevision(ctx, tx, documentID, seq, contentJSON, contentHash); err != nil {
		return OpRecord{}, Revision{}, fmt.Errorf("commit edit %q: %w", documentID, err)
	}

	if err := tx.Commit(); err != nil {
		return OpRecord{}, Revision{}, fmt.Errorf("commit edit: commit: %w", err)
	}

	return OpRecord{DocumentID: documentID, Seq: seq, Kind: kind, Args: args, OpHash: opHash},
		Revision{DocumentID: documentID, Seq: seq, Content: content, ContentHash: contentHash},
		nil
}

func encodeContent(content ir.IRObject) (string, string, error) {
	contentJSON, err := marshalObject("content", content)
	if err != nil {
		return "", "", err
	}
	hash, err := ir.DocumentHash(content)
	if err != nil {
		return "", "", err
	}
	return contentJSON, hash, nil
}

// ErrSeqConflict means the (document, seq) slot is already taken, usually by
// another session editing the same document.
var ErrSeqConflict = errors.New("seq already committed")

func insertOp(ctx context.Context, tx *sql.Tx, documentID string, seq int64, kind, argsJSON, opHash string) error {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO ops (document_id, seq, kind, args, op_hash)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(document_id, seq) DO NOTHING
	`, documentID, seq, kind, argsJSON, opHash)
	if err != nil {
		return fmt.Errorf("op %d: %w", seq, err)
	}
	return checkInserted(res, "op", seq)
}

func insertRevision(ctx context.Context, tx *sql.Tx, documentID string, seq int64, contentJSON, contentHash string) error {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO revisions (document_id, seq, content, content_hash)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(document_id, seq) DO NOTHING
	`, documentID, seq, contentJSON, contentHash)
	if err != nil {
		return fmt.Errorf("revision %d: %w", seq, err)
	}
	return checkInserted(res, "revision", seq)
}

func checkInserted(res sql.Result, what string, seq int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %d: %w", what, seq, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, seq, ErrSeqConflict)
	}
	return nil
}
