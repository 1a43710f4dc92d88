package store

import (
	"context"
	"database/sql"
	"fmt"
)

// ReadDocument retrieves a document by id.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadDocument(ctx context.Context, id string) (Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, names_json, created_seq
		FROM documents
		WHERE id = ?
	`, id)
	return scanDocument(row)
}

// ListDocuments returns every document in creation order.
// Returns an empty slice (not nil) when the store is empty.
func (s *Store) ListDocuments(ctx context.Context) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, names_json, created_seq
		FROM documents
		ORDER BY created_seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

// ReadLatest returns the newest revision of a document.
// Returns sql.ErrNoRows if the document has no revisions.
func (s *Store) ReadLatest(ctx context.Context, documentID string) (Revision, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT document_id, seq, content, content_hash
		FROM revisions
		WHERE document_id = ?
		ORDER BY seq DESC
		LIMIT 1
	`, documentID)
	return scanRevision(row)
}

// ReadRevision returns the revision of a document at seq.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRevision(ctx context.Context, documentID string, seq int64) (Revision, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT document_id, seq, content, content_hash
		FROM revisions
		WHERE document_id = ? AND seq = ?
	`, documentID, seq)
	return scanRevision(row)
}

// FindRevisionByHash returns the earliest revision of a document with the
// given content hash. Returns sql.ErrNoRows if no revision matches.
func (s *Store) FindRevisionByHash(ctx context.Context, documentID, hash string) (Revision, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT document_id, seq, content, content_hash
		FROM revisions
		WHERE document_id = ? AND content_hash = ?
		ORDER BY seq ASC
		LIMIT 1
	`, documentID, hash)
	return scanRevision(row)
}

// ListRevisions returns every revision of a document in seq order.
// Returns an empty slice (not nil) if none exist.
func (s *Store) ListRevisions(ctx context.Context, documentID string) ([]Revision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document_id, seq, content, content_hash
		FROM revisions
		WHERE document_id = ?
		ORDER BY seq ASC
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("query revisions: %w", err)
	}
	defer rows.Close()

	revs := []Revision{}
	for rows.Next() {
		rev, err := scanRevision(rows)
		if err != nil {
			return nil, err
		}
		revs = append(revs, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revisions: %w", err)
	}
	return revs, nil
}

// ReadOps returns the op journal of a document in seq order, starting after
// afterSeq. Pass 0 for the whole journal.
// Returns an empty slice (not nil) if none exist.
func (s *Store) ReadOps(ctx context.Context, documentID string, afterSeq int64) ([]OpRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document_id, seq, kind, args, op_hash
		FROM ops
		WHERE document_id = ? AND seq > ?
		ORDER BY seq ASC
	`, documentID, afterSeq)
	if err != nil {
		return nil, fmt.Errorf("query ops: %w", err)
	}
	defer rows.Close()

	ops := []OpRecord{}
	for rows.Next() {
		var (
			op       OpRecord
			argsJSON string
		)
		if err := rows.Scan(&op.DocumentID, &op.Seq, &op.Kind, &argsJSON, &op.OpHash); err != nil {
			return nil, fmt.Errorf("scan op: %w", err)
		}
		op.Args, err = unmarshalObject("op args", argsJSON)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ops: %w", err)
	}
	return ops, nil
}

// LastSeq returns the highest revision seq of a document, or 0 when only the
// base revision exists. Returns sql.ErrNoRows for an unknown document.
func (s *Store) LastSeq(ctx context.Context, documentID string) (int64, error) {
	var seq sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(seq) FROM revisions WHERE document_id = ?
	`, documentID).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	if !seq.Valid {
		return 0, sql.ErrNoRows
	}
	return seq.Int64, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var (
		doc       Document
		namesJSON string
	)
	if err := row.Scan(&doc.ID, &namesJSON, &doc.CreatedSeq); err != nil {
		if err == sql.ErrNoRows {
			return Document{}, err
		}
		return Document{}, fmt.Errorf("scan document: %w", err)
	}

	names, err := unmarshalNames(namesJSON)
	if err != nil {
		return Document{}, err
	}
	doc.Names = names
	return doc, nil
}

func scanRevision(row rowScanner) (Revision, error) {
	var (
		rev         Revision
		contentJSON string
	)
	if err := row.Scan(&rev.DocumentID, &rev.Seq, &contentJSON, &rev.ContentHash); err != nil {
		if err == sql.ErrNoRows {
			return Revision{}, err
		}
		return Revision{}, fmt.Errorf("scan revision: %w", err)
	}

	content, err := unmarshalObject("content", contentJSON)
	if err != nil {
		return Revision{}, err
	}
	rev.Content = content
	return rev, nil
}
