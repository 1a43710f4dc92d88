package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes. The version suffix leaves room for a
// future algorithm change.
const (
	DomainDocument = "blockdoc/document/v1"
	DomainOp       = "blockdoc/op/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// DocumentHash computes the content hash of a whole document. Two documents
// hash equal exactly when their canonical JSON is byte-identical, so layout
// order matters and blocksById order does not.
func DocumentHash(doc IRObject) (string, error) {
	canonical, err := MarshalCanonical(doc)
	if err != nil {
		return "", fmt.Errorf("DocumentHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainDocument, canonical), nil
}

// OpHash identifies one journaled edit by its kind, arguments and position
// in the document's logical clock.
func OpHash(documentID, kind string, args IRObject, seq int64) (string, error) {
	obj := IRObject{
		"document_id": IRString(documentID),
		"kind":        IRString(kind),
		"args":        args,
		"seq":         IRInt(seq),
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("OpHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainOp, canonical), nil
}

// MustDocumentHash is like DocumentHash but panics on error.
// Use only in tests or when the document is known to be valid.
func MustDocumentHash(doc IRObject) string {
	h, err := DocumentHash(doc)
	if err != nil {
		panic(err)
	}
	return h
}
