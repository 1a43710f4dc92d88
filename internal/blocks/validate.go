package blocks

import (
	"fmt"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/roach88/blockdoc/internal/ir"
)

// Form validation error codes (E200-E209).
const (
	ErrCodeEmptyLayout   = "E200" // layout has no blocks
	ErrCodeDuplicateID   = "E201" // id appears twice in the layout
	ErrCodeDanglingID    = "E202" // layout id missing from blocks
	ErrCodeMissingNames  = "E203" // blocks or layout field name unresolved
	ErrCodeMissingType   = "E204" // block data without a type tag
	ErrCodeOrphanedBlock = "E205" // block data not referenced by the layout
)

// ValidationError describes one problem found in a Form.
type ValidationError struct {
	Code    string     `json:"code"`
	BlockID ir.BlockID `json:"block_id,omitempty"`
	Index   int        `json:"index"`
	Message string     `json:"message"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.BlockID != "" {
		return fmt.Sprintf("[%s] block %q: %s", e.Code, e.BlockID, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Validate checks a form against the document invariants and returns every
// problem found, in layout order. Operations never call it; it is meant for
// documents arriving from storage or files.
//
// Orphaned blocks and blocks without a type are reported but do not break
// the editing invariants.
func (e *Editor) Validate(f Form) []ValidationError {
	var errs []ValidationError

	if f.Names.Data == "" || f.Names.Layout == "" {
		errs = append(errs, ValidationError{
			Code:    ErrCodeMissingNames,
			Index:   -1,
			Message: "blocks and layout field names must both be set",
		})
	}

	if len(f.Layout) == 0 {
		errs = append(errs, ValidationError{
			Code:    ErrCodeEmptyLayout,
			Index:   -1,
			Message: "layout must hold at least one block",
		})
	}

	seen := make(map[ir.BlockID]int, len(f.Layout))
	for i, id := range f.Layout {
		if first, dup := seen[id]; dup {
			errs = append(errs, ValidationError{
				Code:    ErrCodeDuplicateID,
				BlockID: id,
				Index:   i,
				Message: fmt.Sprintf("already at position %d", first),
			})
			continue
		}
		seen[id] = i

		data, ok := f.Blocks[id]
		if !ok {
			errs = append(errs, ValidationError{
				Code:    ErrCodeDanglingID,
				BlockID: id,
				Index:   i,
				Message: "listed in the layout but has no block data",
			})
			continue
		}
		if data != nil && e.BlockType(data) == "" {
			errs = append(errs, ValidationError{
				Code:    ErrCodeMissingType,
				BlockID: id,
				Index:   i,
				Message: fmt.Sprintf("block data has no %q field", e.settings.TypeField),
			})
		}
	}

	stored := mapset.NewThreadUnsafeSetFromMapKeys(f.Blocks)
	orphans := stored.Difference(mapset.NewThreadUnsafeSetFromMapKeys(seen)).ToSlice()
	slices.Sort(orphans)
	for _, id := range orphans {
		errs = append(errs, ValidationError{
			Code:    ErrCodeOrphanedBlock,
			BlockID: id,
			Index:   -1,
			Message: "block data not referenced by the layout",
		})
	}

	return errs
}

// IsFatal reports whether a validation error breaks the editing invariants.
func (e ValidationError) IsFatal() bool {
	switch e.Code {
	case ErrCodeMissingType, ErrCodeOrphanedBlock:
		return false
	}
	return true
}

// HasFatal reports whether any error in errs is fatal.
func HasFatal(errs []ValidationError) bool {
	return slices.ContainsFunc(errs, ValidationError.IsFatal)
}
