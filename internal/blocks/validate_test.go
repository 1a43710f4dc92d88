package blocks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/blockdoc/internal/ir"
)

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidate_Clean(t *testing.T) {
	e := newTestEditor(t)
	assert.Empty(t, e.Validate(formOf("a", "b")))
}

func TestValidate_Problems(t *testing.T) {
	e := newTestEditor(t)

	tests := []struct {
		name      string
		mutate    func(f *Form)
		wantCodes []string
		fatal     bool
	}{
		{
			name: "empty layout",
			mutate: func(f *Form) {
				f.Layout = nil
				f.Blocks = map[ir.BlockID]ir.BlockData{}
			},
			wantCodes: []string{ErrCodeEmptyLayout},
			fatal:     true,
		},
		{
			name:      "duplicate id",
			mutate:    func(f *Form) { f.Layout = append(f.Layout, "a") },
			wantCodes: []string{ErrCodeDuplicateID},
			fatal:     true,
		},
		{
			name:      "dangling id",
			mutate:    func(f *Form) { f.Layout = append(f.Layout, "ghost") },
			wantCodes: []string{ErrCodeDanglingID},
			fatal:     true,
		},
		{
			name:      "missing names",
			mutate:    func(f *Form) { f.Names = ir.FieldNames{} },
			wantCodes: []string{ErrCodeMissingNames},
			fatal:     true,
		},
		{
			name:      "missing type",
			mutate:    func(f *Form) { f.Blocks["a"] = ir.BlockData{"text": ir.IRString("x")} },
			wantCodes: []string{ErrCodeMissingType},
		},
		{
			name:      "orphaned block",
			mutate:    func(f *Form) { f.Blocks["stray"] = textBlock("s") },
			wantCodes: []string{ErrCodeOrphanedBlock},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := formOf("a", "b")
			tt.mutate(&f)

			errs := e.Validate(f)

			assert.Equal(t, tt.wantCodes, codes(errs))
			assert.Equal(t, tt.fatal, HasFatal(errs))
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	withBlock := ValidationError{Code: ErrCodeDanglingID, BlockID: "x", Message: "gone"}
	assert.Equal(t, `[E202] block "x": gone`, withBlock.Error())

	withoutBlock := ValidationError{Code: ErrCodeEmptyLayout, Message: "empty"}
	assert.Equal(t, "[E200] empty", withoutBlock.Error())
}

func TestValidate_ReportsInLayoutOrder(t *testing.T) {
	e := newTestEditor(t)
	f := formOf("a")
	f.Layout = []ir.BlockID{"x", "a", "y"}

	errs := e.Validate(f)

	require.Len(t, errs, 2)
	assert.Equal(t, ir.BlockID("x"), errs[0].BlockID)
	assert.Equal(t, 0, errs[0].Index)
	assert.Equal(t, ir.BlockID("y"), errs[1].BlockID)
	assert.Equal(t, 2, errs[1].Index)
}
