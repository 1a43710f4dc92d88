package compiler

import (
	"fmt"
	"regexp"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/roach88/blockdoc/internal/ir"
)

// Validation error codes (E100-E199).
const (
	ErrInvalidTypeName     = "E101" // block type name is empty or malformed
	ErrTitleEmpty          = "E102" // title is required
	ErrDuplicateType       = "E103" // two definitions share a name
	ErrEmptyValueField     = "E104" // value_fields entry is blank
	ErrDuplicateValueField = "E105" // value_fields lists a field twice
	ErrReservedValueField  = "E106" // value_fields names the type or read-only field
)

// ValidationError is one problem found in a set of block type definitions.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

var typeNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.-]*$`)

// ValidateBlockTypes checks compiled definitions. reserved lists data fields
// a definition may not use as value fields (the type tag and the read-only
// flag). All errors are returned; validation does not stop at the first.
func ValidateBlockTypes(specs []ir.BlockTypeSpec, reserved ...string) []ValidationError {
	var errs []ValidationError
	seen := mapset.NewThreadUnsafeSet[string]()
	reservedFields := mapset.NewThreadUnsafeSet(reserved...)

	for i, spec := range specs {
		prefix := fmt.Sprintf("blocktype[%d]", i)

		if !typeNamePattern.MatchString(spec.Name) {
			errs = append(errs, ValidationError{
				Field:   prefix + ".name",
				Message: fmt.Sprintf("invalid block type name %q", spec.Name),
				Code:    ErrInvalidTypeName,
			})
		}
		if !seen.Add(spec.Name) {
			errs = append(errs, ValidationError{
				Field:   prefix + ".name",
				Message: fmt.Sprintf("duplicate block type %q", spec.Name),
				Code:    ErrDuplicateType,
			})
		}

		if strings.TrimSpace(spec.Title) == "" {
			errs = append(errs, ValidationError{
				Field:   prefix + ".title",
				Message: "title is required and must be non-empty",
				Code:    ErrTitleEmpty,
			})
		}

		fields := mapset.NewThreadUnsafeSet[string]()
		for j, f := range spec.ValueFields {
			path := fmt.Sprintf("%s.value_fields[%d]", prefix, j)
			switch {
			case strings.TrimSpace(f) == "":
				errs = append(errs, ValidationError{Field: path, Message: "field name is blank", Code: ErrEmptyValueField})
			case !fields.Add(f):
				errs = append(errs, ValidationError{Field: path, Message: fmt.Sprintf("duplicate field %q", f), Code: ErrDuplicateValueField})
			case reservedFields.Contains(f):
				errs = append(errs, ValidationError{Field: path, Message: fmt.Sprintf("field %q is reserved", f), Code: ErrReservedValueField})
			}
		}
	}

	return errs
}
