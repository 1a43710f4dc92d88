// Package compiler turns CUE block type definitions into ir.BlockTypeSpec.
//
// A definition lives under the top-level blocktype struct:
//
//	blocktype: image: {
//		title:        "Image"
//		group:        "media"
//		value_fields: ["url"]
//	}
//
// value_fields lists the data fields that make a block of this type count as
// filled. A type without value_fields is always considered filled.
package compiler

import (
	"fmt"
	"strconv"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/blockdoc/internal/ir"
)

// CompileBlockType parses one block type definition. The value must be the
// definition struct itself:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`blocktype: image: { title: "Image" }`)
//	spec, err := CompileBlockType(v.LookupPath(cue.ParsePath("blocktype.image")))
func CompileBlockType(v cue.Value) (*ir.BlockTypeSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.BlockTypeSpec{}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		spec.Name = labels[len(labels)-1].String()
		if unquoted, err := strconv.Unquote(spec.Name); err == nil {
			spec.Name = unquoted
		}
	}

	iter, err := v.Fields()
	if err != nil {
		return nil, &CompileError{
			Field:   "blocktype",
			Message: "definition must be a struct",
			Pos:     v.Pos(),
		}
	}

	for iter.Next() {
		field := iter.Value()
		switch label := iter.Label(); label {
		case "title":
			spec.Title, err = field.String()
		case "group":
			spec.Group, err = field.String()
		case "restricted":
			spec.Restricted, err = field.Bool()
		case "value_fields":
			spec.ValueFields, err = parseValueFields(field)
		default:
			return nil, &CompileError{
				Field:   label,
				Message: "unknown field",
				Pos:     field.Pos(),
			}
		}
		if err != nil {
			return nil, formatCUEError(err)
		}
	}

	if spec.Title == "" {
		return nil, &CompileError{
			Field:   "title",
			Message: "title is required",
			Pos:     v.Pos(),
		}
	}

	return spec, nil
}

func parseValueFields(v cue.Value) ([]string, error) {
	list, err := v.List()
	if err != nil {
		return nil, err
	}

	var fields []string
	for list.Next() {
		name, err := list.Value().String()
		if err != nil {
			return nil, err
		}
		fields = append(fields, name)
	}
	return fields, nil
}

// CompileBlockTypes compiles every definition under the blocktype struct of
// v, in source order. Compilation stops at the first failing definition.
func CompileBlockTypes(v cue.Value) ([]ir.BlockTypeSpec, error) {
	root := v.LookupPath(cue.ParsePath("blocktype"))
	if !root.Exists() {
		return nil, nil
	}

	iter, err := root.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var specs []ir.BlockTypeSpec
	for iter.Next() {
		spec, err := CompileBlockType(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("blocktype.%s: %w", iter.Label(), err)
		}
		specs = append(specs, *spec)
	}
	return specs, nil
}

// CompileError is a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError keeps the first CUE error and its position.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
