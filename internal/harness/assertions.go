package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/blockdoc/internal/blocks"
	"github.com/roach88/blockdoc/internal/ir"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Layout   []ir.BlockID
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nLayout:\n")
	for i, id := range e.Layout {
		fmt.Fprintf(&buf, "  [%d] %s\n", i, id)
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion against f and returns the
// failure messages.
func EvaluateAssertions(ed *blocks.Editor, f blocks.Form, assertions []Assertion) []string {
	var errs []string
	for _, a := range assertions {
		if err := evaluateAssertion(ed, f, a); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func evaluateAssertion(ed *blocks.Editor, f blocks.Form, a Assertion) error {
	switch a.Type {
	case AssertLayoutLen:
		return assertCount(f, a, f.Len())
	case AssertBlocksCount:
		return assertCount(f, a, len(f.Blocks))
	case AssertBlockType:
		return assertBlockType(ed, f, a)
	case AssertLayoutEquals:
		return assertLayoutEquals(f, a)
	case AssertHasValue:
		return assertHasValue(ed, f, a)
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

func assertCount(f blocks.Form, a Assertion, actual int) error {
	if actual == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%d", a.Count),
		Actual:   fmt.Sprintf("%d", actual),
		Layout:   f.Layout,
	}
}

// blockAt returns the data of the block at layout position index.
func blockAt(f blocks.Form, a Assertion) (ir.BlockData, error) {
	if a.Index < 0 || a.Index >= f.Len() {
		return nil, &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("a block at index %d", a.Index),
			Actual:   fmt.Sprintf("layout has %d blocks", f.Len()),
			Layout:   f.Layout,
		}
	}
	data, _ := f.Block(f.Layout[a.Index])
	return data, nil
}

func assertBlockType(ed *blocks.Editor, f blocks.Form, a Assertion) error {
	data, err := blockAt(f, a)
	if err != nil {
		return err
	}
	if actual := ed.BlockType(data); actual != a.BlockType {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("block %d of type %q", a.Index, a.BlockType),
			Actual:   fmt.Sprintf("type %q", actual),
			Layout:   f.Layout,
		}
	}
	return nil
}

func assertLayoutEquals(f blocks.Form, a Assertion) error {
	actual := layoutStrings(f.Layout)
	if slices.Equal(actual, a.IDs) {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%v", a.IDs),
		Actual:   fmt.Sprintf("%v", actual),
		Layout:   f.Layout,
	}
}

func assertHasValue(ed *blocks.Editor, f blocks.Form, a Assertion) error {
	data, err := blockAt(f, a)
	if err != nil {
		return err
	}
	if actual := ed.HasValue(data); actual != *a.Want {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("hasValue(block %d) = %t", a.Index, *a.Want),
			Actual:   fmt.Sprintf("%t", actual),
			Layout:   f.Layout,
		}
	}
	return nil
}
