package queryir

import "github.com/roach88/blockdoc/internal/ir"

// Query is a sealed interface; only types in this package implement it.
type Query interface {
	queryNode()
}

// Predicate filters blocks. Sealed like Query.
type Predicate interface {
	predicateNode()
}

// Blocks selects blocks from the latest revision of stored documents, in
// document creation order and then layout order. Blocks present in the data
// mapping but not in the layout are never selected.
type Blocks struct {
	Document string    // restrict to one document; "" selects all
	Filter   Predicate // nil selects every block
	Limit    int       // 0 means no limit
}

func (Blocks) queryNode() {}

// Equals matches blocks whose data has Field set to Value.
//
// Value must be a string, int or bool.
type Equals struct {
	Field string
	Value ir.IRValue
}

func (Equals) predicateNode() {}

// Exists matches blocks whose data has Field set to anything but null.
type Exists struct {
	Field string
}

func (Exists) predicateNode() {}

// Not negates a predicate. Blocks without data (cleared blocks) never match
// a field predicate, negated or not.
type Not struct {
	Predicate Predicate
}

func (Not) predicateNode() {}

// And matches when every predicate matches. An empty And matches everything.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// TypeIs is shorthand for Equals on the block type field.
func TypeIs(typeField, blockType string) Equals {
	return Equals{Field: typeField, Value: ir.IRString(blockType)}
}
