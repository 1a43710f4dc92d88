package ir

// BlockID is an opaque block identifier. Generated ids are never reused.
type BlockID string

// BlockData is the content of one block: a mapping from field name to value.
// The type field (by default "@type") selects the block's type; every other
// field is opaque to the editing algebra.
type BlockData = IRObject

// FieldNames locates the two reserved fields of a blocks document: the
// block data mapping and the layout.
type FieldNames struct {
	Data   string `json:"data" yaml:"data"`
	Layout string `json:"layout" yaml:"layout"`
}

// IsZero reports whether neither field was resolved.
func (n FieldNames) IsZero() bool {
	return n.Data == "" && n.Layout == ""
}

// BlockTypeSpec is a compiled block type definition.
type BlockTypeSpec struct {
	Name        string   `json:"name"`
	Title       string   `json:"title"`
	Group       string   `json:"group,omitempty"`
	Restricted  bool     `json:"restricted,omitempty"`
	ValueFields []string `json:"value_fields,omitempty"` // empty: no hasValue predicate
}
