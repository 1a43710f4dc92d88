package blocks

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/roach88/blockdoc/internal/config"
	"github.com/roach88/blockdoc/internal/ir"
)

// Form is a blocks document under edit.
//
// Blocks maps every id in Layout to its data; a nil BlockData is a cleared
// block. Props holds every other document property and is carried through
// edits verbatim.
type Form struct {
	Names  ir.FieldNames
	Blocks map[ir.BlockID]ir.BlockData
	Layout []ir.BlockID
	Props  ir.IRObject
}

// Entry is one block in layout order.
type Entry struct {
	ID   ir.BlockID
	Data ir.BlockData
}

// Len returns the number of blocks in the layout.
func (f Form) Len() int {
	return len(f.Layout)
}

// IndexOf returns the layout position of id, or -1.
func (f Form) IndexOf(id ir.BlockID) int {
	return slices.Index(f.Layout, id)
}

// Block returns the data stored for id.
func (f Form) Block(id ir.BlockID) (ir.BlockData, bool) {
	data, ok := f.Blocks[id]
	return data, ok
}

// clone copies the layout and the blocks mapping. Block data values are
// shared; the editor replaces them, it never edits them in place.
func (f Form) clone() Form {
	blocks := maps.Clone(f.Blocks)
	if blocks == nil {
		blocks = make(map[ir.BlockID]ir.BlockData)
	}
	return Form{
		Names:  f.Names,
		Blocks: blocks,
		Layout: slices.Clone(f.Layout),
		Props:  f.Props,
	}
}

// ResolveFieldNames locates the blocks and layout fields of a document.
//
// The blocks field is the first key, in canonical key order, that ends with
// the blocks suffix and is neither the reserved key nor a layout key. The
// layout field is the first key ending with the layout suffix that is not the
// reserved key.
func ResolveFieldNames(doc ir.IRObject, s config.Settings) (ir.FieldNames, error) {
	var names ir.FieldNames
	for _, key := range doc.SortedKeys() {
		if key == s.ReservedKey {
			continue
		}
		isLayout := strings.HasSuffix(key, s.LayoutSuffix)
		if isLayout && names.Layout == "" {
			names.Layout = key
		}
		if !isLayout && strings.HasSuffix(key, s.BlocksSuffix) && names.Data == "" {
			names.Data = key
		}
	}

	if names.Data == "" {
		return names, ErrMissingBlocksField
	}
	if names.Layout == "" {
		return names, ErrMissingLayoutField
	}
	return names, nil
}

// HasBlocksData reports whether doc has a blocks field.
func HasBlocksData(doc ir.IRObject, s config.Settings) bool {
	_, err := ResolveFieldNames(doc, s)
	return !errors.Is(err, ErrMissingBlocksField)
}

// decodeForm splits a persisted document into a Form.
func decodeForm(doc ir.IRObject, s config.Settings) (Form, error) {
	names, err := ResolveFieldNames(doc, s)
	if err != nil {
		return Form{}, err
	}

	form := Form{
		Names:  names,
		Blocks: make(map[ir.BlockID]ir.BlockData),
		Layout: []ir.BlockID{},
		Props:  make(ir.IRObject, len(doc)),
	}
	for k, v := range doc {
		if k != names.Data && k != names.Layout {
			form.Props[k] = v
		}
	}

	rawBlocks, ok := doc[names.Data].(ir.IRObject)
	if !ok {
		return Form{}, fmt.Errorf("field %q: expected object, got %T", names.Data, doc[names.Data])
	}
	for id, v := range rawBlocks {
		switch data := v.(type) {
		case ir.IRObject:
			form.Blocks[ir.BlockID(id)] = data
		case ir.IRNull:
			form.Blocks[ir.BlockID(id)] = nil
		default:
			return Form{}, fmt.Errorf("field %q: block %q: expected object or null, got %T", names.Data, id, v)
		}
	}

	rawLayout, ok := doc[names.Layout].(ir.IRObject)
	if !ok {
		return Form{}, fmt.Errorf("field %q: expected object, got %T", names.Layout, doc[names.Layout])
	}
	items, present := rawLayout[s.LayoutItemsKey]
	if !present {
		return form, nil
	}
	arr, ok := items.(ir.IRArray)
	if !ok {
		return Form{}, fmt.Errorf("field %q: %q: expected array, got %T", names.Layout, s.LayoutItemsKey, items)
	}
	for i, item := range arr {
		id, ok := item.(ir.IRString)
		if !ok {
			return Form{}, fmt.Errorf("field %q: %s[%d]: expected string, got %T", names.Layout, s.LayoutItemsKey, i, item)
		}
		form.Layout = append(form.Layout, ir.BlockID(id))
	}
	return form, nil
}

// encodeForm joins a Form back into a document.
func encodeForm(f Form, s config.Settings) ir.IRObject {
	names := f.Names
	if names.IsZero() {
		names = ir.FieldNames{Data: s.BlocksSuffix, Layout: s.LayoutSuffix}
	}

	doc := f.Props.Clone()
	if doc == nil {
		doc = make(ir.IRObject, 2)
	}

	blocks := make(ir.IRObject, len(f.Blocks))
	for id, data := range f.Blocks {
		if data == nil {
			blocks[string(id)] = ir.IRNull{}
			continue
		}
		blocks[string(id)] = data
	}

	items := make(ir.IRArray, len(f.Layout))
	for i, id := range f.Layout {
		items[i] = ir.IRString(id)
	}

	doc[names.Data] = blocks
	doc[names.Layout] = ir.IRObject{s.LayoutItemsKey: items}
	return doc
}
