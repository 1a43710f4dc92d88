package blocks

import (
	"slices"

	"github.com/roach88/blockdoc/internal/config"
	"github.com/roach88/blockdoc/internal/ir"
)

// Append is the AddBlock index that inserts after the last block.
const Append = -1

// Editor applies the editing algebra under one configuration.
//
// The editor holds no document state. Every method is a pure function of
// its arguments, apart from drawing fresh ids from the IDGenerator.
//
// Thread-safety: an Editor is safe for concurrent use when its IDGenerator
// is. Serializing edits to one logical document is the caller's job.
type Editor struct {
	settings config.Settings
	registry *Registry
	ids      IDGenerator
}

// Option configures an Editor.
type Option func(*Editor)

// WithIDGenerator sets the block id source. Default: UUIDGenerator.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Editor) {
		if g != nil {
			e.ids = g
		}
	}
}

// WithRegistry sets the block type registry. Default: empty registry, in
// which every non-nil block has a value.
func WithRegistry(r *Registry) Option {
	return func(e *Editor) {
		if r != nil {
			e.registry = r
		}
	}
}

// New creates an Editor.
func New(settings config.Settings, opts ...Option) *Editor {
	e := &Editor{
		settings: settings,
		registry: NewRegistry(),
		ids:      UUIDGenerator{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Settings returns the editor's configuration.
func (e *Editor) Settings() config.Settings {
	return e.settings
}

// Registry returns the editor's block type registry.
func (e *Editor) Registry() *Registry {
	return e.registry
}

// DefaultType returns the configured default block type.
func (e *Editor) DefaultType() string {
	return e.settings.DefaultBlockType
}

// Decode splits a persisted document into a Form, resolving its field names
// once.
func (e *Editor) Decode(doc ir.IRObject) (Form, error) {
	return decodeForm(doc, e.settings)
}

// Encode joins a Form back into a persisted document.
func (e *Editor) Encode(f Form) ir.IRObject {
	return encodeForm(f, e.settings)
}

// FieldNames locates the blocks and layout fields of doc.
func (e *Editor) FieldNames(doc ir.IRObject) (ir.FieldNames, error) {
	return ResolveFieldNames(doc, e.settings)
}

// HasBlocksData reports whether doc has a blocks field.
func (e *Editor) HasBlocksData(doc ir.IRObject) bool {
	return HasBlocksData(doc, e.settings)
}

// BlockType returns the type tag of data.
func (e *Editor) BlockType(data ir.BlockData) string {
	return data.String(e.settings.TypeField)
}

// HasValue reports whether data holds a value according to the predicate
// registered for its type. Types without a predicate always hold a value;
// a cleared (nil) block never does.
func (e *Editor) HasValue(data ir.BlockData) bool {
	if data == nil {
		return false
	}
	return e.registry.HasValue(e.BlockType(data), data)
}

// IsReadOnly reports whether data is locked against editing.
func (e *Editor) IsReadOnly(data ir.BlockData) bool {
	return data.Bool(e.settings.ReadOnlyField)
}

// ListBlocks returns the blocks in layout order.
func (e *Editor) ListBlocks(f Form) []Entry {
	entries := make([]Entry, len(f.Layout))
	for i, id := range f.Layout {
		entries[i] = Entry{ID: id, Data: f.Blocks[id]}
	}
	return entries
}

// EmptyForm returns a document holding a single block of the default type.
func (e *Editor) EmptyForm() Form {
	id := e.newID()
	return Form{
		Names: ir.FieldNames{
			Data:   e.settings.BlocksSuffix,
			Layout: e.settings.LayoutSuffix,
		},
		Blocks: map[ir.BlockID]ir.BlockData{id: e.placeholder()},
		Layout: []ir.BlockID{id},
		Props:  ir.IRObject{},
	}
}

// MoveBlock moves the block at position from to position to. The layout
// stays a permutation of itself; block data is untouched.
func (e *Editor) MoveBlock(f Form, from, to int) (Form, error) {
	n := len(f.Layout)
	if from < 0 || from >= n {
		return Form{}, indexOutOfRange("from", from, n)
	}
	if to < 0 || to >= n {
		return Form{}, indexOutOfRange("to", to, n)
	}

	out := f.clone()
	id := out.Layout[from]
	out.Layout = slices.Delete(out.Layout, from, from+1)
	out.Layout = slices.Insert(out.Layout, to, id)
	return out, nil
}

// DeleteBlock removes a block from the layout and the blocks mapping. When
// the last block goes, a default block takes its place.
func (e *Editor) DeleteBlock(f Form, id ir.BlockID) (Form, error) {
	idx := f.IndexOf(id)
	if idx < 0 {
		return Form{}, unknownBlock(id)
	}

	out := f.clone()
	out.Layout = slices.Delete(out.Layout, idx, idx+1)
	delete(out.Blocks, id)

	if len(out.Layout) == 0 {
		fresh := e.newID()
		out.Blocks[fresh] = e.placeholder()
		out.Layout = append(out.Layout, fresh)
	}
	return out, nil
}

// AddBlock inserts a new block of blockType at index, or after the last
// block when index is Append. A block of any type other than the default is
// followed by a fresh default placeholder. Returns the new block's id.
func (e *Editor) AddBlock(f Form, blockType string, index int) (ir.BlockID, Form, error) {
	n := len(f.Layout)
	at := index
	if index == Append {
		at = n
	}
	if at < 0 || at > n {
		return "", Form{}, indexOutOfRange("index", index, n)
	}

	out := f.clone()
	id := e.newID()
	out.Blocks[id] = ir.BlockData{e.settings.TypeField: ir.IRString(blockType)}
	inserted := []ir.BlockID{id}

	if blockType != e.settings.DefaultBlockType {
		trailing := e.newID()
		out.Blocks[trailing] = e.placeholder()
		inserted = append(inserted, trailing)
	}

	out.Layout = slices.Insert(out.Layout, at, inserted...)
	return id, out, nil
}

// MutateBlock commits value to block id and makes sure an empty block
// follows it. The block right after id is reused when it has no value;
// otherwise a default placeholder is inserted there. Only the immediate
// successor is inspected. A nil value clears the block.
func (e *Editor) MutateBlock(f Form, id ir.BlockID, value ir.BlockData) (Form, error) {
	idx := f.IndexOf(id)
	if idx < 0 {
		return Form{}, unknownBlock(id)
	}

	out := f.clone()
	out.Blocks[id] = value.Clone()

	next := idx + 1
	if next < len(f.Layout) && !e.HasValue(f.Blocks[f.Layout[next]]) {
		return out, nil
	}

	trailing := e.newID()
	out.Blocks[trailing] = e.placeholder()
	out.Layout = slices.Insert(out.Layout, next, trailing)
	return out, nil
}

// ChangeBlock replaces the data of block id without touching the layout.
// A nil value clears the block.
func (e *Editor) ChangeBlock(f Form, id ir.BlockID, value ir.BlockData) (Form, error) {
	if f.IndexOf(id) < 0 {
		return Form{}, unknownBlock(id)
	}

	out := f.clone()
	out.Blocks[id] = value.Clone()
	return out, nil
}

// SplitBlock splits block id at the cursor: id keeps head and a new block
// holding tail is inserted right after it. A nil tail becomes a default
// placeholder. Returns the new block's id.
func (e *Editor) SplitBlock(f Form, id ir.BlockID, head, tail ir.BlockData) (ir.BlockID, Form, error) {
	idx := f.IndexOf(id)
	if idx < 0 {
		return "", Form{}, unknownBlock(id)
	}

	out := f.clone()
	out.Blocks[id] = head.Clone()

	fresh := e.newID()
	if tail == nil {
		out.Blocks[fresh] = e.placeholder()
	} else {
		out.Blocks[fresh] = tail.Clone()
	}
	out.Layout = slices.Insert(out.Layout, idx+1, fresh)
	return fresh, out, nil
}

// NextBlockID returns the id after id in layout order. ok is false when id
// is the last block.
func (e *Editor) NextBlockID(f Form, id ir.BlockID) (next ir.BlockID, ok bool, err error) {
	idx := f.IndexOf(id)
	if idx < 0 {
		return "", false, unknownBlock(id)
	}
	if idx == len(f.Layout)-1 {
		return "", false, nil
	}
	return f.Layout[idx+1], true, nil
}

// PreviousBlockID returns the id before id in layout order. ok is false when
// id is the first block.
func (e *Editor) PreviousBlockID(f Form, id ir.BlockID) (prev ir.BlockID, ok bool, err error) {
	idx := f.IndexOf(id)
	if idx < 0 {
		return "", false, unknownBlock(id)
	}
	if idx == 0 {
		return "", false, nil
	}
	return f.Layout[idx-1], true, nil
}

// AddEmptyBlock guarantees an editable entry point. The form is returned
// unchanged when some block has no value or some block is not read-only;
// otherwise a default placeholder is appended.
func (e *Editor) AddEmptyBlock(f Form) Form {
	for _, entry := range e.ListBlocks(f) {
		if !e.HasValue(entry.Data) || !e.IsReadOnly(entry.Data) {
			return f
		}
	}

	out := f.clone()
	id := e.newID()
	out.Blocks[id] = e.placeholder()
	out.Layout = append(out.Layout, id)
	return out
}

func (e *Editor) newID() ir.BlockID {
	return ir.BlockID(e.ids.Generate())
}

func (e *Editor) placeholder() ir.BlockData {
	return ir.BlockData{e.settings.TypeField: ir.IRString(e.settings.DefaultBlockType)}
}
