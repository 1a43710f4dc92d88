package engine

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/blockdoc/internal/blocks"
	"github.com/roach88/blockdoc/internal/ir"
)

// OpKind names an edit operation.
type OpKind string

// Op kinds.
const (
	OpAdd      OpKind = "add"
	OpDelete   OpKind = "delete"
	OpMove     OpKind = "move"
	OpMutate   OpKind = "mutate"
	OpChange   OpKind = "change"
	OpSplit    OpKind = "split"
	OpAddEmpty OpKind = "add_empty"
)

// OpKinds lists every kind in a stable order.
var OpKinds = []OpKind{OpAdd, OpDelete, OpMove, OpMutate, OpChange, OpSplit, OpAddEmpty}

// Op is one edit of a blocks document.
//
// Which fields matter depends on Kind:
//
//	add       Type, Index (blocks.Append for the end)
//	delete    ID
//	move      From, To
//	mutate    ID, Value (nil clears)
//	change    ID, Value (nil clears)
//	split     ID, Value (head), Tail
//	add_empty none
//
// At may stand in for ID: the block at that layout position when the op is
// applied.
type Op struct {
	Kind  OpKind
	ID    ir.BlockID
	At    *int
	Type  string
	Index int
	From  int
	To    int
	Value ir.BlockData
	Tail  ir.BlockData
}

// Validate checks that op names a known kind and carries its required
// fields. Index and position checks happen when the op is applied.
func (op Op) Validate() error {
	if !slices.Contains(OpKinds, op.Kind) {
		return fmt.Errorf("unknown op kind %q", op.Kind)
	}
	switch op.Kind {
	case OpAdd:
		if op.Type == "" {
			return fmt.Errorf("%s: type is required", op.Kind)
		}
	case OpDelete, OpMutate, OpChange, OpSplit:
		if op.ID == "" && op.At == nil {
			return fmt.Errorf("%s: id or at is required", op.Kind)
		}
	}
	return nil
}

// Args returns the op's arguments as journaled: only the fields its kind
// uses, with cleared values as null.
func (op Op) Args() ir.IRObject {
	args := ir.IRObject{}
	switch op.Kind {
	case OpAdd:
		args["type"] = ir.IRString(op.Type)
		args["index"] = ir.IRInt(op.Index)
	case OpDelete:
		args["id"] = ir.IRString(op.ID)
	case OpMove:
		args["from"] = ir.IRInt(op.From)
		args["to"] = ir.IRInt(op.To)
	case OpMutate, OpChange:
		args["id"] = ir.IRString(op.ID)
		args["value"] = dataValue(op.Value)
	case OpSplit:
		args["id"] = ir.IRString(op.ID)
		args["value"] = dataValue(op.Value)
		args["tail"] = dataValue(op.Tail)
	}
	return args
}

func dataValue(data ir.BlockData) ir.IRValue {
	if data == nil {
		return ir.IRNull{}
	}
	return data.Clone()
}

// argIDs is the args key holding the ids an op drew from the generator.
const argIDs = "ids"

// OpFromArgs rebuilds a journaled op. The second result is the list of ids
// the op generated when it was first applied.
func OpFromArgs(kind string, args ir.IRObject) (Op, []ir.BlockID, error) {
	op := Op{Kind: OpKind(kind)}
	var err error

	switch op.Kind {
	case OpAdd:
		op.Type = args.String("type")
		op.Index, err = argInt(args, "index")
	case OpDelete:
		op.ID = ir.BlockID(args.String("id"))
	case OpMove:
		if op.From, err = argInt(args, "from"); err == nil {
			op.To, err = argInt(args, "to")
		}
	case OpMutate, OpChange:
		op.ID = ir.BlockID(args.String("id"))
		op.Value, err = argData(args, "value")
	case OpSplit:
		op.ID = ir.BlockID(args.String("id"))
		if op.Value, err = argData(args, "value"); err == nil {
			op.Tail, err = argData(args, "tail")
		}
	}
	if err != nil {
		return Op{}, nil, fmt.Errorf("%s: %w", kind, err)
	}
	if err := op.Validate(); err != nil {
		return Op{}, nil, err
	}

	var ids []ir.BlockID
	if raw, ok := args[argIDs]; ok {
		arr, ok := raw.(ir.IRArray)
		if !ok {
			return Op{}, nil, fmt.Errorf("%s: %q: expected array, got %T", kind, argIDs, raw)
		}
		for i, v := range arr {
			s, ok := v.(ir.IRString)
			if !ok {
				return Op{}, nil, fmt.Errorf("%s: %s[%d]: expected string, got %T", kind, argIDs, i, v)
			}
			ids = append(ids, ir.BlockID(s))
		}
	}
	return op, ids, nil
}

func argInt(args ir.IRObject, key string) (int, error) {
	v, ok := args[key].(ir.IRInt)
	if !ok {
		return 0, fmt.Errorf("%q: expected int, got %T", key, args[key])
	}
	return int(v), nil
}

func argData(args ir.IRObject, key string) (ir.BlockData, error) {
	switch v := args[key].(type) {
	case nil, ir.IRNull:
		return nil, nil
	case ir.IRObject:
		return v, nil
	default:
		return nil, fmt.Errorf("%q: expected object or null, got %T", key, v)
	}
}

// ApplyOp applies op to f through ed. Returns the new form and, for add and
// split, the id of the inserted block. The op's At reference is resolved
// against f; the returned Op carries the resolved ID.
func ApplyOp(ed *blocks.Editor, f blocks.Form, op Op) (blocks.Form, Op, ir.BlockID, error) {
	if err := op.Validate(); err != nil {
		return blocks.Form{}, op, "", err
	}
	if op.ID == "" && op.At != nil {
		at := *op.At
		if at < 0 || at >= f.Len() {
			return blocks.Form{}, op, "", fmt.Errorf("%w: at %d (layout length %d)", blocks.ErrIndexOutOfRange, at, f.Len())
		}
		op.ID = f.Layout[at]
	}
	op.At = nil

	var (
		out   blocks.Form
		newID ir.BlockID
		err   error
	)
	switch op.Kind {
	case OpAdd:
		newID, out, err = ed.AddBlock(f, op.Type, op.Index)
	case OpDelete:
		out, err = ed.DeleteBlock(f, op.ID)
	case OpMove:
		out, err = ed.MoveBlock(f, op.From, op.To)
	case OpMutate:
		out, err = ed.MutateBlock(f, op.ID, op.Value)
	case OpChange:
		out, err = ed.ChangeBlock(f, op.ID, op.Value)
	case OpSplit:
		newID, out, err = ed.SplitBlock(f, op.ID, op.Value, op.Tail)
	case OpAddEmpty:
		out = ed.AddEmptyBlock(f)
	}
	if err != nil {
		return blocks.Form{}, op, "", fmt.Errorf("%s: %w", op.Kind, err)
	}
	return out, op, newID, nil
}

// OpSpec is the YAML form of an Op, as written in op scripts and scenario
// steps.
//
//	ops:
//	  - op: add
//	    type: image
//	    index: 0
//	  - op: mutate
//	    at: 0
//	    value: {"@type": image, url: /logo.png}
type OpSpec struct {
	Op    string         `yaml:"op"`
	ID    string         `yaml:"id,omitempty"`
	At    *int           `yaml:"at,omitempty"`
	Type  string         `yaml:"type,omitempty"`
	Index *int           `yaml:"index,omitempty"`
	From  int            `yaml:"from,omitempty"`
	To    int            `yaml:"to,omitempty"`
	Value map[string]any `yaml:"value,omitempty"`
	Tail  map[string]any `yaml:"tail,omitempty"`
}

// ToOp converts the spec into an Op. A missing index appends.
func (s OpSpec) ToOp() (Op, error) {
	op := Op{
		Kind:  OpKind(s.Op),
		ID:    ir.BlockID(s.ID),
		At:    s.At,
		Type:  s.Type,
		Index: blocks.Append,
		From:  s.From,
		To:    s.To,
	}
	if s.Index != nil {
		op.Index = *s.Index
	}

	var err error
	if op.Value, err = ir.ObjectFromAny(s.Value); err != nil {
		return Op{}, fmt.Errorf("%s: value: %w", s.Op, err)
	}
	if op.Tail, err = ir.ObjectFromAny(s.Tail); err != nil {
		return Op{}, fmt.Errorf("%s: tail: %w", s.Op, err)
	}
	if err := op.Validate(); err != nil {
		return Op{}, err
	}
	return op, nil
}

// Script is an op script file.
type Script struct {
	Ops []OpSpec `yaml:"ops"`
}

// ParseOps decodes an op script. Unknown fields are rejected.
func ParseOps(data []byte) ([]Op, error) {
	var script Script
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&script); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse op script: %w", err)
	}

	ops := make([]Op, 0, len(script.Ops))
	for i, spec := range script.Ops {
		op, err := spec.ToOp()
		if err != nil {
			return nil, fmt.Errorf("ops[%d]: %w", i, err)
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// LoadOps reads an op script from path.
func LoadOps(path string) ([]Op, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read op script: %w", err)
	}
	return ParseOps(data)
}
