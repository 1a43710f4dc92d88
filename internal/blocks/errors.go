package blocks

import (
	"errors"
	"fmt"

	"github.com/roach88/blockdoc/internal/ir"
)

var (
	// ErrUnknownBlock is returned when an operation names an id that is not
	// in the layout.
	ErrUnknownBlock = errors.New("blocks: unknown block id")

	// ErrIndexOutOfRange is returned for layout positions outside the
	// document.
	ErrIndexOutOfRange = errors.New("blocks: index out of range")

	// ErrMissingBlocksField is returned when no document key names the block
	// data mapping.
	ErrMissingBlocksField = errors.New("blocks: blocks field not found")

	// ErrMissingLayoutField is returned when no document key names the
	// layout.
	ErrMissingLayoutField = errors.New("blocks: layout field not found")
)

func unknownBlock(id ir.BlockID) error {
	return fmt.Errorf("%w: %q", ErrUnknownBlock, id)
}

func indexOutOfRange(name string, index, length int) error {
	return fmt.Errorf("%w: %s %d (layout length %d)", ErrIndexOutOfRange, name, index, length)
}
