// Package harness runs edit scenarios against a blocks document.
//
// A scenario names a starting document, a list of edit steps and the
// assertions the final document must satisfy. Steps go through a real
// in-memory engine session, so scenarios exercise the same code path as
// the CLI.
//
// # Scenario Format
//
//	name: image_then_text
//	description: "Adding an image leaves a text placeholder behind it"
//	initial: empty            # or a JSON document path, relative to this file
//	ids: b                    # generated ids are b-1, b-2, ...
//	block_types:
//	  text: [text]
//	  image: [url]
//	steps:
//	  - op: add
//	    type: image
//	    index: 0
//	  - op: mutate
//	    at: 0
//	    value: {"@type": image, url: /logo.png}
//	  - op: delete
//	    id: missing
//	    expect_error: unknown_block
//	assertions:
//	  - type: layout_len
//	    count: 3
//	  - type: block_type
//	    index: 0
//	    block_type: image
//
// # Assertion Types
//
//   - layout_len: number of ids in the layout
//   - blocks_count: number of entries in the blocks mapping
//   - block_type: type tag of the block at index
//   - layout_equals: exact layout
//   - has_value: hasValue of the block at index
//
// # Deterministic Testing
//
// Ids come from testutil.SequenceGenerator, so a scenario always produces
// the same document. RunWithGolden snapshots the trace and the final
// document under testdata/golden.
package harness
