package ir

// Version constants for the document format and the editor.
const (
	// FormatVersion is the persisted document format version.
	FormatVersion = "1"

	// EditorVersion is the blockdoc editor version.
	EditorVersion = "0.1.0"
)
