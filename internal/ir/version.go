package ir

// Version constants for the descriptor encoding.
const (
	// IRVersion is the descriptor encoding version.
	IRVersion = "1"

	// ToolVersion is the typeinfo tool version.
	ToolVersion = "0.1.0"
)
