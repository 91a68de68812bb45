package ir

// Version constants for the recorded trace format and engine.
const (
	// IRVersion is the trace record schema version.
	IRVersion = "1"

	// EngineVersion is the tickflow engine version.
	EngineVersion = "0.1.0"
)
