package cnst

// Tracer names used across the services
const (
	// TraceCore is the tracer name for the synchronization handler
	TraceCore = "cryptogrammer/core"
	// TraceReaper is the tracer name for the idle session sweep
	TraceReaper = "cryptogrammer/reaper"
)

// Common span names and prefixes
const (
	// SpanEventPrefix prefixes spans for handling inbound events
	SpanEventPrefix = "session.event."
	// SpanDisconnect represents handling a transport disconnect
	SpanDisconnect = "session.disconnect"
	// SpanReaperSweep represents one reaper tick
	SpanReaperSweep = "session.reaper.sweep"
)
