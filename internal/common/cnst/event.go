package cnst

// Inbound event names
const (
	EventCreateSession       = "createSession"
	EventJoinSession         = "joinSession"
	EventUpdateInputSentence = "updateInputSentence"
	EventUpdateColors        = "updateColors"
	EventUpdateModifications = "updateModifications"
)

// Outbound event names
const (
	EventConnected      = "connected"
	EventSessionCreated = "sessionCreated"
	EventSessionState   = "sessionState"
	EventSessionJoined  = "sessionJoined"
	EventMemberLeft     = "memberLeft"
	EventSessionDeleted = "sessionDeleted"
	EventError          = "error"
)

// Error codes carried by EventError
const (
	ErrorCodeSessionNotFound = "sessionNotFound"
)
