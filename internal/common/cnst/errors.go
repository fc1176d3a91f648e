package cnst

import "errors"

var (
	// ErrSessionNotFound is returned when a session id does not name a live session
	ErrSessionNotFound = errors.New("session not found")
	// ErrIDSpaceExhausted is returned when no free session id could be drawn
	ErrIDSpaceExhausted = errors.New("session id space exhausted")
	// ErrMalformedPayload is returned when an inbound frame misses a required field
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrUnknownEvent is returned when an inbound frame names an unsupported event
	ErrUnknownEvent = errors.New("unknown event")
	// ErrConnectionNotFound is returned when a connection id is not registered with the transport
	ErrConnectionNotFound = errors.New("connection not found")
	// ErrQueueFull is returned when a connection's outbound queue cannot take another frame
	ErrQueueFull = errors.New("outbound queue is full")
	// ErrHubClosed is returned when the transport no longer accepts connections
	ErrHubClosed = errors.New("hub is closed")
)
