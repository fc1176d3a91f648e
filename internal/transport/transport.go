package transport

import "context"

// Transport delivers frames to connections and rooms. Sends never block
// on a slow peer.
type Transport interface {
	// SendTo queues a frame for one connection
	SendTo(connID, event string, payload any) error
	// SendToGroup queues a frame for every connection in group
	SendToGroup(group, event string, payload any) error
	// Join adds a connection to group
	Join(connID, group string) error
	// Leave removes a connection from group
	Leave(connID, group string)
	// DissolveGroup forgets group and all its members
	DissolveGroup(group string)
	// Members lists the connections currently in group
	Members(group string) []string
}

// Dispatcher receives connection lifecycle callbacks and inbound frames
type Dispatcher interface {
	HandleConnect(ctx context.Context, connID string)
	HandleMessage(ctx context.Context, connID string, data []byte)
	HandleDisconnect(ctx context.Context, connID string)
}
