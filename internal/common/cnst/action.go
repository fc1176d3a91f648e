package cnst

// LifecycleAction represents a session lifecycle change published to the notifier
type LifecycleAction string

const (
	// ActionCreated is published when a session is created
	ActionCreated LifecycleAction = "created"
	// ActionJoined is published when a connection joins a session
	ActionJoined LifecycleAction = "joined"
	// ActionLeft is published when a connection leaves a session
	ActionLeft LifecycleAction = "left"
	// ActionDeleted is published when the reaper evicts a session
	ActionDeleted LifecycleAction = "deleted"
)

func (a LifecycleAction) String() string {
	return string(a)
}
