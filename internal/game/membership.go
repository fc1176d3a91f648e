package game

import "slices"

// Membership tracks which session each connection belongs to.
// A connection belongs to at most one session. Entries may point at
// sessions that no longer exist; the tracker never consults the store.
type Membership struct {
	current map[string]string
	members map[string]map[string]struct{}
}

// NewMembership creates an empty tracker
func NewMembership() *Membership {
	return &Membership{
		current: make(map[string]string),
		members: make(map[string]map[string]struct{}),
	}
}

// Assign places conn in sessionID. It returns the session conn left, if
// any, and whether a move happened. Assigning the current session again
// is a no-op.
func (m *Membership) Assign(connID, sessionID string) (previous string, moved bool) {
	prev, ok := m.current[connID]
	if ok && prev == sessionID {
		return "", false
	}
	if ok {
		m.remove(connID, prev)
	}
	m.current[connID] = sessionID
	set, ok := m.members[sessionID]
	if !ok {
		set = make(map[string]struct{})
		m.members[sessionID] = set
	}
	set[connID] = struct{}{}
	return prev, true
}

// Detach forgets conn and returns the session it was in
func (m *Membership) Detach(connID string) (string, bool) {
	prev, ok := m.current[connID]
	if !ok {
		return "", false
	}
	delete(m.current, connID)
	m.remove(connID, prev)
	return prev, true
}

// Current returns the session conn belongs to
func (m *Membership) Current(connID string) (string, bool) {
	id, ok := m.current[connID]
	return id, ok
}

// Members returns the connections tracked in sessionID, sorted
func (m *Membership) Members(sessionID string) []string {
	set := m.members[sessionID]
	out := make([]string, 0, len(set))
	for conn := range set {
		out = append(out, conn)
	}
	slices.Sort(out)
	return out
}

// Referenced reports whether any connection still points at sessionID
func (m *Membership) Referenced(sessionID string) bool {
	return len(m.members[sessionID]) > 0
}

// Len returns the number of tracked connections
func (m *Membership) Len() int {
	return len(m.current)
}

func (m *Membership) remove(connID, sessionID string) {
	set := m.members[sessionID]
	delete(set, connID)
	if len(set) == 0 {
		delete(m.members, sessionID)
	}
}
