package core

import (
	"net"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// sentFrame is one frame delivered by fakeTransport
type sentFrame struct {
	conn    string
	event   string
	payload any
}

// fakeTransport records every frame per connection and keeps groups in
// memory
type fakeTransport struct {
	mu     sync.Mutex
	groups map[string]map[string]bool
	frames []sentFrame
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{groups: map[string]map[string]bool{}}
}

func (f *fakeTransport) SendTo(connID, event string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, sentFrame{conn: connID, event: event, payload: payload})
	return nil
}

func (f *fakeTransport) SendToGroup(group, event string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	members := make([]string, 0, len(f.groups[group]))
	for c := range f.groups[group] {
		members = append(members, c)
	}
	slices.Sort(members)
	for _, c := range members {
		f.frames = append(f.frames, sentFrame{conn: c, event: event, payload: payload})
	}
	return nil
}

func (f *fakeTransport) Join(connID, group string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.groups[group] == nil {
		f.groups[group] = map[string]bool{}
	}
	f.groups[group][connID] = true
	return nil
}

func (f *fakeTransport) Leave(connID, group string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.groups[group], connID)
}

func (f *fakeTransport) DissolveGroup(group string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.groups, group)
}

func (f *fakeTransport) Members(group string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.groups[group]))
	for c := range f.groups[group] {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

// groupsOf lists every group conn belongs to
func (f *fakeTransport) groupsOf(conn string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for g, members := range f.groups {
		if members[conn] {
			out = append(out, g)
		}
	}
	slices.Sort(out)
	return out
}

// framesFor returns and forgets the frames delivered to conn
func (f *fakeTransport) framesFor(conn string) []sentFrame {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out, rest []sentFrame
	for _, fr := range f.frames {
		if fr.conn == conn {
			out = append(out, fr)
		} else {
			rest = append(rest, fr)
		}
	}
	f.frames = rest
	return out
}

func (f *fakeTransport) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = nil
}

func events(frames []sentFrame) []string {
	out := make([]string, 0, len(frames))
	for _, fr := range frames {
		out = append(out, fr.event)
	}
	return out
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}
