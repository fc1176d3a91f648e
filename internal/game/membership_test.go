package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMembership_Assign(t *testing.T) {
	m := NewMembership()

	prev, moved := m.Assign("c1", "A")
	assert.True(t, moved)
	assert.Empty(t, prev)

	// idempotent for the same session
	prev, moved = m.Assign("c1", "A")
	assert.False(t, moved)
	assert.Empty(t, prev)
	assert.Equal(t, []string{"c1"}, m.Members("A"))

	// migration detaches from the old session first
	prev, moved = m.Assign("c1", "B")
	assert.True(t, moved)
	assert.Equal(t, "A", prev)
	assert.Empty(t, m.Members("A"))
	assert.False(t, m.Referenced("A"))
	assert.Equal(t, []string{"c1"}, m.Members("B"))

	cur, ok := m.Current("c1")
	assert.True(t, ok)
	assert.Equal(t, "B", cur)
	assert.Equal(t, 1, m.Len())
}

func TestMembership_SingleMembership(t *testing.T) {
	m := NewMembership()
	sessions := []string{"A", "B", "C", "A", "C"}
	for _, s := range sessions {
		m.Assign("c1", s)
		m.Assign("c2", "A")
	}

	count := 0
	for _, s := range []string{"A", "B", "C"} {
		for _, c := range m.Members(s) {
			if c == "c1" {
				count++
			}
		}
	}
	assert.Equal(t, 1, count)
	cur, _ := m.Current("c1")
	assert.Equal(t, "C", cur)
}

func TestMembership_Detach(t *testing.T) {
	m := NewMembership()
	m.Assign("c1", "A")
	m.Assign("c2", "A")

	prev, ok := m.Detach("c1")
	assert.True(t, ok)
	assert.Equal(t, "A", prev)
	assert.Equal(t, []string{"c2"}, m.Members("A"))
	assert.True(t, m.Referenced("A"))

	_, ok = m.Detach("c1")
	assert.False(t, ok)
	_, ok = m.Current("c1")
	assert.False(t, ok)

	m.Detach("c2")
	assert.False(t, m.Referenced("A"))
	assert.Equal(t, 0, m.Len())
}

func TestMembership_MembersSorted(t *testing.T) {
	m := NewMembership()
	m.Assign("z", "A")
	m.Assign("a", "A")
	m.Assign("m", "A")
	assert.Equal(t, []string{"a", "m", "z"}, m.Members("A"))
	assert.Empty(t, m.Members("missing"))
}
