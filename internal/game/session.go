package game

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// Defaults applied to every newly created session.
const (
	DefaultInputSentence = "THE QUICK BROWN FOX JUMPS OVER THE LAZY DOG"
	DefaultOrigColor     = "#FFA500"
	DefaultModColor      = "#008000"
	DefaultModification  = `{"originalChar":"","replacementChar":"","locked":false}`
)

type (
	// Modification is one character-substitution rule exactly as the
	// client sent it. Its shape is owned by clients.
	Modification = json.RawMessage

	// Color is a display color value exactly as the client sent it
	Color = json.RawMessage
)

// Session is the shared document observed by every member of a room.
// LastActivity is server bookkeeping and is not part of the wire form.
type Session struct {
	ID            string         `json:"id"`
	InputSentence string         `json:"inputSentence"`
	Modifications []Modification `json:"modifications"`
	OrigColor     Color          `json:"origColor"`
	ModColor      Color          `json:"modColor"`
	LastActivity  time.Time      `json:"-"`
}

// StringColor returns the wire form of a string color
func StringColor(s string) Color {
	return Color(strconv.Quote(s))
}

func newSession(id string, now time.Time) *Session {
	return &Session{
		ID:            id,
		InputSentence: DefaultInputSentence,
		Modifications: []Modification{Modification(DefaultModification)},
		OrigColor:     StringColor(DefaultOrigColor),
		ModColor:      StringColor(DefaultModColor),
		LastActivity:  now,
	}
}

// Clone returns a deep copy
func (s *Session) Clone() Session {
	c := *s
	c.Modifications = cloneModifications(s.Modifications)
	c.OrigColor = bytes.Clone(s.OrigColor)
	c.ModColor = bytes.Clone(s.ModColor)
	return c
}

func cloneModifications(list []Modification) []Modification {
	out := make([]Modification, 0, len(list))
	for _, m := range list {
		out = append(out, bytes.Clone(m))
	}
	return out
}

// IdleFor reports how long the session has gone without activity
func (s *Session) IdleFor(now time.Time) time.Duration {
	return now.Sub(s.LastActivity)
}
