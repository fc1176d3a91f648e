package protocol

import (
	"github.com/amoylab/cryptogrammer/internal/common/cnst"
	"github.com/amoylab/cryptogrammer/internal/game"
)

// Event is a validated inbound client event
type Event interface {
	EventName() string
}

type (
	// CreateSession asks for a fresh session
	CreateSession struct{}

	// JoinSession asks to become a member of an existing session
	JoinSession struct {
		ID string
	}

	// UpdateInputSentence replaces the puzzle text
	UpdateInputSentence struct {
		ID   string
		Text string
	}

	// UpdateColors replaces both display colors. A color missing from
	// the colors object is carried as JSON null.
	UpdateColors struct {
		ID        string
		OrigColor game.Color
		ModColor  game.Color
	}

	// UpdateModifications replaces the substitution list. Elements are
	// kept verbatim.
	UpdateModifications struct {
		ID   string
		List []game.Modification
	}
)

func (CreateSession) EventName() string       { return cnst.EventCreateSession }
func (JoinSession) EventName() string         { return cnst.EventJoinSession }
func (UpdateInputSentence) EventName() string { return cnst.EventUpdateInputSentence }
func (UpdateColors) EventName() string        { return cnst.EventUpdateColors }
func (UpdateModifications) EventName() string { return cnst.EventUpdateModifications }

// SessionJoined is the payload of the sessionJoined frame
type SessionJoined struct {
	ID      string       `json:"id"`
	Session game.Session `json:"session"`
}
