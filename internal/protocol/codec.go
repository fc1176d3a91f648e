package protocol

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/amoylab/cryptogrammer/internal/common/cnst"
	"github.com/amoylab/cryptogrammer/internal/game"
	"github.com/tidwall/gjson"
)

// Frame is the envelope for every message in both directions
type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Encode marshals an outbound frame
func Encode(event string, data any) ([]byte, error) {
	b, err := json.Marshal(Frame{Event: event, Data: data})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event, err)
	}
	return b, nil
}

// Field aliases accepted for clients still speaking the older game vocabulary
var (
	idPaths   = []string{"data.id", "data.gameId"}
	textPaths = []string{"data.text", "data.newSentence"}
	listPaths = []string{"data.list", "data.newModifications"}
)

// Decode validates a raw inbound frame and returns the typed event.
// Errors wrap cnst.ErrMalformedPayload or cnst.ErrUnknownEvent.
func Decode(raw []byte) (Event, error) {
	if !gjson.ValidBytes(raw) {
		return nil, malformed("invalid JSON")
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return nil, malformed("frame is not an object")
	}
	name := root.Get("event")
	if name.Type != gjson.String || name.Str == "" {
		return nil, malformed("missing event name")
	}

	switch name.Str {
	case cnst.EventCreateSession:
		return CreateSession{}, nil

	case cnst.EventJoinSession:
		// the id is the whole payload, optionally wrapped as {"id": ...}
		data := root.Get("data")
		if data.IsObject() {
			data = first(root, idPaths)
		}
		id, err := sessionID(data)
		if err != nil {
			return nil, err
		}
		return JoinSession{ID: id}, nil

	case cnst.EventUpdateInputSentence:
		id, err := sessionID(first(root, idPaths))
		if err != nil {
			return nil, err
		}
		text := first(root, textPaths)
		if text.Type != gjson.String {
			return nil, malformed("text must be a string")
		}
		return UpdateInputSentence{ID: id, Text: text.Str}, nil

	case cnst.EventUpdateColors:
		id, err := sessionID(first(root, idPaths))
		if err != nil {
			return nil, err
		}
		colors := root.Get("data.colors")
		if !colors.IsObject() {
			return nil, malformed("colors must be an object")
		}
		return UpdateColors{
			ID:        id,
			OrigColor: rawValue(colors.Get("origColor")),
			ModColor:  rawValue(colors.Get("modColor")),
		}, nil

	case cnst.EventUpdateModifications:
		id, err := sessionID(first(root, idPaths))
		if err != nil {
			return nil, err
		}
		list := first(root, listPaths)
		if !list.IsArray() {
			return nil, malformed("list must be an array")
		}
		mods := []game.Modification{}
		list.ForEach(func(_, v gjson.Result) bool {
			mods = append(mods, rawValue(v))
			return true
		})
		return UpdateModifications{ID: id, List: mods}, nil
	}

	return nil, fmt.Errorf("%w: %q", cnst.ErrUnknownEvent, name.Str)
}

// sessionID normalizes a JSON string or non-negative integer to the
// decimal string form used as the session key
func sessionID(v gjson.Result) (string, error) {
	switch v.Type {
	case gjson.String:
		if v.Str == "" {
			return "", malformed("empty session id")
		}
		return v.Str, nil
	case gjson.Number:
		n, err := strconv.ParseInt(v.Raw, 10, 64)
		if err != nil || n < 0 {
			return "", malformed("session id must be a non-negative integer")
		}
		return strconv.FormatInt(n, 10), nil
	}
	return "", malformed("missing session id")
}

// rawValue copies the JSON text of v, or returns nil (JSON null) when v
// is absent
func rawValue(v gjson.Result) json.RawMessage {
	if !v.Exists() || v.Raw == "" {
		return nil
	}
	return json.RawMessage(v.Raw)
}

func first(root gjson.Result, paths []string) gjson.Result {
	for _, p := range paths {
		if r := root.Get(p); r.Exists() {
			return r
		}
	}
	return gjson.Result{}
}

func malformed(reason string) error {
	return fmt.Errorf("%w: %s", cnst.ErrMalformedPayload, reason)
}
