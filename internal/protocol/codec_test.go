package protocol

import (
	"encoding/json"
	"testing"

	"github.com/amoylab/cryptogrammer/internal/common/cnst"
	"github.com/amoylab/cryptogrammer/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Valid(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want Event
	}{
		{"create", `{"event":"createSession"}`, CreateSession{}},
		{"create with ignored data", `{"event":"createSession","data":{"x":1}}`, CreateSession{}},
		{"join string", `{"event":"joinSession","data":"123456"}`, JoinSession{ID: "123456"}},
		{"join number", `{"event":"joinSession","data":42}`, JoinSession{ID: "42"}},
		{"join object", `{"event":"joinSession","data":{"id":"7"}}`, JoinSession{ID: "7"}},
		{"join legacy object", `{"event":"joinSession","data":{"gameId":8}}`, JoinSession{ID: "8"}},
		{
			"sentence",
			`{"event":"updateInputSentence","data":{"id":"1","text":"HELLO WORLD"}}`,
			UpdateInputSentence{ID: "1", Text: "HELLO WORLD"},
		},
		{
			"sentence empty text",
			`{"event":"updateInputSentence","data":{"id":1,"text":""}}`,
			UpdateInputSentence{ID: "1", Text: ""},
		},
		{
			"sentence legacy names",
			`{"event":"updateInputSentence","data":{"gameId":5,"newSentence":"ABC"}}`,
			UpdateInputSentence{ID: "5", Text: "ABC"},
		},
		{
			"colors",
			`{"event":"updateColors","data":{"id":"9","colors":{"origColor":"#000","modColor":"#fff"}}}`,
			UpdateColors{ID: "9", OrigColor: game.StringColor("#000"), ModColor: game.StringColor("#fff")},
		},
		{
			"modifications",
			`{"event":"updateModifications","data":{"id":"3","list":[{"originalChar":"A","replacementChar":"B","locked":true},{"originalChar":"C","replacementChar":"","locked":false}]}}`,
			UpdateModifications{ID: "3", List: []game.Modification{
				game.Modification(`{"originalChar":"A","replacementChar":"B","locked":true}`),
				game.Modification(`{"originalChar":"C","replacementChar":"","locked":false}`),
			}},
		},
		{
			"modifications empty",
			`{"event":"updateModifications","data":{"id":"3","list":[]}}`,
			UpdateModifications{ID: "3", List: []game.Modification{}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Decode([]byte(tc.raw))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.want.EventName(), got.EventName())
		})
	}
}

func TestDecode_PassesClientValuesThrough(t *testing.T) {
	t.Run("modification records keep unknown fields and loose types", func(t *testing.T) {
		raw := `{"event":"updateModifications","data":{"id":"1","list":[` +
			`{"originalChar":"A","replacementChar":"B","locked":false,"hint":"x"},` +
			`{"originalChar":"C","locked":0},"free text",null]}}`
		got, err := Decode([]byte(raw))
		require.NoError(t, err)

		mods := got.(UpdateModifications).List
		require.Len(t, mods, 4)
		assert.JSONEq(t, `{"originalChar":"A","replacementChar":"B","locked":false,"hint":"x"}`, string(mods[0]))
		assert.JSONEq(t, `{"originalChar":"C","locked":0}`, string(mods[1]))
		assert.JSONEq(t, `"free text"`, string(mods[2]))
		assert.JSONEq(t, `null`, string(mods[3]))
	})

	t.Run("colors of any JSON type", func(t *testing.T) {
		got, err := Decode([]byte(`{"event":"updateColors","data":{"id":"1","colors":{"origColor":{"r":255},"modColor":null}}}`))
		require.NoError(t, err)

		colors := got.(UpdateColors)
		assert.JSONEq(t, `{"r":255}`, string(colors.OrigColor))
		assert.JSONEq(t, `null`, string(colors.ModColor))
	})

	t.Run("missing color becomes null", func(t *testing.T) {
		got, err := Decode([]byte(`{"event":"updateColors","data":{"id":"1","colors":{"origColor":"#000"}}}`))
		require.NoError(t, err)

		colors := got.(UpdateColors)
		assert.Equal(t, game.StringColor("#000"), colors.OrigColor)
		assert.Nil(t, colors.ModColor)

		b, err := Encode(cnst.EventSessionState, game.Session{ID: "1", OrigColor: colors.OrigColor, ModColor: colors.ModColor, Modifications: []game.Modification{}})
		require.NoError(t, err)
		assert.JSONEq(t, `{"event":"sessionState","data":{"id":"1","inputSentence":"","modifications":[],"origColor":"#000","modColor":null}}`, string(b))
	})
}

func TestDecode_Malformed(t *testing.T) {
	cases := map[string]string{
		"not json":           `{"event":`,
		"array":              `["createSession"]`,
		"missing event":      `{"data":"1"}`,
		"event not string":   `{"event":5}`,
		"join no data":       `{"event":"joinSession"}`,
		"join bool":          `{"event":"joinSession","data":true}`,
		"join float":         `{"event":"joinSession","data":1.5}`,
		"join negative":      `{"event":"joinSession","data":-3}`,
		"join empty":         `{"event":"joinSession","data":""}`,
		"sentence no id":     `{"event":"updateInputSentence","data":{"text":"x"}}`,
		"sentence no text":   `{"event":"updateInputSentence","data":{"id":"1"}}`,
		"sentence text num":  `{"event":"updateInputSentence","data":{"id":"1","text":3}}`,
		"colors flat":        `{"event":"updateColors","data":{"id":"1","origColor":"#000","modColor":"#fff"}}`,
		"colors string":      `{"event":"updateColors","data":{"id":"1","colors":"#000"}}`,
		"colors no id":       `{"event":"updateColors","data":{"colors":{"origColor":"#000","modColor":"#fff"}}}`,
		"mods not array":     `{"event":"updateModifications","data":{"id":"1","list":{}}}`,
		"mods no id":         `{"event":"updateModifications","data":{"list":[]}}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(raw))
			require.Error(t, err)
			assert.ErrorIs(t, err, cnst.ErrMalformedPayload)
		})
	}
}

func TestDecode_UnknownEvent(t *testing.T) {
	_, err := Decode([]byte(`{"event":"deleteEverything"}`))
	assert.ErrorIs(t, err, cnst.ErrUnknownEvent)
	assert.NotErrorIs(t, err, cnst.ErrMalformedPayload)
}

func TestEncode(t *testing.T) {
	b, err := Encode(cnst.EventSessionDeleted, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"sessionDeleted"}`, string(b))

	b, err = Encode(cnst.EventSessionCreated, "123")
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"sessionCreated","data":"123"}`, string(b))

	sess := game.Session{
		ID:            "1",
		InputSentence: "ABC",
		Modifications: []game.Modification{game.Modification(game.DefaultModification)},
		OrigColor:     game.StringColor(game.DefaultOrigColor),
		ModColor:      game.StringColor(game.DefaultModColor),
	}
	b, err = Encode(cnst.EventSessionJoined, SessionJoined{ID: "1", Session: sess})
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"sessionJoined","data":{"id":"1","session":{
		"id":"1","inputSentence":"ABC",
		"modifications":[{"originalChar":"","replacementChar":"","locked":false}],
		"origColor":"#FFA500","modColor":"#008000"}}}`, string(b))

	_, err = Encode("bad", make(chan int))
	assert.Error(t, err)
}

func TestSessionStateRoundTrip(t *testing.T) {
	// a client echoing the state it received produces an equal session
	sess := game.Session{
		ID:            "5",
		InputSentence: "X",
		Modifications: []game.Modification{game.Modification(`{"originalChar":"A","replacementChar":"","locked":false}`)},
		OrigColor:     game.StringColor("a"),
		ModColor:      game.StringColor("b"),
	}
	b, err := Encode(cnst.EventSessionState, sess)
	require.NoError(t, err)

	var frame struct {
		Event string       `json:"event"`
		Data  game.Session `json:"data"`
	}
	require.NoError(t, json.Unmarshal(b, &frame))
	assert.Equal(t, sess, frame.Data)
}
