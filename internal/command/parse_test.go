package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bimo/internal/state"
)

func TestParse_Commands(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Command
	}{
		{"time", "Déjame ver [CMD_HORA]", Command{Kind: KindTime}},
		{"date", "[CMD_FECHA] un momento", Command{Kind: KindDate}},
		{"weather city", "[CMD_CLIMA:Colima]", Command{Kind: KindWeather, City: "Colima"}},
		{"weather auto", "ahora veo [CMD_CLIMA:AUTO]", Command{Kind: KindWeather, City: "AUTO"}},
		{"calc", "[CMD_CALC:2+2]", Command{Kind: KindCalc, Expr: "2+2"}},
		{"convert", "[CMD_CONVERT:10:km:mi]", Command{Kind: KindConvert, Qty: 10, From: "km", To: "mi"}},
		{"timer", "[CMD_TIMER:90:el té está listo]", Command{Kind: KindTimer, Seconds: 90, Message: "el té está listo"}},
		{"alarm", "[CMD_ALARMA:07:30:despierta]", Command{Kind: KindAlarm, ClockHM: "07:30", Message: "despierta"}},
		{"search", "[CMD_SEARCH:hora de aventura]", Command{Kind: KindSearch, Query: "hora de aventura"}},
		{"reminder", "[CMD_REMINDER:15:sacar el pan]", Command{Kind: KindReminder, Minutes: 15, Message: "sacar el pan"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Parse(tt.text)
			require.NotNil(t, res.Command)
			assert.Equal(t, tt.want, *res.Command)
		})
	}
}

func TestParse_PriorityOrder(t *testing.T) {
	// Time comes before Calc in the fixed priority order.
	res := Parse("[CMD_CALC:1+1] y también [CMD_HORA]")
	require.NotNil(t, res.Command)
	assert.Equal(t, KindTime, res.Command.Kind)
}

func TestParse_OnlyFirstCommandCounts(t *testing.T) {
	res := Parse("[CMD_CLIMA:Colima] y [CMD_CLIMA:Madrid]")
	require.NotNil(t, res.Command)
	assert.Equal(t, "Colima", res.Command.City)
}

func TestParse_MalformedNumbersFallThrough(t *testing.T) {
	// Non-numeric seconds discard the timer match; the search tag still wins.
	res := Parse("[CMD_TIMER:luego:avísame] [CMD_SEARCH:gatos]")
	require.NotNil(t, res.Command)
	assert.Equal(t, KindSearch, res.Command.Kind)

	// Nothing else matches: plain speech, no crash.
	res = Parse("[CMD_REMINDER:pronto:algo] hola")
	assert.Nil(t, res.Command)
	assert.Equal(t, "[CMD_REMINDER:pronto:algo] hola", res.Speech)
}

func TestParse_EmotionTag(t *testing.T) {
	res := Parse("[FELIZ] ¡Hola, quiero jugar!")
	assert.True(t, res.EmotionSet)
	assert.Equal(t, state.Happy, res.Emotion)
	assert.Equal(t, "¡Hola, quiero jugar!", res.Speech)
	assert.Nil(t, res.Command)
}

func TestParse_FirstEmotionWinsAllStripped(t *testing.T) {
	res := Parse("[TRISTE] lo siento [FELIZ] ya estoy mejor")
	assert.Equal(t, state.Sad, res.Emotion)
	assert.NotContains(t, res.Speech, "[")
	assert.Equal(t, "lo siento  ya estoy mejor", res.Speech)
}

func TestParse_UnknownUppercaseTagStrippedNotSet(t *testing.T) {
	res := Parse("[CONFUNDIDO] no sé qué decir")
	assert.False(t, res.EmotionSet)
	assert.Equal(t, "no sé qué decir", res.Speech)
}

func TestParse_CommandTagsNotMistakenForEmotions(t *testing.T) {
	res := Parse("[CMD_HORA]")
	require.NotNil(t, res.Command)
	assert.False(t, res.EmotionSet)
}

func TestParse_PlainSpeech(t *testing.T) {
	res := Parse("¡Qué divertido día!")
	assert.Nil(t, res.Command)
	assert.False(t, res.EmotionSet)
	assert.Equal(t, "¡Qué divertido día!", res.Speech)
}

func TestParse_EmotionAlongsideCommand(t *testing.T) {
	res := Parse("[PENSANDO] veamos [CMD_CALC:sqrt(16)]")
	require.NotNil(t, res.Command)
	assert.Equal(t, KindCalc, res.Command.Kind)
	assert.Equal(t, state.Thinking, res.Emotion)
}
