// Package command implements the embedded grammar the model uses to request
// side effects: bracketed command tags like [CMD_HORA] or [CMD_TIMER:30:té]
// mixed into free text, plus one optional emotion tag like [FELIZ].
package command

import "bimo/internal/state"

type Kind int

const (
	KindNone Kind = iota
	KindTime
	KindDate
	KindWeather
	KindCalc
	KindConvert
	KindTimer
	KindAlarm
	KindSearch
	KindReminder
)

func (k Kind) String() string {
	switch k {
	case KindTime:
		return "time"
	case KindDate:
		return "date"
	case KindWeather:
		return "weather"
	case KindCalc:
		return "calc"
	case KindConvert:
		return "convert"
	case KindTimer:
		return "timer"
	case KindAlarm:
		return "alarm"
	case KindSearch:
		return "search"
	case KindReminder:
		return "reminder"
	}
	return "none"
}

// Command is the single recognized command of a parse, at most one per text.
// Only the fields relevant to the Kind are set.
type Command struct {
	Kind Kind

	City    string  // weather; "AUTO" means geolocate
	Expr    string  // calc
	Qty     float64 // convert
	From    string  // convert
	To      string  // convert
	Seconds int     // timer
	ClockHM string  // alarm target "HH:MM"
	Minutes int     // reminder
	Message string  // timer/alarm/reminder
	Query   string  // search
}

// Result of parsing one block of model output.
type Result struct {
	Command    *Command      // nil when the text is plain speech
	Emotion    state.Emotion // valid only when EmotionSet
	EmotionSet bool
	Speech     string // text with all bracketed tags stripped
}
