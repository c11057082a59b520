package command

import (
	"regexp"
	"strconv"
	"strings"

	"bimo/internal/state"
)

var (
	reTime     = regexp.MustCompile(`\[CMD_HORA\]`)
	reDate     = regexp.MustCompile(`\[CMD_FECHA\]`)
	reWeather  = regexp.MustCompile(`\[CMD_CLIMA:([^\]]*)\]`)
	reCalc     = regexp.MustCompile(`\[CMD_CALC:([^\]]*)\]`)
	reConvert  = regexp.MustCompile(`\[CMD_CONVERT:([^:\]]*):([^:\]]*):([^:\]]*)\]`)
	reTimer    = regexp.MustCompile(`\[CMD_TIMER:([^:\]]*):([^\]]*)\]`)
	reAlarm    = regexp.MustCompile(`\[CMD_ALARMA:(\d{1,2}:\d{2}):([^\]]*)\]`)
	reSearch   = regexp.MustCompile(`\[CMD_SEARCH:([^\]]*)\]`)
	reReminder = regexp.MustCompile(`\[CMD_REMINDER:([^:\]]*):([^\]]*)\]`)

	// Emotion tags are bare uppercase words in brackets. Command tags never
	// match this (they all contain an underscore).
	reEmotion = regexp.MustCompile(`\[([A-Z]+)\]`)
)

// Parse extracts at most one command and at most one emotion tag from a block
// of model output. Commands are tried in a fixed priority order and only the
// first match counts; later matches in the same text are ignored. A command
// with malformed numeric arguments is discarded and scanning continues with
// the lower-priority patterns, falling through to plain speech if nothing
// else matches.
func Parse(text string) Result {
	res := Result{Command: firstCommand(text)}

	if m := reEmotion.FindStringSubmatch(text); m != nil && state.Known(m[1]) {
		res.Emotion = state.Emotion(m[1])
		res.EmotionSet = true
	}

	// All bracketed uppercase tags are stripped from the spoken output even
	// when more than one appears; only the first known one set the emotion.
	res.Speech = strings.TrimSpace(reEmotion.ReplaceAllString(text, ""))
	return res
}

func firstCommand(text string) *Command {
	if reTime.MatchString(text) {
		return &Command{Kind: KindTime}
	}
	if reDate.MatchString(text) {
		return &Command{Kind: KindDate}
	}
	if m := reWeather.FindStringSubmatch(text); m != nil {
		return &Command{Kind: KindWeather, City: strings.TrimSpace(m[1])}
	}
	if m := reCalc.FindStringSubmatch(text); m != nil {
		return &Command{Kind: KindCalc, Expr: strings.TrimSpace(m[1])}
	}
	if m := reConvert.FindStringSubmatch(text); m != nil {
		if qty, err := strconv.ParseFloat(strings.TrimSpace(m[1]), 64); err == nil {
			return &Command{
				Kind: KindConvert,
				Qty:  qty,
				From: strings.TrimSpace(m[2]),
				To:   strings.TrimSpace(m[3]),
			}
		}
	}
	if m := reTimer.FindStringSubmatch(text); m != nil {
		if sec, err := strconv.Atoi(strings.TrimSpace(m[1])); err == nil && sec > 0 {
			return &Command{Kind: KindTimer, Seconds: sec, Message: strings.TrimSpace(m[2])}
		}
	}
	if m := reAlarm.FindStringSubmatch(text); m != nil {
		return &Command{Kind: KindAlarm, ClockHM: m[1], Message: strings.TrimSpace(m[2])}
	}
	if m := reSearch.FindStringSubmatch(text); m != nil {
		return &Command{Kind: KindSearch, Query: strings.TrimSpace(m[1])}
	}
	if m := reReminder.FindStringSubmatch(text); m != nil {
		if min, err := strconv.Atoi(strings.TrimSpace(m[1])); err == nil && min > 0 {
			return &Command{Kind: KindReminder, Minutes: min, Message: strings.TrimSpace(m[2])}
		}
	}
	return nil
}
