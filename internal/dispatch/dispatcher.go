// Package dispatch interprets model output: it parses out the embedded
// command, executes the side effect, and feeds factual results back to the
// model for phrasing — a bounded loop, never open-ended recursion.
package dispatch

import (
	"context"
	"fmt"
	log "log/slog"
	"time"

	"bimo/internal/command"
	"bimo/internal/sched"
	"bimo/internal/state"
)

// Model resubmits follow-up prompts. brain.Session implements it.
type Model interface {
	Send(ctx context.Context, text string) (string, error)
}

// Speaker serializes spoken output. speech.Speaker implements it.
type Speaker interface {
	Say(text string)
}

// WeatherService answers weather requests. lookup.Weather implements it.
type WeatherService interface {
	Summary(ctx context.Context, city string) (string, error)
}

// Registrar accepts deferred tasks. sched.Scheduler implements it.
type Registrar interface {
	Schedule(t sched.Task)
}

// MaxRounds bounds the follow-up model calls one utterance may trigger, even
// when the model keeps answering with fresh command tags.
const MaxRounds = 3

type Dispatcher struct {
	model   Model
	speaker Speaker
	tasks   Registrar
	weather WeatherService
	rates   command.RateSource
	store   *state.Store
	now     func() time.Time
}

func New(model Model, speaker Speaker, tasks Registrar, weather WeatherService, rates command.RateSource, store *state.Store) *Dispatcher {
	return &Dispatcher{
		model:   model,
		speaker: speaker,
		tasks:   tasks,
		weather: weather,
		rates:   rates,
		store:   store,
		now:     time.Now,
	}
}

// Process handles one model reply end to end and clears the generating flag
// once it resolves to a spoken reply. Nothing here is fatal: every failure
// path ends in a canned utterance.
func (d *Dispatcher) Process(ctx context.Context, reply string) {
	defer d.store.SetGenerating(false)

	text := reply
	for round := 0; ; round++ {
		res := command.Parse(text)

		if res.Command == nil {
			// Plain conversational reply.
			if res.EmotionSet {
				d.store.SetEmotion(res.Emotion)
			}
			if res.Speech != "" {
				d.speaker.Say(res.Speech)
			}
			return
		}

		cmd := res.Command
		log.Info("command", "kind", cmd.Kind, "round", round)

		switch cmd.Kind {
		case command.KindTimer, command.KindAlarm, command.KindReminder:
			d.schedule(cmd)
			return
		case command.KindSearch:
			// Web search is a stub: speak it directly, no model round-trip.
			d.speaker.Say(fmt.Sprintf("Necesitaría una API de búsqueda para '%s'.", cmd.Query))
			return
		}

		followUp, fallback, ok := d.resolve(ctx, cmd)
		if !ok {
			d.speaker.Say(fallback)
			return
		}

		if round >= MaxRounds {
			// The model keeps emitting commands; stop here with the fact we
			// already have instead of another round-trip.
			log.Warn("follow-up bound reached", "kind", cmd.Kind)
			d.speaker.Say(fallback)
			return
		}

		next, err := d.model.Send(ctx, followUp)
		if err != nil {
			// Never retry the model from the failure path.
			log.Error("follow-up failed", "kind", cmd.Kind, "err", err)
			d.speaker.Say(fallback)
			return
		}
		text = next
	}
}

// resolve computes the factual answer for a synchronous command. It returns
// the follow-up prompt, the canned fallback utterance, and whether the lookup
// succeeded.
func (d *Dispatcher) resolve(ctx context.Context, cmd *command.Command) (followUp, fallback string, ok bool) {
	switch cmd.Kind {
	case command.KindTime:
		hora := clockTime(d.now())
		return fmt.Sprintf("La hora es %s. Dila amigable.", hora),
			fmt.Sprintf("Son las %s", hora), true

	case command.KindDate:
		fecha := clockDate(d.now())
		return fmt.Sprintf("La fecha es %s. Dila amigable.", fecha),
			fmt.Sprintf("Hoy es %s", fecha), true

	case command.KindWeather:
		info, err := d.weather.Summary(ctx, cmd.City)
		if err != nil {
			log.Error("weather lookup failed", "city", cmd.City, "err", err)
			return "", "Mis sensores fallaron.", false
		}
		return fmt.Sprintf("Clima: %s Explícalo divertido.", info), info, true

	case command.KindCalc:
		v, err := command.Eval(cmd.Expr)
		if err != nil {
			log.Warn("calc failed", "expr", cmd.Expr, "err", err)
			return "", "No pude calcular eso", false
		}
		result := command.FormatNumber(v)
		return fmt.Sprintf("El resultado de %s es %s.", cmd.Expr, result),
			fmt.Sprintf("El resultado es %s", result), true

	case command.KindConvert:
		v, err := command.Convert(ctx, cmd.Qty, cmd.From, cmd.To, d.rates)
		if err != nil {
			log.Warn("conversion failed", "from", cmd.From, "to", cmd.To, "err", err)
			return "", "No pude hacer esa conversión", false
		}
		return fmt.Sprintf("%s %s = %.2f %s.", command.FormatNumber(cmd.Qty), cmd.From, v, cmd.To),
			fmt.Sprintf("%s %s son %.2f %s", command.FormatNumber(cmd.Qty), cmd.From, v, cmd.To), true
	}

	return "", "No entendí esa orden", false
}

// schedule registers a deferred task and speaks a short acknowledgement. No
// recursion, no waiting for completion.
func (d *Dispatcher) schedule(cmd *command.Command) {
	switch cmd.Kind {
	case command.KindTimer:
		d.tasks.Schedule(sched.Task{
			Kind:    sched.Timer,
			After:   time.Duration(cmd.Seconds) * time.Second,
			Message: cmd.Message,
		})
		if cmd.Seconds >= 60 {
			d.speaker.Say(fmt.Sprintf("Te avisaré en %d minutos", cmd.Seconds/60))
		} else {
			d.speaker.Say(fmt.Sprintf("Te avisaré en %d segundos", cmd.Seconds))
		}

	case command.KindAlarm:
		d.tasks.Schedule(sched.Task{
			Kind:    sched.Alarm,
			ClockHM: cmd.ClockHM,
			Message: cmd.Message,
		})
		d.speaker.Say(fmt.Sprintf("Alarma a las %s", cmd.ClockHM))

	case command.KindReminder:
		d.tasks.Schedule(sched.Task{
			Kind:    sched.Reminder,
			After:   time.Duration(cmd.Minutes) * time.Minute,
			Message: cmd.Message,
		})
		d.speaker.Say(fmt.Sprintf("Te lo recordaré en %d minutos", cmd.Minutes))
	}
}
