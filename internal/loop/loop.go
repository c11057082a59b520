// Package loop drives the listen → trigger detection → dispatch cycle and
// owns the awaiting-order sub-state.
package loop

import (
	"context"
	"errors"
	log "log/slog"
	"math/rand"
	"strings"
	"time"

	"bimo/internal/listen"
	"bimo/internal/state"
)

// Recognizer blocks for one utterance. listen.Recognizer implements it.
type Recognizer interface {
	Listen(ctx context.Context) (string, error)
}

// Model submits the user's order. brain.Session implements it.
type Model interface {
	Send(ctx context.Context, text string) (string, error)
}

// Processor interprets a model reply. dispatch.Dispatcher implements it.
type Processor interface {
	Process(ctx context.Context, reply string)
}

// Speaker serializes spoken output.
type Speaker interface {
	Say(text string)
}

// Wake phrases, including the usual misrecognitions of the name.
var DefaultTriggers = []string{"beemo", "bimo", "bmo", "vimos", "primo", "mimo", "vmos", "vimo"}

var activationReplies = []string{"¿Sí?", "¿Qué necesitas?", "Dime"}

const defaultBackoff = 2 * time.Second

type Config struct {
	Triggers []string
	Backoff  time.Duration // wait after a recognizer backend error
	Chime    func()        // optional wake acknowledgement sound
}

type Coordinator struct {
	rec     Recognizer
	model   Model
	disp    Processor
	speaker Speaker
	store   *state.Store

	triggers []string
	backoff  time.Duration
	chime    func()
}

func New(rec Recognizer, model Model, disp Processor, speaker Speaker, store *state.Store, cfg Config) *Coordinator {
	triggers := cfg.Triggers
	if len(triggers) == 0 {
		triggers = DefaultTriggers
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	return &Coordinator{
		rec:      rec,
		model:    model,
		disp:     disp,
		speaker:  speaker,
		store:    store,
		triggers: triggers,
		backoff:  backoff,
		chime:    cfg.Chime,
	}
}

// Run is the long-lived listen cycle. It only returns when ctx is cancelled.
func (c *Coordinator) Run(ctx context.Context) {
	log.Info("conversation loop started", "trigger", c.triggers[0])

	for ctx.Err() == nil {
		text, err := c.rec.Listen(ctx)
		switch {
		case errors.Is(err, context.Canceled):
			return

		case errors.Is(err, listen.ErrTimeout):
			continue

		case errors.Is(err, listen.ErrUnrecognized):
			if c.store.AwaitingOrder() {
				c.speaker.Say("No te escuché bien")
				c.store.SetAwaitingOrder(false)
			}
			continue

		case err != nil:
			log.Error("recognizer backend error", "err", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.backoff):
			}
			continue
		}

		text = strings.ToLower(strings.TrimSpace(text))
		log.Info("heard", "text", text)

		order := ""
		if c.hasTrigger(text) {
			order = strings.TrimSpace(c.stripTriggers(text))
			if order == "" {
				c.Activate()
				continue
			}
			c.store.SetAwaitingOrder(false)
		} else if c.store.AwaitingOrder() {
			// Whatever comes next is the order, trigger word or not.
			order = text
			c.store.SetAwaitingOrder(false)
		}

		if order == "" {
			continue
		}
		c.process(ctx, order)
	}
}

// Activate enters the awaiting-order sub-state as if a bare wake word was
// heard. Also reachable through the control socket.
func (c *Coordinator) Activate() {
	c.store.SetAwaitingOrder(true)
	c.store.SetEmotion(state.Surprised)
	if c.chime != nil {
		c.chime()
	}
	c.speaker.Say(activationReplies[rand.Intn(len(activationReplies))])
	c.store.SetEmotion(state.Listening)
}

func (c *Coordinator) process(ctx context.Context, order string) {
	log.Info("processing order", "order", order)
	c.store.SetEmotion(state.Thinking)
	c.store.SetGenerating(true)

	reply, err := c.model.Send(ctx, order)
	if err != nil {
		log.Error("model call failed", "err", err)
		c.store.SetGenerating(false)
		c.store.SetEmotion(state.Sad)
		c.speaker.Say("Tuve un problema procesando eso")
		c.store.SetEmotion(state.Neutral)
		return
	}

	c.disp.Process(ctx, reply)
}

func (c *Coordinator) hasTrigger(text string) bool {
	for _, t := range c.triggers {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

func (c *Coordinator) stripTriggers(text string) string {
	for _, t := range c.triggers {
		text = strings.ReplaceAll(text, t, "")
	}
	return text
}
