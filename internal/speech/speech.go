// Package speech serializes every utterance the assistant makes. One mutex
// guards the audio channel: whoever asks to speak while another utterance is
// playing simply queues on it, regardless of which actor is asking.
package speech

import (
	"context"
	log "log/slog"
	"sync"
	"time"

	"bimo/internal/state"
)

// Synthesizer produces and plays one utterance, blocking until the audio
// finished. Implementations live in internal/tts.
type Synthesizer interface {
	Speak(ctx context.Context, text string) error
}

// Speaker is the single synchronized entry point for audio output.
type Speaker struct {
	mu      sync.Mutex
	synth   Synthesizer
	store   *state.Store
	timeout time.Duration
}

const DefaultTimeout = 30 * time.Second

func NewSpeaker(synth Synthesizer, store *state.Store, timeout time.Duration) *Speaker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Speaker{synth: synth, store: store, timeout: timeout}
}

// Say plays text after any in-flight utterance finishes. The speaking flag is
// true for the full synthesis+playback duration. Synthesis or playback
// failures skip this one utterance and are only logged.
func (s *Speaker) Say(text string) {
	if text == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.store.SetSpeaking(true)
	defer s.store.SetSpeaking(false)

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	log.Debug("speaking", "text", text)
	if err := s.synth.Speak(ctx, text); err != nil {
		log.Error("utterance skipped", "err", err)
	}
}
