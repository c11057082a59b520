package state

import (
	"sync"
	"time"
)

// Emotion is the expressive state shown by the renderer. The wire form is the
// uppercase Spanish tag the model emits, e.g. [FELIZ].
type Emotion string

const (
	Neutral   Emotion = "NEUTRO"
	Happy     Emotion = "FELIZ"
	Sad       Emotion = "TRISTE"
	Angry     Emotion = "ENOJADO"
	Surprised Emotion = "SORPRENDIDO"
	Doubtful  Emotion = "DUDOSO"
	Love      Emotion = "AMOR"
	Listening Emotion = "ESCUCHANDO"
	Thinking  Emotion = "PENSANDO"
	Excited   Emotion = "EMOCIONADO"
	Tired     Emotion = "CANSADO"
)

var vocabulary = map[Emotion]bool{
	Neutral: true, Happy: true, Sad: true, Angry: true,
	Surprised: true, Doubtful: true, Love: true, Listening: true,
	Thinking: true, Excited: true, Tired: true,
}

// Known reports whether tag is part of the emotion vocabulary.
func Known(tag string) bool {
	return vocabulary[Emotion(tag)]
}

// Snapshot is the read-only view the renderer polls every tick.
type Snapshot struct {
	Emotion       Emotion `json:"emotion"`
	Speaking      bool    `json:"speaking"`
	AwaitingOrder bool    `json:"awaiting_order"`
	Generating    bool    `json:"generating"`
}

// Store owns the shared conversational state: the current emotion plus the
// speaking/awaiting/generating flags. Every actor goes through it; nobody
// touches the fields directly.
type Store struct {
	mu         sync.Mutex
	emotion    Emotion
	speaking   bool
	awaiting   bool
	generating bool

	decayDelay time.Duration
	decayGen   uint64
	decayTimer *time.Timer
}

const DefaultDecay = 3 * time.Second

func NewStore(decay time.Duration) *Store {
	if decay <= 0 {
		decay = DefaultDecay
	}
	return &Store{
		emotion:    Neutral,
		decayDelay: decay,
	}
}

// SetEmotion sets the current emotion and rearms the decay back to Neutral.
// A newer transition supersedes any pending decay: the decay only fires if no
// SetEmotion happened after the one that armed it.
func (s *Store) SetEmotion(e Emotion) {
	if !vocabulary[e] {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.emotion = e
	s.decayGen++
	gen := s.decayGen

	if s.decayTimer != nil {
		s.decayTimer.Stop()
	}
	s.decayTimer = time.AfterFunc(s.decayDelay, func() {
		s.decay(gen)
	})
}

func (s *Store) decay(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.decayGen {
		return // superseded by a newer transition
	}
	s.emotion = Neutral
}

func (s *Store) Emotion() Emotion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.emotion
}

func (s *Store) SetSpeaking(v bool) {
	s.mu.Lock()
	s.speaking = v
	s.mu.Unlock()
}

func (s *Store) Speaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speaking
}

func (s *Store) SetAwaitingOrder(v bool) {
	s.mu.Lock()
	s.awaiting = v
	s.mu.Unlock()
}

func (s *Store) AwaitingOrder() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.awaiting
}

func (s *Store) SetGenerating(v bool) {
	s.mu.Lock()
	s.generating = v
	s.mu.Unlock()
}

func (s *Store) Generating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generating
}

// Snapshot returns a consistent copy of all renderer-visible state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Emotion:       s.emotion,
		Speaking:      s.speaking,
		AwaitingOrder: s.awaiting,
		Generating:    s.generating,
	}
}
