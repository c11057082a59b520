// Package listen is the speech recognizer: microphone capture plus
// whisper.cpp transcription, with the three-way error contract the
// conversation loop depends on.
package listen

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTimeout: no speech was heard in the listening window. Benign.
	ErrTimeout = errors.New("listen: no speech")
	// ErrUnrecognized: speech was heard but could not be decoded. Benign.
	ErrUnrecognized = errors.New("listen: could not decode speech")
)

// Microphone captures one endpointed utterance as 16 kHz mono PCM. An empty
// slice means no speech started within maxWait.
type Microphone interface {
	Record(maxWait time.Duration) ([]float32, error)
}

type Recognizer struct {
	mic      Microphone
	tr       *Transcriber
	language string
	maxWait  time.Duration
}

func NewRecognizer(mic Microphone, tr *Transcriber, language string) *Recognizer {
	if language == "" {
		language = "es"
	}
	return &Recognizer{
		mic:      mic,
		tr:       tr,
		language: language,
		maxWait:  10 * time.Second,
	}
}

// Listen blocks for one utterance. Errors are exactly the recognizer
// taxonomy: ErrTimeout, ErrUnrecognized, or a wrapped backend error.
func (r *Recognizer) Listen(ctx context.Context) (string, error) {
	pcm, err := r.mic.Record(r.maxWait)
	if err != nil {
		return "", fmt.Errorf("record: %w", err)
	}
	if len(pcm) == 0 {
		return "", ErrTimeout
	}

	text, err := r.tr.Transcribe(ctx, pcm, r.language)
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	if text == "" {
		return "", ErrUnrecognized
	}
	return text, nil
}
