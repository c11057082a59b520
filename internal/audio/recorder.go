// Package audio captures microphone input as 16 kHz mono PCM, endpointed by
// a simple RMS gate.
package audio

import (
	"math"
	"time"

	"github.com/gordonklaus/portaudio"
)

type Recorder struct{}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

// Record listens for one utterance. It waits up to maxWait for speech to
// start; the returned slice is empty when nothing above the RMS gate was
// heard in that window. Once speech starts, recording ends after 600ms of
// trailing silence or at the phrase limit.
func (r *Recorder) Record(maxWait time.Duration) ([]float32, error) {
	const (
		sampleRate       = 16000
		frameSize        = 320 // 20ms
		frameMs          = 20
		silenceThreshRMS = 0.015
		silenceMs        = 600
		phraseLimitSec   = 7
	)

	buf := make([]float32, frameSize)
	out := make([]float32, 0, sampleRate*3)

	stream, err := portaudio.OpenDefaultStream(1, 0, sampleRate, len(buf), buf)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, err
	}
	defer stream.Stop()

	var (
		speaking      bool
		silenceFrames int
		waited        time.Duration
	)

	maxPhraseFrames := phraseLimitSec * sampleRate / frameSize
	phraseFrames := 0

	for speaking || waited < maxWait {
		if speaking {
			phraseFrames++
			if phraseFrames >= maxPhraseFrames {
				break
			}
		}

		if err := stream.Read(); err != nil {
			return nil, err
		}

		if frameRMS(buf) > silenceThreshRMS {
			speaking = true
			silenceFrames = 0
			out = append(out, buf...)
			continue
		}

		if !speaking {
			waited += frameMs * time.Millisecond
			continue
		}

		silenceFrames++
		if silenceFrames*frameMs >= silenceMs {
			break
		}
		out = append(out, buf...)
	}

	return out, nil
}

func frameRMS(f []float32) float64 {
	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}
