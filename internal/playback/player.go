package playback

import (
	"fmt"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
)

// Player owns the single speaker device. The device is initialized once at a
// fixed rate; clips at other rates are resampled before playback.
type Player struct {
	rate beep.SampleRate

	initOnce sync.Once
	initErr  error
}

func NewPlayer(sampleRate int) *Player {
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	return &Player{rate: beep.SampleRate(sampleRate)}
}

// Play blocks until the clip finished playing.
func (p *Player) Play(clip Clip) error {
	if clip.Empty() {
		return nil
	}

	p.initOnce.Do(func() {
		p.initErr = speaker.Init(p.rate, p.rate.N(time.Second/10))
	})
	if p.initErr != nil {
		return fmt.Errorf("speaker init: %w", p.initErr)
	}

	clip = clip.Resample(int(p.rate))

	done := make(chan struct{})
	speaker.Play(beep.Seq(&clipStreamer{clip: clip}, beep.Callback(func() {
		close(done)
	})))
	<-done
	return nil
}

// clipStreamer adapts mono PCM to beep's two-channel stream.
type clipStreamer struct {
	clip Clip
	pos  int
}

func (s *clipStreamer) Stream(samples [][2]float64) (int, bool) {
	if s.pos >= len(s.clip.Samples) {
		return 0, false
	}
	n := 0
	for i := range samples {
		if s.pos >= len(s.clip.Samples) {
			break
		}
		v := float64(s.clip.Samples[s.pos])
		samples[i][0] = v
		samples[i][1] = v
		s.pos++
		n++
	}
	return n, true
}

func (s *clipStreamer) Err() error { return nil }
