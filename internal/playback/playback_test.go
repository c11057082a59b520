package playback

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClip_Resample(t *testing.T) {
	c := Clip{Samples: []float32{0, 0.5, 1, 0.5}, Rate: 8000}

	up := c.Resample(16000)
	assert.Equal(t, 16000, up.Rate)
	assert.Equal(t, 8, len(up.Samples))

	same := c.Resample(8000)
	assert.Equal(t, c.Samples, same.Samples)
}

func TestClipStreamer(t *testing.T) {
	s := &clipStreamer{clip: Clip{Samples: []float32{0.25, -0.25, 1}, Rate: 44100}}

	buf := make([][2]float64, 2)
	n, ok := s.Stream(buf)
	assert.True(t, ok)
	assert.Equal(t, 2, n)
	assert.Equal(t, 0.25, buf[0][0])
	assert.Equal(t, buf[0][0], buf[0][1])

	n, ok = s.Stream(buf)
	assert.True(t, ok)
	assert.Equal(t, 1, n)

	n, ok = s.Stream(buf)
	assert.False(t, ok)
	assert.Zero(t, n)
}

func TestDownmixInterleaved(t *testing.T) {
	mono := downmixInterleaved([]float32{1, 0, 0.5, 0.5}, 2)
	assert.Equal(t, []float32{0.5, 0.5}, mono)
}
