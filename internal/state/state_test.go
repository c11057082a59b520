package state

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SetEmotion(t *testing.T) {
	s := NewStore(time.Hour)

	s.SetEmotion(Happy)
	assert.Equal(t, Happy, s.Emotion())

	s.SetEmotion(Angry)
	assert.Equal(t, Angry, s.Emotion())
}

func TestStore_UnknownEmotionIgnored(t *testing.T) {
	s := NewStore(time.Hour)
	s.SetEmotion(Happy)
	s.SetEmotion(Emotion("BANANA"))
	assert.Equal(t, Happy, s.Emotion())
}

func TestStore_DecayToNeutral(t *testing.T) {
	s := NewStore(20 * time.Millisecond)

	s.SetEmotion(Happy)
	require.Equal(t, Happy, s.Emotion())

	assert.Eventually(t, func() bool {
		return s.Emotion() == Neutral
	}, time.Second, 5*time.Millisecond)
}

func TestStore_NewTransitionSupersedesDecay(t *testing.T) {
	s := NewStore(50 * time.Millisecond)

	s.SetEmotion(Happy)
	time.Sleep(30 * time.Millisecond)
	s.SetEmotion(Sad)

	// The first decay deadline passes; Sad must survive it.
	time.Sleep(35 * time.Millisecond)
	assert.Equal(t, Sad, s.Emotion())

	// The last transition's own delay still resets to Neutral.
	assert.Eventually(t, func() bool {
		return s.Emotion() == Neutral
	}, time.Second, 5*time.Millisecond)
}

func TestStore_Flags(t *testing.T) {
	s := NewStore(0)

	assert.False(t, s.Speaking())
	s.SetSpeaking(true)
	assert.True(t, s.Speaking())

	s.SetAwaitingOrder(true)
	s.SetGenerating(true)

	snap := s.Snapshot()
	assert.True(t, snap.Speaking)
	assert.True(t, snap.AwaitingOrder)
	assert.True(t, snap.Generating)
	assert.Equal(t, Neutral, snap.Emotion)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := NewStore(time.Millisecond)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.SetEmotion(Happy)
				s.SetSpeaking(n%2 == 0)
				_ = s.Snapshot()
			}
		}(i)
	}
	wg.Wait()
}
