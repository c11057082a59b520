package command

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRates struct {
	rate float64
	err  error
}

func (f fakeRates) Rate(_ context.Context, from, to string) (float64, error) {
	return f.rate, f.err
}

func TestConvert_Temperature(t *testing.T) {
	ctx := context.Background()

	got, err := Convert(ctx, 0, "celsius", "fahrenheit", nil)
	require.NoError(t, err)
	assert.Equal(t, 32.0, got)

	got, err = Convert(ctx, 100, "c", "f", nil)
	require.NoError(t, err)
	assert.Equal(t, 212.0, got)

	got, err = Convert(ctx, 32, "F", "C", nil)
	require.NoError(t, err)
	assert.InDelta(t, 0, got, 1e-9)
}

func TestConvert_Units(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		qty      float64
		from, to string
		want     float64
	}{
		{10, "km", "mi", 6.21371},
		{1, "mi", "km", 1.60934},
		{2, "kg", "lb", 4.40924},
		{100, "cm", "in", 39.3701},
	}
	for _, tt := range tests {
		got, err := Convert(ctx, tt.qty, tt.from, tt.to, nil)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, 1e-4)
	}
}

func TestConvert_Currency(t *testing.T) {
	ctx := context.Background()

	got, err := Convert(ctx, 10, "USD", "MXN", fakeRates{rate: 17.5})
	require.NoError(t, err)
	assert.InDelta(t, 175, got, 1e-9)

	_, err = Convert(ctx, 10, "USD", "MXN", fakeRates{err: errors.New("down")})
	assert.Error(t, err)
}

func TestConvert_UnknownPair(t *testing.T) {
	_, err := Convert(context.Background(), 1, "furlongs", "parsecs", nil)
	assert.Error(t, err)
}
