package sensor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sweeney/aux-lights/internal/adc"
	"github.com/sweeney/aux-lights/internal/gpio"
	"github.com/sweeney/aux-lights/internal/logic"
)

func TestSample(t *testing.T) {
	in := gpio.NewFakeInputs(gpio.Levels{
		DoorClosed: true, ReadingLight: true, InteriorA: true, ExteriorB: true,
	})
	conv := adc.NewFakeConverter(map[adc.Channel]int{adc.PhotoLeft: 120, adc.DimmerTime: 500})
	s := &Sampler{Inputs: in, Converter: conv}

	snap, err := s.Sample()
	require.NoError(t, err)
	assert.True(t, snap.DoorClosed)
	assert.False(t, snap.Ignition)
	assert.True(t, snap.ReadingLight)
	assert.Equal(t, logic.Mode1, snap.Switches.InteriorMode())
	assert.Equal(t, logic.Mode2, snap.Switches.ExteriorMode())
	assert.Equal(t, 120, snap.Analog.PhotoLeft)
	assert.Equal(t, 500, snap.Analog.DimmerTime)
	assert.Len(t, conv.Calls, adc.Samples*len(adc.Channels))
}

func TestSampleCustomCount(t *testing.T) {
	conv := adc.NewFakeConverter(nil)
	s := &Sampler{Inputs: gpio.NewFakeInputs(gpio.Levels{}), Converter: conv, Samples: 4}

	_, err := s.Sample()
	require.NoError(t, err)
	assert.Len(t, conv.Calls, 4*len(adc.Channels))
}

func TestSamplePinError(t *testing.T) {
	in := gpio.NewFakeInputs(gpio.Levels{})
	in.ReadError = errors.New("chip gone")
	conv := adc.NewFakeConverter(nil)

	_, err := (&Sampler{Inputs: in, Converter: conv}).Sample()
	assert.ErrorContains(t, err, "read pins")
	assert.Empty(t, conv.Calls, "analog must not be sampled after a pin error")
}

func TestSampleAnalogError(t *testing.T) {
	conv := adc.NewFakeConverter(nil)
	conv.Err = errors.New("timeout")

	_, err := (&Sampler{Inputs: gpio.NewFakeInputs(gpio.Levels{}), Converter: conv}).Sample()
	assert.ErrorContains(t, err, "read analog")
}
