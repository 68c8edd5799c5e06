// Package sensor combines digital and analog reads into one input snapshot.
package sensor

import (
	"fmt"

	"github.com/sweeney/aux-lights/internal/adc"
	"github.com/sweeney/aux-lights/internal/gpio"
	"github.com/sweeney/aux-lights/internal/logic"
)

// Sampler reads every input once per iteration.
type Sampler struct {
	Inputs    gpio.Inputs
	Converter adc.Converter

	// Samples is the oversampling count; zero means adc.Samples.
	Samples int
}

// Sample reads the digital pins, then oversamples the analog channels.
func (s *Sampler) Sample() (logic.Snapshot, error) {
	lv, err := s.Inputs.Read()
	if err != nil {
		return logic.Snapshot{}, fmt.Errorf("read pins: %w", err)
	}

	n := s.Samples
	if n == 0 {
		n = adc.Samples
	}
	a, err := adc.Oversample(s.Converter, n)
	if err != nil {
		return logic.Snapshot{}, fmt.Errorf("read analog: %w", err)
	}

	return FromLevels(lv, a), nil
}

// FromLevels builds a snapshot from pin levels and analog readings.
func FromLevels(lv gpio.Levels, a logic.Analog) logic.Snapshot {
	return logic.Snapshot{
		DoorClosed:   lv.DoorClosed,
		Ignition:     lv.Ignition,
		ReadingLight: lv.ReadingLight,
		Switches: logic.Switches{
			InteriorA: lv.InteriorA,
			InteriorB: lv.InteriorB,
			ExteriorA: lv.ExteriorA,
			ExteriorB: lv.ExteriorB,
		},
		Analog: a,
	}
}
