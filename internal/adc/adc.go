// Package adc reads the analog channels and oversamples them.
package adc

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sweeney/aux-lights/internal/logic"
)

// Channel is an analog input index on the converter.
type Channel int

const (
	PhotoLeft Channel = iota
	PhotoRight
	SensLeft
	SensRight
	DimmerTime
)

// Channels lists every channel in sampling order.
var Channels = []Channel{PhotoLeft, PhotoRight, SensLeft, SensRight, DimmerTime}

func (c Channel) String() string {
	switch c {
	case PhotoLeft:
		return "photo-left"
	case PhotoRight:
		return "photo-right"
	case SensLeft:
		return "sens-left"
	case SensRight:
		return "sens-right"
	case DimmerTime:
		return "dimmer-time"
	}
	return fmt.Sprintf("channel-%d", int(c))
}

// Samples is the number of conversions averaged per channel.
const Samples = 20

// MaxValue is the full-scale 10-bit reading.
const MaxValue = 1023

// Converter performs a single conversion on a channel.
type Converter interface {
	Convert(ch Channel) (int, error)
}

// Oversample takes n rounds of conversions across every channel and returns
// the truncated mean per channel. Rounds are interleaved so each channel is
// sampled once per round.
func Oversample(c Converter, n int) (logic.Analog, error) {
	if n <= 0 {
		n = 1
	}
	sums := make([]int, len(Channels))
	for round := 0; round < n; round++ {
		for i, ch := range Channels {
			v, err := c.Convert(ch)
			if err != nil {
				return logic.Analog{}, fmt.Errorf("convert %s: %w", ch, err)
			}
			sums[i] += v
		}
	}
	return logic.Analog{
		PhotoLeft:  sums[PhotoLeft] / n,
		PhotoRight: sums[PhotoRight] / n,
		SensLeft:   sums[SensLeft] / n,
		SensRight:  sums[SensRight] / n,
		DimmerTime: sums[DimmerTime] / n,
	}, nil
}

// IIOConverter reads raw values from a Linux IIO ADC through sysfs.
type IIOConverter struct {
	// Root defaults to /sys/bus/iio/devices.
	Root   string
	Device string
	// Bits is the converter resolution; readings are scaled to 10 bits.
	Bits int
}

// NewIIOConverter returns a converter for device (e.g. "iio:device0").
func NewIIOConverter(device string, bits int) *IIOConverter {
	return &IIOConverter{Root: "/sys/bus/iio/devices", Device: device, Bits: bits}
}

// Convert reads one raw value and scales it to 0..1023.
func (c *IIOConverter) Convert(ch Channel) (int, error) {
	path := filepath.Join(c.Root, c.Device, fmt.Sprintf("in_voltage%d_raw", int(ch)))
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed reading %s: %w", path, err)
	}
	raw, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("failed parsing ADC value %q: %w", data, err)
	}
	return Scale(raw, c.Bits), nil
}

// Scale converts a raw reading of the given resolution to 10 bits, clamped.
func Scale(raw, bits int) int {
	switch {
	case bits > 10:
		raw >>= bits - 10
	case bits > 0 && bits < 10:
		raw <<= 10 - bits
	}
	if raw < 0 {
		return 0
	}
	if raw > MaxValue {
		return MaxValue
	}
	return raw
}
