//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

const consumer = "aux-lights"

// RealInputs reads inputs from actual hardware using the Linux GPIO character device.
type RealInputs struct {
	chip  *gpiocdev.Chip
	lines []*gpiocdev.Line

	door, ignition, reading *gpiocdev.Line
	intA, intB, extA, extB  *gpiocdev.Line
}

// NewRealInputs requests every input line of pins.
func NewRealInputs(pins Pins) (*RealInputs, error) {
	chip, err := gpiocdev.NewChip(pins.Chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", pins.Chip, err)
	}

	r := &RealInputs{chip: chip}
	request := func(name string, l Line) (*gpiocdev.Line, error) {
		opts := []gpiocdev.LineReqOption{
			gpiocdev.AsInput,
			gpiocdev.WithPullDown,
			gpiocdev.WithConsumer(consumer),
		}
		if l.ActiveLow {
			opts = append(opts, gpiocdev.AsActiveLow)
		}
		line, err := chip.RequestLine(l.Offset, opts...)
		if err != nil {
			return nil, fmt.Errorf("request %s pin %d: %w", name, l.Offset, err)
		}
		r.lines = append(r.lines, line)
		return line, nil
	}

	specs := []struct {
		name string
		line Line
		dst  **gpiocdev.Line
	}{
		{"door", pins.DoorClosed, &r.door},
		{"ignition", pins.Ignition, &r.ignition},
		{"reading light", pins.ReadingLight, &r.reading},
		{"interior A", pins.InteriorA, &r.intA},
		{"interior B", pins.InteriorB, &r.intB},
		{"exterior A", pins.ExteriorA, &r.extA},
		{"exterior B", pins.ExteriorB, &r.extB},
	}
	for _, s := range specs {
		line, err := request(s.name, s.line)
		if err != nil {
			r.Close()
			return nil, err
		}
		*s.dst = line
	}

	return r, nil
}

// Read returns the logical level of every input line.
func (r *RealInputs) Read() (Levels, error) {
	var lv Levels
	reads := []struct {
		name string
		line *gpiocdev.Line
		dst  *bool
	}{
		{"door", r.door, &lv.DoorClosed},
		{"ignition", r.ignition, &lv.Ignition},
		{"reading light", r.reading, &lv.ReadingLight},
		{"interior A", r.intA, &lv.InteriorA},
		{"interior B", r.intB, &lv.InteriorB},
		{"exterior A", r.extA, &lv.ExteriorA},
		{"exterior B", r.extB, &lv.ExteriorB},
	}
	for _, rd := range reads {
		v, err := rd.line.Value()
		if err != nil {
			return Levels{}, fmt.Errorf("read %s pin: %w", rd.name, err)
		}
		*rd.dst = v == 1
	}
	return lv, nil
}

// Close releases GPIO resources.
func (r *RealInputs) Close() error {
	var errs []error
	for _, line := range r.lines {
		if err := line.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.lines = nil
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealOutputs drives the RGB and red warning outputs.
type RealOutputs struct {
	chip  *gpiocdev.Chip
	lines map[Output]*gpiocdev.Line
}

// NewRealOutputs requests the output lines of pins, initially off.
func NewRealOutputs(pins Pins) (*RealOutputs, error) {
	chip, err := gpiocdev.NewChip(pins.Chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", pins.Chip, err)
	}

	o := &RealOutputs{chip: chip, lines: make(map[Output]*gpiocdev.Line)}
	for name, l := range map[Output]Line{OutputRGB: pins.RGB, OutputRed: pins.Red} {
		opts := []gpiocdev.LineReqOption{
			gpiocdev.AsOutput(0),
			gpiocdev.WithConsumer(consumer),
		}
		if l.ActiveLow {
			opts = append(opts, gpiocdev.AsActiveLow)
		}
		line, err := chip.RequestLine(l.Offset, opts...)
		if err != nil {
			o.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", name, l.Offset, err)
		}
		o.lines[name] = line
	}
	return o, nil
}

// Set drives the line to its logical level.
func (o *RealOutputs) Set(name Output, on bool) error {
	line, ok := o.lines[name]
	if !ok {
		return fmt.Errorf("unknown output: %s", name)
	}
	val := 0
	if on {
		val = 1
	}
	if err := line.SetValue(val); err != nil {
		return fmt.Errorf("set %s=%v: %w", name, on, err)
	}
	return nil
}

// Close drives every output off and releases GPIO resources.
func (o *RealOutputs) Close() error {
	var errs []error
	for name, line := range o.lines {
		if err := line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("reset %s: %w", name, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}
	o.lines = nil
	if o.chip != nil {
		if err := o.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
