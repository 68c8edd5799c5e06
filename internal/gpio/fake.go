package gpio

import (
	"errors"
	"sync"
)

// FakeInputs is a test double that returns scripted input levels.
type FakeInputs struct {
	// Samples contains scripted levels to return.
	// Each call to Read() consumes the next sample.
	Samples []Levels

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeInputs creates a FakeInputs with the given samples.
func NewFakeInputs(samples ...Levels) *FakeInputs {
	return &FakeInputs{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeInputs) Read() (Levels, error) {
	if f.ReadError != nil {
		return Levels{}, f.ReadError
	}

	if len(f.Samples) == 0 {
		return Levels{}, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return sample, nil
}

// Close marks the inputs as closed.
func (f *FakeInputs) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds to the first sample.
func (f *FakeInputs) Reset() {
	f.index = 0
	f.Closed = false
}

// Write is one recorded output change.
type Write struct {
	Line Output
	On   bool
}

// FakeOutputs records every Set call.
type FakeOutputs struct {
	mu     sync.Mutex
	writes []Write
	levels map[Output]bool

	// SetError, if set, will be returned by Set()
	SetError error

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeOutputs creates an empty FakeOutputs.
func NewFakeOutputs() *FakeOutputs {
	return &FakeOutputs{levels: make(map[Output]bool)}
}

// Set records the write and the resulting level.
func (f *FakeOutputs) Set(line Output, on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SetError != nil {
		return f.SetError
	}
	f.writes = append(f.writes, Write{Line: line, On: on})
	f.levels[line] = on
	return nil
}

// Level returns the last level written to line.
func (f *FakeOutputs) Level(line Output) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.levels[line]
}

// Writes returns a copy of every recorded write.
func (f *FakeOutputs) Writes() []Write {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Write, len(f.writes))
	copy(out, f.writes)
	return out
}

// Close marks the outputs as closed.
func (f *FakeOutputs) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}
