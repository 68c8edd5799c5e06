package pwm

import "sync"

// FakeChannel records every duty written.
type FakeChannel struct {
	mu     sync.Mutex
	duty   uint8
	writes []uint8

	// SetError, if set, will be returned by Set()
	SetError error

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeChannel creates a channel that starts off.
func NewFakeChannel() *FakeChannel {
	return &FakeChannel{duty: Off}
}

func (f *FakeChannel) Set(duty uint8) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SetError != nil {
		return f.SetError
	}
	f.duty = duty
	f.writes = append(f.writes, duty)
	return nil
}

func (f *FakeChannel) Duty() uint8 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.duty
}

// Writes returns a copy of every recorded duty.
func (f *FakeChannel) Writes() []uint8 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]uint8, len(f.writes))
	copy(out, f.writes)
	return out
}

// Reset clears the write log.
func (f *FakeChannel) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = nil
}

func (f *FakeChannel) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.duty = Off
	f.Closed = true
	return nil
}
