package adc

import "sync"

// FakeConverter returns fixed or scripted values per channel.
type FakeConverter struct {
	mu sync.Mutex

	// Values is returned when a channel has no script left.
	Values map[Channel]int

	// Script holds per-channel sequences consumed one value per conversion.
	Script map[Channel][]int

	// Err, if set, is returned by Convert.
	Err error

	// Calls records the channel order of every conversion.
	Calls []Channel
}

// NewFakeConverter creates a converter reporting a for every channel.
func NewFakeConverter(a map[Channel]int) *FakeConverter {
	return &FakeConverter{Values: a, Script: make(map[Channel][]int)}
}

// Convert returns the next scripted value or the fixed value for ch.
func (f *FakeConverter) Convert(ch Channel) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, ch)
	if f.Err != nil {
		return 0, f.Err
	}
	if seq := f.Script[ch]; len(seq) > 0 {
		f.Script[ch] = seq[1:]
		return seq[0], nil
	}
	return f.Values[ch], nil
}
