package mqtt

// bufferedMsg is a serialized publish held for replay.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// backlog keeps the newest capacity messages published while offline.
// The caller must synchronize.
type backlog struct {
	slots   []bufferedMsg
	next    int // slot the next push writes
	size    int
	dropped int // overwritten since the last drain
}

func newBacklog(capacity int) *backlog {
	return &backlog{slots: make([]bufferedMsg, capacity)}
}

// push appends msg, evicting the oldest entry when full.
// It reports true on the first eviction after a drain.
func (b *backlog) push(msg bufferedMsg) bool {
	full := b.size == len(b.slots)
	b.slots[b.next] = msg
	b.next = (b.next + 1) % len(b.slots)
	if !full {
		b.size++
		return false
	}
	b.dropped++
	return b.dropped == 1
}

// drain empties the backlog, returning messages oldest first and the
// number evicted since the previous drain.
func (b *backlog) drain() ([]bufferedMsg, int) {
	dropped := b.dropped
	b.dropped = 0
	if b.size == 0 {
		return nil, dropped
	}

	out := make([]bufferedMsg, 0, b.size)
	first := (b.next - b.size + len(b.slots)) % len(b.slots)
	for i := 0; i < b.size; i++ {
		out = append(out, b.slots[(first+i)%len(b.slots)])
	}
	b.next, b.size = 0, 0
	return out, dropped
}

func (b *backlog) len() int {
	return b.size
}
