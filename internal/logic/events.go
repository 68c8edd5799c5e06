package logic

import "time"

// Changes compares two states and returns the transitions between them.
// Order: modes, then mirror, edge, red, RGB, then the terminator flag.
func Changes(prev, next State, t time.Time) []Event {
	var events []Event
	lights := next.Lights()

	add := func(typ EventType, mode Mode) {
		events = append(events, Event{Timestamp: t, Type: typ, Mode: mode, Lights: lights})
	}

	if prev.Interior != next.Interior {
		add(EventInteriorMode, next.Interior)
	}
	if prev.Exterior != next.Exterior {
		add(EventExteriorMode, next.Exterior)
	}
	if prev.MirrorOn != next.MirrorOn {
		add(onOff(next.MirrorOn, EventMirrorOn, EventMirrorOff), "")
	}
	if prev.EdgeOn != next.EdgeOn {
		add(onOff(next.EdgeOn, EventEdgeOn, EventEdgeOff), "")
	}
	if prev.RedOn != next.RedOn {
		add(onOff(next.RedOn, EventRedOn, EventRedOff), "")
	}
	if prev.RGBOn != next.RGBOn {
		add(onOff(next.RGBOn, EventRGBOn, EventRGBOff), "")
	}
	if prev.Terminator != next.Terminator {
		add(onOff(next.Terminator, EventTerminatorSet, EventTerminatorCleared), "")
	}
	return events
}

func onOff(on bool, onType, offType EventType) EventType {
	if on {
		return onType
	}
	return offType
}

// Add counts the given events.
func (c *EventCounts) Add(events []Event) {
	for _, e := range events {
		switch e.Type {
		case EventMirrorOn:
			c.MirrorOn++
		case EventEdgeOn:
			c.EdgeOn++
		case EventRedOn:
			c.RedOn++
		case EventRGBOn:
			c.RGBOn++
		case EventTerminatorSet:
			c.Terminator++
		}
	}
}

// Heartbeat decides when a periodic heartbeat is due.
type Heartbeat struct {
	interval  time.Duration
	startTime time.Time
	last      time.Time
}

// NewHeartbeat creates a heartbeat schedule. An interval <= 0 disables it.
func NewHeartbeat(interval time.Duration, startTime time.Time) *Heartbeat {
	return &Heartbeat{
		interval:  interval,
		startTime: startTime,
		last:      startTime,
	}
}

// Due returns heartbeat data if the interval has elapsed since the last
// heartbeat (or startup).
func (h *Heartbeat) Due(now time.Time, counts EventCounts) (HeartbeatData, bool) {
	if h.interval <= 0 {
		return HeartbeatData{}, false
	}
	if now.Sub(h.last) < h.interval {
		return HeartbeatData{}, false
	}
	h.last = now
	return HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(h.startTime),
		Counts:    counts,
	}, true
}
