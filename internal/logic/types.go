// Package logic contains the pure control logic for the auxiliary lights.
// This package has NO external dependencies (no GPIO, PWM, MQTT, OS, or time.Sleep).
// Time enters as a tick count and a time.Time; blocking output work goes through Actuator.
package logic

import "time"

// Mode is the decoded position of a three-way mode switch.
type Mode string

const (
	ModeDisabled Mode = "DISABLED"
	Mode1        Mode = "MODE1"
	Mode2        Mode = "MODE2"
)

// Analog holds the oversampled analog readings, each in [0, 1023].
type Analog struct {
	PhotoLeft  int
	PhotoRight int
	SensLeft   int // left photoresistor sensitivity pot
	SensRight  int // right photoresistor sensitivity pot
	DimmerTime int
}

// Switches holds the logical levels of both mode-select pin pairs.
type Switches struct {
	InteriorA bool
	InteriorB bool
	ExteriorA bool
	ExteriorB bool
}

// Snapshot is one sample of every input, already in logical form.
type Snapshot struct {
	DoorClosed   bool
	Ignition     bool
	ReadingLight bool // physical pin; use State.ReadingLight for the gated value
	Switches     Switches
	Analog       Analog
}

// Input is what the control loop consumes on each iteration.
type Input struct {
	Snapshot
	Ticks uint32 // free-running tick counter value
	Time  time.Time
}

// State holds the latched flags carried from one iteration to the next.
// Each output flag changes only together with the matching output write.
type State struct {
	MirrorOn      bool
	EdgeOn        bool
	RedOn         bool
	RGBOn         bool
	WasDoorClosed bool // arms the next door-open transition
	TimerEnabled  bool // grace timer running
	TimerStart    uint32
	Terminator    bool // reading light reads as off while set

	// Last decoded modes, kept for telemetry.
	Interior Mode
	Exterior Mode
}

// NewState returns the power-on state: door assumed closed, every light off.
func NewState() State {
	return State{
		WasDoorClosed: true,
		Interior:      ModeDisabled,
		Exterior:      ModeDisabled,
	}
}

// ReadingLight returns the reading light level as seen by the control loop.
// It reports off while the terminator flag is latched, whatever the pin says.
func (s State) ReadingLight(raw bool) bool {
	if s.Terminator {
		return false
	}
	return raw
}

// Timing groups the fixed delays of the control loop.
type Timing struct {
	RampStep       time.Duration // delay between mirror ramp steps
	MirrorHold     time.Duration // mirror lights stay on after the door closes
	InteriorSettle time.Duration // wait after an interior Mode2 RGB transition
	RedOffDelay    time.Duration // wait after red lights go off in exterior Mode2
	GraceTicks     uint32        // door-closed ticks before the terminator latches
}

// DefaultTiming returns the firmware timing: 5ms ramp steps, 30s mirror hold,
// 800ms settle, 1.5s red-off delay and 58823 ticks (about 2 minutes at 2.048ms/tick).
func DefaultTiming() Timing {
	return Timing{
		RampStep:       5 * time.Millisecond,
		MirrorHold:     30 * time.Second,
		InteriorSettle: 800 * time.Millisecond,
		RedOffDelay:    1500 * time.Millisecond,
		GraceTicks:     58823,
	}
}

// EventType identifies a light or flag transition.
type EventType string

const (
	EventMirrorOn          EventType = "MIRROR_ON"
	EventMirrorOff         EventType = "MIRROR_OFF"
	EventEdgeOn            EventType = "EDGE_ON"
	EventEdgeOff           EventType = "EDGE_OFF"
	EventRedOn             EventType = "RED_ON"
	EventRedOff            EventType = "RED_OFF"
	EventRGBOn             EventType = "RGB_ON"
	EventRGBOff            EventType = "RGB_OFF"
	EventTerminatorSet     EventType = "TERMINATOR_SET"
	EventTerminatorCleared EventType = "TERMINATOR_CLEARED"
	EventInteriorMode      EventType = "INTERIOR_MODE"
	EventExteriorMode      EventType = "EXTERIOR_MODE"
)

// Event represents a transition to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Mode      Mode // set for mode events only
	Lights    Lights
}

// Lights is the on/off view of every output.
type Lights struct {
	Mirror bool
	Edge   bool
	Red    bool
	RGB    bool
}

// Lights returns the output view of the state.
func (s State) Lights() Lights {
	return Lights{Mirror: s.MirrorOn, Edge: s.EdgeOn, Red: s.RedOn, RGB: s.RGBOn}
}

// EventCounts tracks the number of light-on events since startup.
type EventCounts struct {
	MirrorOn   int
	EdgeOn     int
	RedOn      int
	RGBOn      int
	Terminator int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}
