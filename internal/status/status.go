// Package status provides a thread-safe status tracker for the aux-lights daemon.
// It is read by the HTTP handlers and the MQTT lifecycle events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/aux-lights/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	PollMs       int64
	HeartbeatMs  int64
	TickUs       int64
	RampStepMs   int64
	MirrorHoldMs int64
	DarkOnly     bool
	Broker       string
	Redis        string
	HTTPAddr     string
	WSBroker     string // websocket broker for live page updates (empty = disabled)
	GPIOChip     string
	ADCDevice    string
	PWMChip      int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	State          logic.State
	Inputs         logic.Snapshot
	Sampled        bool
	Counts         logic.EventCounts
	Iterations     uint64
	OutputFailures uint64
	StartTime      time.Time
	Now            time.Time
	MQTTConnected  bool
	RedisConnected bool
	Config         Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			State:     logic.NewState(),
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update records the state and inputs of one completed iteration.
// Called from runLoop on every iteration.
func (t *Tracker) Update(st logic.State, in logic.Snapshot, counts logic.EventCounts) {
	t.mu.Lock()
	t.snap.State = st
	t.snap.Inputs = in
	t.snap.Sampled = true
	t.snap.Counts = counts
	t.snap.Iterations++
	t.mu.Unlock()
}

// SetState records the light state outside a control iteration (shutdown).
func (t *Tracker) SetState(st logic.State) {
	t.mu.Lock()
	t.snap.State = st
	t.mu.Unlock()
}

// SetOutputFailures sets the running count of failed output writes.
func (t *Tracker) SetOutputFailures(n uint64) {
	t.mu.Lock()
	t.snap.OutputFailures = n
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetRedisConnected sets the Redis connection status.
func (t *Tracker) SetRedisConnected(connected bool) {
	t.mu.Lock()
	t.snap.RedisConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
