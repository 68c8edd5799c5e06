package main

import (
	"bytes"
	"errors"
	"log"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/sweeney/aux-lights/internal/adc"
	"github.com/sweeney/aux-lights/internal/gpio"
	"github.com/sweeney/aux-lights/internal/lights"
	"github.com/sweeney/aux-lights/internal/logger"
	"github.com/sweeney/aux-lights/internal/logic"
	"github.com/sweeney/aux-lights/internal/mqtt"
	"github.com/sweeney/aux-lights/internal/pwm"
	"github.com/sweeney/aux-lights/internal/sensor"
	"github.com/sweeney/aux-lights/internal/status"
)

func fakeClock(start time.Time, step time.Duration) func() time.Time {
	n := 0
	return func() time.Time {
		t := start.Add(time.Duration(n) * step)
		n++
		return t
	}
}

// scriptedTicks returns the next value on every Load, repeating the last.
type scriptedTicks struct {
	values []uint32
	i      int
}

func (s *scriptedTicks) Load() uint32 {
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.i]
	if s.i < len(s.values)-1 {
		s.i++
	}
	return v
}

// recordingMirror keeps the last published lights and inputs.
type recordingMirror struct {
	lights    []logic.State
	inputs    []logic.Snapshot
	connected bool
}

func (m *recordingMirror) PublishLights(st logic.State) error {
	m.lights = append(m.lights, st)
	return nil
}

func (m *recordingMirror) PublishInputs(snap logic.Snapshot) error {
	m.inputs = append(m.inputs, snap)
	return nil
}

func (m *recordingMirror) IsConnected() bool { return m.connected }
func (m *recordingMirror) Close() error      { return nil }

type rig struct {
	inputs  *gpio.FakeInputs
	outputs *gpio.FakeOutputs
	mirror  *pwm.FakeChannel
	edge    *pwm.FakeChannel
	sleeper *lights.FakeSleeper
	pub     *mqtt.FakePublisher
	redis   *recordingMirror
	tracker *status.Tracker
	ticks   *scriptedTicks
	logs    *bytes.Buffer
	loop    *loop
}

func newRig(samples ...gpio.Levels) *rig {
	r := &rig{
		inputs:  gpio.NewFakeInputs(samples...),
		outputs: gpio.NewFakeOutputs(),
		mirror:  pwm.NewFakeChannel(),
		edge:    pwm.NewFakeChannel(),
		sleeper: &lights.FakeSleeper{},
		pub:     mqtt.NewFakePublisher(),
		redis:   &recordingMirror{connected: true},
		ticks:   &scriptedTicks{},
		logs:    &bytes.Buffer{},
	}
	r.pub.Connected = true
	l := logger.NewLogger(log.New(r.logs, "", 0), logger.LogLevelDebug)

	driver := lights.NewDriver(r.mirror, r.edge, r.outputs, r.sleeper, l)
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	r.tracker = status.NewTracker(start, status.Config{})
	r.loop = &loop{
		sampler:   &sensor.Sampler{Inputs: r.inputs, Converter: adc.NewFakeConverter(nil), Samples: 1},
		ctrl:      logic.NewController(driver, logic.DefaultTiming()),
		ticks:     r.ticks,
		publisher: r.pub,
		mirror:    r.redis,
		tracker:   r.tracker,
		failures:  driver.Failures,
		now:       fakeClock(start, time.Second),
		log:       l,
	}
	return r
}

// drive runs the loop for nTicks iterations, then delivers signal.
func (r *rig) drive(t *testing.T, nTicks int, signal os.Signal) {
	t.Helper()
	tick := make(chan time.Time)
	sig := make(chan os.Signal, 1)

	errCh := make(chan error, 1)
	go func() {
		errCh <- r.loop.run(tick, sig)
	}()

	for i := 0; i < nTicks; i++ {
		tick <- time.Time{}
	}
	sig <- signal

	if err := <-errCh; err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
}

func assertEventTypes(t *testing.T, got []logic.EventType, want ...logic.EventType) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("events: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestRunLoopWelcomeWithReadingLight(t *testing.T) {
	r := newRig(
		gpio.Levels{DoorClosed: true, ExteriorA: true},
		gpio.Levels{ExteriorA: true, ReadingLight: true},
		gpio.Levels{ExteriorA: true, ReadingLight: true},
	)
	r.drive(t, 3, syscall.SIGTERM)

	assertEventTypes(t, r.pub.EventTypes(),
		logic.EventExteriorMode,
		logic.EventMirrorOn,
		logic.EventEdgeOn,
		logic.EventRedOn,
		// shutdown drives everything off
		logic.EventMirrorOff,
		logic.EventEdgeOff,
		logic.EventRedOff,
	)

	if r.mirror.Duty() != lights.MirrorOff {
		t.Errorf("mirror duty after shutdown: got %d, want %d", r.mirror.Duty(), lights.MirrorOff)
	}
	if r.edge.Duty() != lights.EdgeOff {
		t.Errorf("edge duty after shutdown: got %d, want %d", r.edge.Duty(), lights.EdgeOff)
	}
	if r.outputs.Level(gpio.OutputRed) || r.outputs.Level(gpio.OutputRGB) {
		t.Error("digital outputs should be off after shutdown")
	}

	// One welcome ramp of 255 steps
	if got := len(r.sleeper.Calls()); got != 255 {
		t.Errorf("sleeper calls: got %d, want 255", got)
	}

	if len(r.redis.inputs) != 3 {
		t.Errorf("redis inputs: got %d publishes, want 3", len(r.redis.inputs))
	}
	last := r.redis.lights[len(r.redis.lights)-1]
	if last.MirrorOn || last.EdgeOn || last.RedOn {
		t.Errorf("redis should mirror the shutdown state, got %+v", last.Lights())
	}

	snap := r.tracker.Snapshot()
	if snap.Iterations != 3 {
		t.Errorf("Iterations: got %d, want 3", snap.Iterations)
	}
	if snap.Counts.MirrorOn != 1 || snap.Counts.EdgeOn != 1 || snap.Counts.RedOn != 1 {
		t.Errorf("Counts: got %+v", snap.Counts)
	}
	if !snap.MQTTConnected || !snap.RedisConnected {
		t.Error("expected connectivity copied into tracker")
	}
}

func TestRunLoopInitDrivesOutputsOff(t *testing.T) {
	r := newRig(gpio.Levels{})
	r.drive(t, 0, syscall.SIGTERM)

	writes := r.outputs.Writes()
	if len(writes) < 2 {
		t.Fatalf("expected init writes, got %v", writes)
	}
	if writes[0] != (gpio.Write{Line: gpio.OutputRGB, On: false}) {
		t.Errorf("first write: got %+v, want rgb off", writes[0])
	}
	if writes[1] != (gpio.Write{Line: gpio.OutputRed, On: false}) {
		t.Errorf("second write: got %+v, want red off", writes[1])
	}
	if len(r.pub.Events) != 0 {
		t.Errorf("expected no light events, got %v", r.pub.EventTypes())
	}
}

func TestRunLoopTerminatorLatches(t *testing.T) {
	r := newRig(gpio.Levels{DoorClosed: true, ExteriorA: true, ReadingLight: true})
	r.ticks.values = []uint32{0, 60000}
	r.drive(t, 2, syscall.SIGTERM)

	assertEventTypes(t, r.pub.EventTypes(),
		logic.EventExteriorMode,
		logic.EventRedOn,
		logic.EventRedOff,
		logic.EventTerminatorSet,
	)
	if !r.tracker.Snapshot().State.Terminator {
		t.Error("tracker should report the terminator")
	}
}

func TestRunLoopSampleErrorSkipsIteration(t *testing.T) {
	r := newRig(gpio.Levels{ExteriorA: true})
	r.inputs.ReadError = errors.New("gpio fault")
	r.drive(t, 2, syscall.SIGTERM)

	if len(r.pub.Events) != 0 {
		t.Errorf("expected no events, got %v", r.pub.EventTypes())
	}
	if got := r.tracker.Snapshot().Iterations; got != 0 {
		t.Errorf("Iterations: got %d, want 0", got)
	}
	if !strings.Contains(r.logs.String(), "sample error") {
		t.Error("expected sample error to be logged")
	}
}

// faultInputs wraps FakeInputs and fails a fixed range of Read calls.
type faultInputs struct {
	inner      *gpio.FakeInputs
	call       int
	faultStart int // first call index that returns error (inclusive)
	faultEnd   int // last call index that returns error (exclusive)
}

func (f *faultInputs) Read() (gpio.Levels, error) {
	i := f.call
	f.call++
	if i >= f.faultStart && i < f.faultEnd {
		return gpio.Levels{}, errors.New("gpio fault")
	}
	return f.inner.Read()
}

func (f *faultInputs) Close() error { return f.inner.Close() }

func TestRunLoopRecoversAfterSampleError(t *testing.T) {
	r := newRig(gpio.Levels{InteriorA: true, Ignition: true})
	r.loop.sampler = &sensor.Sampler{
		Inputs:    &faultInputs{inner: r.inputs, faultStart: 0, faultEnd: 2},
		Converter: adc.NewFakeConverter(nil),
		Samples:   1,
	}
	r.drive(t, 3, syscall.SIGTERM)

	assertEventTypes(t, r.pub.EventTypes(),
		logic.EventInteriorMode,
		logic.EventRGBOn,
		logic.EventRGBOff,
	)
	if got := r.tracker.Snapshot().Iterations; got != 1 {
		t.Errorf("Iterations: got %d, want 1", got)
	}
}

func TestRunLoopPublishErrorContinues(t *testing.T) {
	r := newRig(
		gpio.Levels{InteriorA: true},
		gpio.Levels{InteriorA: true, Ignition: true},
	)
	r.pub.PublishError = errors.New("broker down")
	r.drive(t, 2, syscall.SIGTERM)

	snap := r.tracker.Snapshot()
	if snap.Iterations != 2 {
		t.Errorf("Iterations: got %d, want 2", snap.Iterations)
	}
	if snap.Counts.RGBOn != 1 {
		t.Errorf("Counts.RGBOn: got %d, want 1", snap.Counts.RGBOn)
	}
	if !strings.Contains(r.logs.String(), "publish error: broker down") {
		t.Error("expected publish error to be logged")
	}
	if len(r.pub.SystemEvents) != 1 {
		t.Errorf("shutdown event should still be published, got %d", len(r.pub.SystemEvents))
	}
}

func TestRunLoopHeartbeat(t *testing.T) {
	r := newRig(gpio.Levels{})
	r.loop.heartbeat = 2 * time.Second
	r.drive(t, 3, syscall.SIGTERM)

	var heartbeats []mqtt.SystemEvent
	for _, e := range r.pub.SystemEvents {
		if e.Event == "HEARTBEAT" {
			heartbeats = append(heartbeats, e)
		}
	}
	// start=0s, iterations at 1s, 2s, 3s
	if len(heartbeats) != 1 {
		t.Fatalf("expected 1 heartbeat, got %d", len(heartbeats))
	}
	if !strings.Contains(string(heartbeats[0].RawPayload), `"event":"HEARTBEAT"`) {
		t.Errorf("heartbeat payload: %s", heartbeats[0].RawPayload)
	}
}

func TestRunLoopShutdownSignals(t *testing.T) {
	for _, tc := range []struct {
		sig  os.Signal
		want string
	}{
		{syscall.SIGTERM, "SIGTERM"},
		{syscall.SIGINT, "SIGINT"},
		{syscall.SIGHUP, "UNKNOWN"},
	} {
		t.Run(tc.want, func(t *testing.T) {
			r := newRig(gpio.Levels{})
			r.drive(t, 1, tc.sig)

			if len(r.pub.SystemEvents) != 1 {
				t.Fatalf("expected 1 system event, got %d", len(r.pub.SystemEvents))
			}
			e := r.pub.SystemEvents[0]
			if e.Event != "SHUTDOWN" || e.Reason != tc.want || !e.Retained {
				t.Errorf("shutdown event: got %+v", e)
			}
			if !strings.Contains(string(e.RawPayload), `"reason":"`+tc.want+`"`) {
				t.Errorf("payload missing reason: %s", e.RawPayload)
			}
		})
	}
}

// signallingSampler raises a signal once it has produced n samples.
type signallingSampler struct {
	inner snapshotSource
	n     int
	sig   chan<- os.Signal
}

func (s *signallingSampler) Sample() (logic.Snapshot, error) {
	s.n--
	if s.n == 0 {
		s.sig <- syscall.SIGTERM
	}
	return s.inner.Sample()
}

func TestRunLoopRepeatsImmediatelyWithoutTicker(t *testing.T) {
	r := newRig(gpio.Levels{})
	sig := make(chan os.Signal, 1)
	r.loop.sampler = &signallingSampler{inner: r.loop.sampler, n: 3, sig: sig}

	if err := r.loop.run(nil, sig); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := r.tracker.Snapshot().Iterations; got != 3 {
		t.Errorf("Iterations: got %d, want 3", got)
	}
}

func TestPrintState(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	printState(&buf, logic.Snapshot{
		DoorClosed: true,
		Switches:   logic.Switches{ExteriorB: true},
		Analog:     logic.Analog{PhotoLeft: 200, PhotoRight: 900, SensLeft: 400, SensRight: 400, DimmerTime: 1000},
	})

	out := buf.String()
	for _, want := range []string{
		"Door:          CLOSED",
		"Ignition:      OFF",
		"Interior:      DISABLED",
		"Exterior:      MODE2",
		"Photo L/R:     200 / 900 (threshold 300 / 300)",
		"Dark:          no",
		"Dimmer:        1000 (20s)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestResolveWSBroker(t *testing.T) {
	var logs bytes.Buffer
	l := logger.NewLogger(log.New(&logs, "", 0), logger.LogLevelInfo)

	tests := []struct {
		ws, broker, want string
	}{
		{"=broker", "tcp://192.168.1.200:1883", "ws://192.168.1.200:9001"},
		{"=broker", "tcp://mqtt.local", "ws://mqtt.local:9001"},
		{"=broker", "", ""},
		{"off", "tcp://192.168.1.200:1883", ""},
		{"ws://dash.local:8083/mqtt", "tcp://192.168.1.200:1883", "ws://dash.local:8083/mqtt"},
	}
	for _, tt := range tests {
		if got := resolveWSBroker(tt.ws, tt.broker, l); got != tt.want {
			t.Errorf("resolveWSBroker(%q, %q): got %q, want %q", tt.ws, tt.broker, got, tt.want)
		}
	}
	if logs.Len() != 0 {
		t.Errorf("unexpected log output: %s", logs.String())
	}

	if got := resolveWSBroker("=broker", "192.168.1.200:1883", l); got != "" {
		t.Errorf("unparseable broker: got %q, want empty", got)
	}
	if !strings.Contains(logs.String(), "ws-broker") {
		t.Error("unparseable broker should be logged")
	}
}
