package logic

import (
	"testing"
	"time"
)

func TestChangesNone(t *testing.T) {
	st := NewState()
	if events := Changes(st, st, time.Now()); len(events) != 0 {
		t.Errorf("expected no events for identical states, got %v", events)
	}
}

func TestChangesOrderAndPayload(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	prev := NewState()
	next := prev
	next.Interior = Mode1
	next.MirrorOn = true
	next.RGBOn = true
	next.Terminator = true

	events := Changes(prev, next, now)
	want := []EventType{EventInteriorMode, EventMirrorOn, EventRGBOn, EventTerminatorSet}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %d: %v", len(want), len(events), events)
	}
	for i, e := range events {
		if e.Type != want[i] {
			t.Errorf("event %d: got %s, want %s", i, e.Type, want[i])
		}
		if !e.Timestamp.Equal(now) {
			t.Errorf("event %d: timestamp %v, want %v", i, e.Timestamp, now)
		}
		if e.Lights != next.Lights() {
			t.Errorf("event %d: lights %+v, want %+v", i, e.Lights, next.Lights())
		}
	}
	if events[0].Mode != Mode1 {
		t.Errorf("mode event: got %s, want MODE1", events[0].Mode)
	}
	if events[1].Mode != "" {
		t.Errorf("light event should carry no mode, got %q", events[1].Mode)
	}
}

func TestChangesOffTransitions(t *testing.T) {
	prev := State{MirrorOn: true, EdgeOn: true, RedOn: true, RGBOn: true, Terminator: true}
	next := State{}

	events := Changes(prev, next, time.Now())
	want := []EventType{EventMirrorOff, EventEdgeOff, EventRedOff, EventRGBOff, EventTerminatorCleared}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(events))
	}
	for i, e := range events {
		if e.Type != want[i] {
			t.Errorf("event %d: got %s, want %s", i, e.Type, want[i])
		}
	}
}

func TestEventCountsAdd(t *testing.T) {
	var c EventCounts
	c.Add([]Event{
		{Type: EventMirrorOn},
		{Type: EventMirrorOff},
		{Type: EventMirrorOn},
		{Type: EventEdgeOn},
		{Type: EventRedOn},
		{Type: EventRGBOn},
		{Type: EventTerminatorSet},
		{Type: EventExteriorMode},
	})
	want := EventCounts{MirrorOn: 2, EdgeOn: 1, RedOn: 1, RGBOn: 1, Terminator: 1}
	if c != want {
		t.Errorf("counts: got %+v, want %+v", c, want)
	}
}

func TestHeartbeatDue(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	hb := NewHeartbeat(15*time.Minute, start)
	counts := EventCounts{MirrorOn: 3}

	if _, ok := hb.Due(start.Add(14*time.Minute), counts); ok {
		t.Error("heartbeat should not be due before the interval")
	}

	data, ok := hb.Due(start.Add(15*time.Minute), counts)
	if !ok {
		t.Fatal("heartbeat should be due at the interval")
	}
	if data.Uptime != 15*time.Minute {
		t.Errorf("uptime: got %v, want 15m", data.Uptime)
	}
	if data.Counts != counts {
		t.Errorf("counts: got %+v, want %+v", data.Counts, counts)
	}

	if _, ok := hb.Due(start.Add(16*time.Minute), counts); ok {
		t.Error("heartbeat should wait a full interval after firing")
	}
	if _, ok := hb.Due(start.Add(30*time.Minute), counts); !ok {
		t.Error("second heartbeat should be due")
	}
}

func TestHeartbeatDisabled(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	hb := NewHeartbeat(0, start)
	if _, ok := hb.Due(start.Add(24*time.Hour), EventCounts{}); ok {
		t.Error("disabled heartbeat should never fire")
	}
}

func TestIsDark(t *testing.T) {
	tests := []struct {
		name string
		a    Analog
		want bool
	}{
		{"both below", Analog{PhotoLeft: 100, PhotoRight: 200, SensLeft: 400, SensRight: 400}, true},
		{"at threshold", Analog{PhotoLeft: 300, PhotoRight: 300, SensLeft: 400, SensRight: 400}, true},
		{"left bright", Analog{PhotoLeft: 301, PhotoRight: 100, SensLeft: 400, SensRight: 400}, false},
		{"right bright", Analog{PhotoLeft: 100, PhotoRight: 900, SensLeft: 400, SensRight: 400}, false},
	}
	for _, tt := range tests {
		if got := IsDark(tt.a); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSensitivityLevelTruncates(t *testing.T) {
	// 1023/4 = 255, *3 = 765
	if got := SensitivityLevel(1023); got != 765 {
		t.Errorf("SensitivityLevel(1023): got %d, want 765", got)
	}
	if got := SensitivityLevel(3); got != 0 {
		t.Errorf("SensitivityLevel(3): got %d, want 0", got)
	}
}

func TestDimmerSeconds(t *testing.T) {
	if got := DimmerSeconds(Analog{DimmerTime: 1023}); got != 20 {
		t.Errorf("DimmerSeconds(1023): got %d, want 20", got)
	}
	if got := DimmerSeconds(Analog{DimmerTime: 49}); got != 0 {
		t.Errorf("DimmerSeconds(49): got %d, want 0", got)
	}
}
