package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/aux-lights/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event          string      `json:"event,omitempty"`
	Reason         string      `json:"reason,omitempty"`
	Lights         LightsJSON  `json:"lights"`
	Modes          ModesJSON   `json:"modes"`
	Terminator     bool        `json:"terminator"`
	Inputs         *InputsJSON `json:"inputs,omitempty"`
	Iterations     uint64      `json:"iterations"`
	OutputFailures uint64      `json:"output_failures"`
	UptimeSeconds  int64       `json:"uptime_seconds"`
	StartTime      string      `json:"start_time"`
	Timestamp      string      `json:"timestamp"`
	MQTT           ServiceJSON `json:"mqtt"`
	Redis          ServiceJSON `json:"redis"`
	Counts         CountsJSON  `json:"event_counts"`
	Config         ConfigJSON  `json:"config"`
}

// LightsJSON reports every output as ON or OFF.
type LightsJSON struct {
	Mirror string `json:"mirror"`
	Edge   string `json:"edge"`
	Red    string `json:"red"`
	RGB    string `json:"rgb"`
}

// ModesJSON reports the decoded switch modes.
type ModesJSON struct {
	Interior string `json:"interior"`
	Exterior string `json:"exterior"`
}

// InputsJSON reports the last sampled inputs.
type InputsJSON struct {
	Door          string `json:"door"`
	Ignition      string `json:"ignition"`
	ReadingLight  string `json:"reading_light"`
	PhotoLeft     int    `json:"photo_left"`
	PhotoRight    int    `json:"photo_right"`
	SensLeft      int    `json:"sens_left"`
	SensRight     int    `json:"sens_right"`
	DimmerTime    int    `json:"dimmer_time"`
	DimmerSeconds int    `json:"dimmer_seconds"`
	Dark          bool   `json:"dark"`
}

// ServiceJSON reports a broker connection state.
type ServiceJSON struct {
	Connected bool   `json:"connected"`
	Address   string `json:"address"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	MirrorOn   int `json:"mirror_on"`
	EdgeOn     int `json:"edge_on"`
	RedOn      int `json:"red_on"`
	RGBOn      int `json:"rgb_on"`
	Terminator int `json:"terminator"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs       int64  `json:"poll_ms"`
	HeartbeatMs  int64  `json:"heartbeat_ms"`
	TickUs       int64  `json:"tick_us"`
	RampStepMs   int64  `json:"ramp_step_ms"`
	MirrorHoldMs int64  `json:"mirror_hold_ms"`
	DarkOnly     bool   `json:"dark_only"`
	Broker       string `json:"broker"`
	Redis        string `json:"redis"`
	HTTPAddr     string `json:"http_addr"`
	WSBroker     string `json:"ws_broker,omitempty"`
	GPIOChip     string `json:"gpio_chip"`
	ADCDevice    string `json:"adc_device"`
	PWMChip      int    `json:"pwm_chip"`
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

func modeName(m logic.Mode) string {
	if m == "" {
		return "UNKNOWN"
	}
	return string(m)
}

func buildInputs(snap Snapshot) *InputsJSON {
	if !snap.Sampled {
		return nil
	}
	in := snap.Inputs
	door := "OPEN"
	if in.DoorClosed {
		door = "CLOSED"
	}
	return &InputsJSON{
		Door:          door,
		Ignition:      onOff(in.Ignition),
		ReadingLight:  onOff(in.ReadingLight),
		PhotoLeft:     in.Analog.PhotoLeft,
		PhotoRight:    in.Analog.PhotoRight,
		SensLeft:      in.Analog.SensLeft,
		SensRight:     in.Analog.SensRight,
		DimmerTime:    in.Analog.DimmerTime,
		DimmerSeconds: logic.DimmerSeconds(in.Analog),
		Dark:          logic.IsDark(in.Analog),
	}
}

func buildLights(st logic.State) LightsJSON {
	return LightsJSON{
		Mirror: onOff(st.MirrorOn),
		Edge:   onOff(st.EdgeOn),
		Red:    onOff(st.RedOn),
		RGB:    onOff(st.RGBOn),
	}
}

func buildModes(st logic.State) ModesJSON {
	return ModesJSON{Interior: modeName(st.Interior), Exterior: modeName(st.Exterior)}
}

func buildInner(snap Snapshot) StatusInner {
	st := snap.State
	cfg := snap.Config
	return StatusInner{
		Lights:         buildLights(st),
		Modes:          buildModes(st),
		Terminator:     st.Terminator,
		Inputs:         buildInputs(snap),
		Iterations:     snap.Iterations,
		OutputFailures: snap.OutputFailures,
		UptimeSeconds:  int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:      snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:      snap.Now.UTC().Format(time.RFC3339),
		MQTT:           ServiceJSON{Connected: snap.MQTTConnected, Address: cfg.Broker},
		Redis:          ServiceJSON{Connected: snap.RedisConnected, Address: cfg.Redis},
		Counts: CountsJSON{
			MirrorOn:   snap.Counts.MirrorOn,
			EdgeOn:     snap.Counts.EdgeOn,
			RedOn:      snap.Counts.RedOn,
			RGBOn:      snap.Counts.RGBOn,
			Terminator: snap.Counts.Terminator,
		},
		Config: ConfigJSON{
			PollMs:       cfg.PollMs,
			HeartbeatMs:  cfg.HeartbeatMs,
			TickUs:       cfg.TickUs,
			RampStepMs:   cfg.RampStepMs,
			MirrorHoldMs: cfg.MirrorHoldMs,
			DarkOnly:     cfg.DarkOnly,
			Broker:       cfg.Broker,
			Redis:        cfg.Redis,
			HTTPAddr:     cfg.HTTPAddr,
			WSBroker:     cfg.WSBroker,
			GPIOChip:     cfg.GPIOChip,
			ADCDevice:    cfg.ADCDevice,
			PWMChip:      cfg.PWMChip,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// LightsView reports the outputs and decoded modes without inputs or config.
type LightsView struct {
	Lights     LightsJSON `json:"lights"`
	Modes      ModesJSON  `json:"modes"`
	Terminator bool       `json:"terminator"`
	Timestamp  string     `json:"timestamp"`
}

// InputsView is the last sample with the time it was taken.
type InputsView struct {
	Inputs    InputsJSON `json:"inputs"`
	Timestamp string     `json:"timestamp"`
}

// FormatLightsJSON returns the output-only view.
func FormatLightsJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(LightsView{
		Lights:     buildLights(snap.State),
		Modes:      buildModes(snap.State),
		Terminator: snap.State.Terminator,
		Timestamp:  snap.Now.UTC().Format(time.RFC3339),
	}, "", "  ")
	return data
}

// FormatInputsJSON returns the inputs view, or nil before the first sample.
func FormatInputsJSON(snap Snapshot) []byte {
	in := buildInputs(snap)
	if in == nil {
		return nil
	}
	data, _ := json.MarshalIndent(InputsView{
		Inputs:    *in,
		Timestamp: snap.Now.UTC().Format(time.RFC3339),
	}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
