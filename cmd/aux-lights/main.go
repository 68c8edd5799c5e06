// Command aux-lights drives the mirror, edge, red and RGB auxiliary lights from the
// door, ignition, reading light and mode switch inputs.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/sweeney/aux-lights/internal/adc"
	"github.com/sweeney/aux-lights/internal/gpio"
	"github.com/sweeney/aux-lights/internal/lights"
	"github.com/sweeney/aux-lights/internal/logger"
	"github.com/sweeney/aux-lights/internal/logic"
	"github.com/sweeney/aux-lights/internal/messaging"
	"github.com/sweeney/aux-lights/internal/mqtt"
	"github.com/sweeney/aux-lights/internal/pwm"
	"github.com/sweeney/aux-lights/internal/sensor"
	"github.com/sweeney/aux-lights/internal/status"
	"github.com/sweeney/aux-lights/internal/ticks"
	"github.com/sweeney/aux-lights/internal/web"
)

type config struct {
	logLevel   int
	broker     string
	redis      string
	httpAddr   string
	wsBroker   string
	webAssets  string
	heartbeat  time.Duration
	poll       time.Duration
	pins       gpio.Pins
	adcDevice  string
	adcBits    int
	pwmChip    int
	pwmMirror  int
	pwmEdge    int
	tick       time.Duration
	rampStep   time.Duration
	mirrorHold time.Duration
	darkOnly   bool
	printState bool
}

func main() {
	cfg := config{pins: gpio.DefaultPins()}
	timing := logic.DefaultTiming()

	flag.IntVar(&cfg.logLevel, "log", 3, "Service log level (0=NONE, 1=ERROR, 2=WARN, 3=INFO, 4=DEBUG)")
	flag.StringVar(&cfg.broker, "broker", "", "MQTT broker address (empty to disable)")
	flag.StringVar(&cfg.redis, "redis", "127.0.0.1:6379", "Redis address for the state mirror (empty to disable)")
	flag.StringVar(&cfg.httpAddr, "http", ":8080", "HTTP status address (empty to disable)")
	flag.StringVar(&cfg.wsBroker, "ws-broker", "=broker", `MQTT websocket URL for live page updates ("=broker" derives from -broker, "off" disables)`)
	flag.StringVar(&cfg.webAssets, "web-assets", "", "Directory holding mqtt.min.js for the live page")
	flag.DurationVar(&cfg.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	flag.DurationVar(&cfg.poll, "poll", 0, "Pause between control iterations (0 repeats immediately)")
	flag.StringVar(&cfg.pins.Chip, "gpio-chip", cfg.pins.Chip, "GPIO character device")
	flag.IntVar(&cfg.pins.DoorClosed.Offset, "pin-door", cfg.pins.DoorClosed.Offset, "BCM pin for the door switch (high = closed)")
	flag.IntVar(&cfg.pins.Ignition.Offset, "pin-ignition", cfg.pins.Ignition.Offset, "BCM pin for ignition (low = on)")
	flag.IntVar(&cfg.pins.ReadingLight.Offset, "pin-reading", cfg.pins.ReadingLight.Offset, "BCM pin for the reading light feed")
	flag.IntVar(&cfg.pins.InteriorA.Offset, "pin-int-a", cfg.pins.InteriorA.Offset, "BCM pin for interior switch A")
	flag.IntVar(&cfg.pins.InteriorB.Offset, "pin-int-b", cfg.pins.InteriorB.Offset, "BCM pin for interior switch B")
	flag.IntVar(&cfg.pins.ExteriorA.Offset, "pin-ext-a", cfg.pins.ExteriorA.Offset, "BCM pin for exterior switch A")
	flag.IntVar(&cfg.pins.ExteriorB.Offset, "pin-ext-b", cfg.pins.ExteriorB.Offset, "BCM pin for exterior switch B")
	flag.IntVar(&cfg.pins.RGB.Offset, "pin-rgb", cfg.pins.RGB.Offset, "BCM pin for the RGB strip")
	flag.IntVar(&cfg.pins.Red.Offset, "pin-red", cfg.pins.Red.Offset, "BCM pin for the red warning lights")
	flag.StringVar(&cfg.adcDevice, "adc-device", "iio:device0", "IIO ADC device name")
	flag.IntVar(&cfg.adcBits, "adc-bits", 12, "ADC resolution in bits")
	flag.IntVar(&cfg.pwmChip, "pwm-chip", 0, "PWM chip number")
	flag.IntVar(&cfg.pwmMirror, "pwm-mirror", 0, "PWM channel for the mirror lights")
	flag.IntVar(&cfg.pwmEdge, "pwm-edge", 1, "PWM channel for the edge lights")
	flag.DurationVar(&cfg.tick, "tick", ticks.DefaultPeriod, "Tick counter period")
	flag.DurationVar(&cfg.rampStep, "ramp-step", timing.RampStep, "Delay between mirror ramp steps")
	flag.DurationVar(&cfg.mirrorHold, "mirror-hold", timing.MirrorHold, "Mirror hold after the door closes")
	flag.BoolVar(&cfg.darkOnly, "dark-only", false, "Only run the welcome ramp when both photoresistors read dark")
	flag.BoolVar(&cfg.printState, "print-state", false, "Print current inputs and exit")

	flag.Parse()

	// Running under systemd, use minimal format
	var stdLogger *log.Logger
	if os.Getenv("INVOCATION_ID") != "" {
		stdLogger = log.New(os.Stdout, "", 0)
	} else {
		stdLogger = log.New(os.Stdout, "", log.LstdFlags|log.Lmicroseconds|log.Lmsgprefix)
	}
	l := logger.NewLogger(stdLogger, logger.LogLevel(cfg.logLevel))
	cfg.wsBroker = resolveWSBroker(cfg.wsBroker, cfg.broker, l)

	if err := run(cfg, l); err != nil {
		l.Fatalf("fatal: %v", err)
	}
}

func run(cfg config, l *logger.Logger) error {
	inputs, err := gpio.NewRealInputs(cfg.pins)
	if err != nil {
		return fmt.Errorf("init gpio inputs: %w", err)
	}
	defer inputs.Close()

	sampler := &sensor.Sampler{
		Inputs:    inputs,
		Converter: adc.NewIIOConverter(cfg.adcDevice, cfg.adcBits),
	}

	if cfg.printState {
		snap, err := sampler.Sample()
		if err != nil {
			return fmt.Errorf("sample inputs: %w", err)
		}
		printState(os.Stdout, snap)
		return nil
	}

	outputs, err := gpio.NewRealOutputs(cfg.pins)
	if err != nil {
		return fmt.Errorf("init gpio outputs: %w", err)
	}
	defer outputs.Close()

	mirrorPWM, err := pwm.NewSysfsChannel("/sys/class/pwm", cfg.pwmChip, cfg.pwmMirror, pwm.DefaultPeriod)
	if err != nil {
		return fmt.Errorf("init mirror pwm: %w", err)
	}
	defer mirrorPWM.Close()

	edgePWM, err := pwm.NewSysfsChannel("/sys/class/pwm", cfg.pwmChip, cfg.pwmEdge, pwm.DefaultPeriod)
	if err != nil {
		return fmt.Errorf("init edge pwm: %w", err)
	}
	defer edgePWM.Close()

	driver := lights.NewDriver(mirrorPWM, edgePWM, outputs, lights.RealSleeper{}, l)

	timing := logic.DefaultTiming()
	timing.RampStep = cfg.rampStep
	timing.MirrorHold = cfg.mirrorHold
	ctrl := logic.NewController(driver, timing)
	ctrl.DarkOnly = cfg.darkOnly

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	counter := &ticks.Counter{}
	go counter.Run(ctx, cfg.tick)

	var publisher telemetry = mqtt.Noop{}
	if cfg.broker != "" {
		p, err := mqtt.NewRealPublisher(cfg.broker, l)
		if err != nil {
			l.Warnf("mqtt disabled: %v", err)
		} else {
			publisher = p
		}
	}
	defer publisher.Close()

	var mirror messaging.Mirror = messaging.Noop{}
	if cfg.redis != "" {
		rc := messaging.NewRedisClient(cfg.redis, l.WithTag("redis"))
		if err := rc.Connect(); err != nil {
			l.Debugf("%v", err)
		}
		mirror = rc
	}
	defer mirror.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:       cfg.poll.Milliseconds(),
		HeartbeatMs:  cfg.heartbeat.Milliseconds(),
		TickUs:       cfg.tick.Microseconds(),
		RampStepMs:   cfg.rampStep.Milliseconds(),
		MirrorHoldMs: cfg.mirrorHold.Milliseconds(),
		DarkOnly:     cfg.darkOnly,
		Broker:       cfg.broker,
		Redis:        cfg.redis,
		HTTPAddr:     cfg.httpAddr,
		WSBroker:     cfg.wsBroker,
		GPIOChip:     cfg.pins.Chip,
		ADCDevice:    cfg.adcDevice,
		PWMChip:      cfg.pwmChip,
	})
	tracker.SetMQTTConnected(publisher.IsConnected())
	tracker.SetRedisConnected(mirror.IsConnected())

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		l.Warnf("failed to publish startup event: %v", err)
	}

	if cfg.httpAddr != "" {
		srv := web.New(cfg.httpAddr, tracker, cfg.webAssets)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				l.Errorf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		l.Infof("http status server listening on %s", cfg.httpAddr)
	}

	l.Infof("started: poll=%v tick=%v ramp-step=%v mirror-hold=%v dark-only=%v broker=%q redis=%q",
		cfg.poll, cfg.tick, cfg.rampStep, cfg.mirrorHold, cfg.darkOnly, cfg.broker, cfg.redis)

	var tick <-chan time.Time
	if cfg.poll > 0 {
		ticker := time.NewTicker(cfg.poll)
		defer ticker.Stop()
		tick = ticker.C
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	lp := &loop{
		sampler:   sampler,
		ctrl:      ctrl,
		ticks:     counter,
		publisher: publisher,
		mirror:    mirror,
		tracker:   tracker,
		failures:  driver.Failures,
		heartbeat: cfg.heartbeat,
		now:       time.Now,
		log:       l,
	}
	return lp.run(tick, sigCh)
}

// telemetry is an MQTT publisher that reports its connection state.
type telemetry interface {
	mqtt.Publisher
	mqtt.ConnectionStatus
}

// snapshotSource yields one input snapshot per iteration.
type snapshotSource interface {
	Sample() (logic.Snapshot, error)
}

// tickSource is the free-running grace timer counter.
type tickSource interface {
	Load() uint32
}

// loop owns the control state and runs one controller step per iteration.
type loop struct {
	sampler   snapshotSource
	ctrl      *logic.Controller
	ticks     tickSource
	publisher telemetry
	mirror    messaging.Mirror
	tracker   *status.Tracker
	failures  func() uint64
	heartbeat time.Duration
	now       func() time.Time
	log       *logger.Logger

	state  logic.State
	counts logic.EventCounts
}

// run initializes the outputs and iterates until a signal arrives.
// A nil tick repeats immediately; otherwise each iteration waits for a tick.
func (lp *loop) run(tick <-chan time.Time, sig <-chan os.Signal) error {
	hb := logic.NewHeartbeat(lp.heartbeat, lp.now())
	lp.state = logic.NewState()
	lp.ctrl.Init()

	for {
		if tick == nil {
			select {
			case s := <-sig:
				return lp.shutdown(s)
			default:
			}
		} else {
			select {
			case s := <-sig:
				return lp.shutdown(s)
			case <-tick:
			}
		}

		lp.iterate(hb)
	}
}

func (lp *loop) iterate(hb *logic.Heartbeat) {
	t := lp.now()
	snap, err := lp.sampler.Sample()
	if err != nil {
		lp.log.Warnf("sample error: %v", err)
		return
	}

	prev := lp.state
	lp.state = lp.ctrl.Step(prev, logic.Input{Snapshot: snap, Ticks: lp.ticks.Load(), Time: t})

	events := logic.Changes(prev, lp.state, t)
	lp.counts.Add(events)
	for _, event := range events {
		if event.Mode != "" {
			lp.log.Infof("event: %s %s", event.Type, event.Mode)
		} else {
			lp.log.Infof("event: %s", event.Type)
		}
		if err := lp.publisher.Publish(event); err != nil {
			lp.log.Warnf("publish error: %v", err)
		}
	}

	if err := lp.mirror.PublishLights(lp.state); err != nil {
		lp.log.Debugf("redis lights: %v", err)
	}
	if err := lp.mirror.PublishInputs(snap); err != nil {
		lp.log.Debugf("redis inputs: %v", err)
	}

	lp.updateTracker(snap)

	if hbData, ok := hb.Due(t, lp.counts); ok {
		lp.log.Infof("heartbeat: uptime=%v mirror_on=%d edge_on=%d red_on=%d rgb_on=%d terminator=%d",
			hbData.Uptime, hbData.Counts.MirrorOn, hbData.Counts.EdgeOn, hbData.Counts.RedOn,
			hbData.Counts.RGBOn, hbData.Counts.Terminator)
		hbEvent := mqtt.SystemEvent{
			Timestamp:  hbData.Timestamp,
			Event:      "HEARTBEAT",
			RawPayload: status.FormatStatusEvent(lp.tracker.Snapshot(), "HEARTBEAT", ""),
		}
		if err := lp.publisher.PublishSystem(hbEvent); err != nil {
			lp.log.Warnf("heartbeat publish error: %v", err)
		}
	}
}

func (lp *loop) updateTracker(snap logic.Snapshot) {
	lp.tracker.Update(lp.state, snap, lp.counts)
	lp.tracker.SetMQTTConnected(lp.publisher.IsConnected())
	lp.tracker.SetRedisConnected(lp.mirror.IsConnected())
	if lp.failures != nil {
		lp.tracker.SetOutputFailures(lp.failures())
	}
}

func (lp *loop) shutdown(s os.Signal) error {
	lp.log.Infof("received %v, shutting down", s)
	signalName := "UNKNOWN"
	if s == syscall.SIGINT {
		signalName = "SIGINT"
	} else if s == syscall.SIGTERM {
		signalName = "SIGTERM"
	}

	prev := lp.state
	lp.state = lp.ctrl.Shutdown(prev)
	t := lp.now()
	for _, event := range logic.Changes(prev, lp.state, t) {
		if err := lp.publisher.Publish(event); err != nil {
			lp.log.Warnf("publish error: %v", err)
		}
	}
	if err := lp.mirror.PublishLights(lp.state); err != nil {
		lp.log.Debugf("redis lights: %v", err)
	}

	lp.tracker.SetState(lp.state)
	lp.tracker.SetMQTTConnected(lp.publisher.IsConnected())
	event := mqtt.SystemEvent{
		Timestamp:  t,
		Event:      "SHUTDOWN",
		Reason:     signalName,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(lp.tracker.Snapshot(), "SHUTDOWN", signalName),
	}
	if err := lp.publisher.PublishSystem(event); err != nil {
		lp.log.Warnf("failed to publish shutdown event: %v", err)
	} else {
		lp.log.Infof("published shutdown event")
	}
	return nil
}

var (
	onColor  = color.New(color.FgGreen, color.Bold)
	offColor = color.New(color.FgHiBlack)
)

// resolveWSBroker turns the -ws-broker flag into a URL for the browser.
// "=broker" derives ws://host:9001 from the TCP broker address. Empty disables.
func resolveWSBroker(ws, broker string, l *logger.Logger) string {
	if ws == "off" || ws == "" {
		return ""
	}
	if ws != "=broker" {
		return ws
	}
	if broker == "" {
		return ""
	}
	u, err := url.Parse(broker)
	if err != nil || u.Hostname() == "" {
		l.Warnf("ws-broker: cannot derive from -broker %q", broker)
		return ""
	}
	u.Scheme = "ws"
	u.Host = u.Hostname() + ":9001"
	return u.String()
}

func printLevel(w io.Writer, name string, on bool, onText, offText string) {
	if on {
		onColor.Fprintf(w, "%-14s %s\n", name+":", onText)
		return
	}
	offColor.Fprintf(w, "%-14s %s\n", name+":", offText)
}

// printState writes one input snapshot in human-readable form.
func printState(w io.Writer, snap logic.Snapshot) {
	printLevel(w, "Door", snap.DoorClosed, "CLOSED", "OPEN")
	printLevel(w, "Ignition", snap.Ignition, "ON", "OFF")
	printLevel(w, "Reading light", snap.ReadingLight, "ON", "OFF")
	fmt.Fprintf(w, "%-14s %s\n", "Interior:", snap.Switches.InteriorMode())
	fmt.Fprintf(w, "%-14s %s\n", "Exterior:", snap.Switches.ExteriorMode())
	a := snap.Analog
	fmt.Fprintf(w, "%-14s %d / %d (threshold %d / %d)\n", "Photo L/R:",
		a.PhotoLeft, a.PhotoRight, logic.SensitivityLevel(a.SensLeft), logic.SensitivityLevel(a.SensRight))
	printLevel(w, "Dark", logic.IsDark(a), "yes", "no")
	fmt.Fprintf(w, "%-14s %d (%ds)\n", "Dimmer:", a.DimmerTime, logic.DimmerSeconds(a))
}
