// Package lights drives the mirror, edge, red and RGB outputs.
package lights

import (
	"time"

	"github.com/sweeney/aux-lights/internal/gpio"
	"github.com/sweeney/aux-lights/internal/logger"
	"github.com/sweeney/aux-lights/internal/pwm"
	"go.uber.org/atomic"
)

// PWM levels. Lower duty is brighter.
const (
	MirrorOn  uint8 = 0
	MirrorOff uint8 = 255
	EdgeOn    uint8 = 100
	EdgeOff   uint8 = 255
)

// Sleeper pauses between ramp steps and for hold delays.
type Sleeper interface {
	Sleep(d time.Duration)
}

// RealSleeper sleeps on the wall clock.
type RealSleeper struct{}

func (RealSleeper) Sleep(d time.Duration) { time.Sleep(d) }

// Driver maps actuator commands onto PWM channels and GPIO lines.
type Driver struct {
	mirror pwm.Channel
	edge   pwm.Channel
	out    gpio.Outputs
	sleep  Sleeper
	log    *logger.Logger
	failed atomic.Uint64
}

// NewDriver creates a driver. Nothing is written until the first command.
func NewDriver(mirror, edge pwm.Channel, out gpio.Outputs, sleep Sleeper, log *logger.Logger) *Driver {
	if sleep == nil {
		sleep = RealSleeper{}
	}
	return &Driver{
		mirror: mirror,
		edge:   edge,
		out:    out,
		sleep:  sleep,
		log:    log.WithTag("lights"),
	}
}

// Failures returns how many output writes have failed.
func (d *Driver) Failures() uint64 {
	return d.failed.Load()
}

func (d *Driver) setDuty(name string, ch pwm.Channel, duty uint8) {
	if err := ch.Set(duty); err != nil {
		d.failed.Inc()
		d.log.Errorf("%s duty=%d: %v", name, duty, err)
	}
}

func (d *Driver) setLine(line gpio.Output, on bool) {
	if err := d.out.Set(line, on); err != nil {
		d.failed.Inc()
		d.log.Errorf("%s: %v", line, err)
	}
}

// EnableRGB drives the interior RGB enable line high.
func (d *Driver) EnableRGB() { d.setLine(gpio.OutputRGB, true) }

// DisableRGB drives the interior RGB enable line low.
func (d *Driver) DisableRGB() { d.setLine(gpio.OutputRGB, false) }

// EnableRedLights switches the door red warning lights on.
func (d *Driver) EnableRedLights() { d.setLine(gpio.OutputRed, true) }

// DisableRedLights switches the door red warning lights off.
func (d *Driver) DisableRedLights() { d.setLine(gpio.OutputRed, false) }

// EnableMirrorLights jumps the mirror channel to full brightness.
func (d *Driver) EnableMirrorLights() { d.setDuty("mirror", d.mirror, MirrorOn) }

// DisableMirrorLights jumps the mirror channel to off.
func (d *Driver) DisableMirrorLights() { d.setDuty("mirror", d.mirror, MirrorOff) }

// EnableEdgeLights sets the edge channel to its fixed on level.
func (d *Driver) EnableEdgeLights() { d.setDuty("edge", d.edge, EdgeOn) }

// DisableEdgeLights switches the edge channel off.
func (d *Driver) DisableEdgeLights() { d.setDuty("edge", d.edge, EdgeOff) }

// BrightMirrorLights writes 255 down to 1, sleeping step after each write.
func (d *Driver) BrightMirrorLights(step time.Duration) {
	d.log.Debugf("mirror ramp up")
	for duty := int(MirrorOff); duty > int(MirrorOn); duty-- {
		d.setDuty("mirror", d.mirror, uint8(duty))
		d.sleep.Sleep(step)
	}
}

// DimMirrorLights writes 0 up to 254, sleeping step after each write.
func (d *Driver) DimMirrorLights(step time.Duration) {
	d.log.Debugf("mirror ramp down")
	for duty := int(MirrorOn); duty < int(MirrorOff); duty++ {
		d.setDuty("mirror", d.mirror, uint8(duty))
		d.sleep.Sleep(step)
	}
}

// Wait blocks for dur.
func (d *Driver) Wait(dur time.Duration) {
	d.sleep.Sleep(dur)
}
