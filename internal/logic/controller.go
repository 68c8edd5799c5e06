package logic

import "time"

// Actuator drives the light outputs. Every enable/disable call is idempotent.
// The ramps and Wait block the caller until they complete.
type Actuator interface {
	EnableRGB()
	DisableRGB()
	EnableRedLights()
	DisableRedLights()
	EnableMirrorLights()
	DisableMirrorLights()
	EnableEdgeLights()
	DisableEdgeLights()

	// BrightMirrorLights ramps the mirror PWM from off to nearly full on,
	// sleeping step between duty writes.
	BrightMirrorLights(step time.Duration)

	// DimMirrorLights ramps the mirror PWM from full on to nearly off.
	DimMirrorLights(step time.Duration)

	// Wait blocks for d.
	Wait(d time.Duration)
}

// Controller runs the lighting state machine against an Actuator.
type Controller struct {
	out    Actuator
	timing Timing

	// DarkOnly gates the door-open welcome ramp on IsDark.
	DarkOnly bool
}

// NewController creates a controller driving out with the given timing.
func NewController(out Actuator, timing Timing) *Controller {
	return &Controller{out: out, timing: timing}
}

// Timing returns the controller timing.
func (c *Controller) Timing() Timing {
	return c.timing
}

// Init drives every output to off. Call once before the first Step.
func (c *Controller) Init() {
	c.out.DisableRGB()
	c.out.DisableRedLights()
	c.out.DisableEdgeLights()
	c.out.DisableMirrorLights()
}

// Shutdown drives every output off and clears the output flags.
func (c *Controller) Shutdown(st State) State {
	c.Init()
	st.MirrorOn = false
	st.EdgeOn = false
	st.RedOn = false
	st.RGBOn = false
	return st
}

// Step runs one control loop iteration and returns the updated state.
// It may block for ramps and fixed delays; nothing interrupts them.
func (c *Controller) Step(st State, in Input) State {
	st.Interior = in.Switches.InteriorMode()
	st.Exterior = in.Switches.ExteriorMode()

	st = c.trackDoorTimeout(st, in)
	st = c.stepInterior(st, in)
	st = c.stepExterior(st, in)
	return st
}

// trackDoorTimeout runs the grace timer while the door is last known closed.
// The timer restarts only after a door-open transition has stopped it.
func (c *Controller) trackDoorTimeout(st State, in Input) State {
	if !st.WasDoorClosed {
		return st
	}
	if !st.TimerEnabled {
		st.TimerEnabled = true
		st.TimerStart = in.Ticks
	}
	if in.Ticks-st.TimerStart > c.timing.GraceTicks {
		st.Terminator = true
	}
	return st
}

func (c *Controller) stepInterior(st State, in Input) State {
	switch st.Interior {
	case Mode1:
		if in.Ignition && !st.RGBOn {
			c.out.EnableRGB()
			st.RGBOn = true
		}
		if !in.Ignition && st.RGBOn {
			c.out.DisableRGB()
			st.RGBOn = false
		}

	case Mode2:
		if st.ReadingLight(in.ReadingLight) && !st.RGBOn {
			c.out.EnableRGB()
			st.RGBOn = true
			c.out.Wait(c.timing.InteriorSettle)
		}
		if !st.ReadingLight(in.ReadingLight) && st.RGBOn {
			c.out.DisableRGB()
			st.RGBOn = false
			c.out.Wait(c.timing.InteriorSettle)
		}

	default:
		c.out.DisableRGB()
		st.RGBOn = false
	}
	return st
}

func (c *Controller) stepExterior(st State, in Input) State {
	switch st.Exterior {
	case Mode1:
		return c.stepExteriorMode1(st, in)

	case Mode2:
		if st.ReadingLight(in.ReadingLight) {
			if !st.RedOn {
				c.out.EnableRedLights()
				st.RedOn = true
			}
		} else if st.RedOn {
			c.out.DisableRedLights()
			c.out.Wait(c.timing.RedOffDelay)
			st.RedOn = false
		}
		return st

	default:
		c.out.DisableMirrorLights()
		c.out.DisableRedLights()
		c.out.DisableEdgeLights()
		st.MirrorOn = false
		st.RedOn = false
		st.EdgeOn = false
		return st
	}
}

func (c *Controller) stepExteriorMode1(st State, in Input) State {
	if st.ReadingLight(in.ReadingLight) && !st.RedOn {
		c.out.EnableRedLights()
		st.RedOn = true
	} else if !st.ReadingLight(in.ReadingLight) && st.RedOn {
		c.out.DisableRedLights()
		st.RedOn = false
	}

	if in.Ignition {
		if st.MirrorOn {
			c.out.DisableMirrorLights()
			st.MirrorOn = false
		}
		return st
	}

	if in.DoorClosed {
		if st.EdgeOn {
			c.out.DisableEdgeLights()
			st.EdgeOn = false
		}
		if st.MirrorOn {
			c.out.Wait(c.timing.MirrorHold)
			c.out.DimMirrorLights(c.timing.RampStep)
			c.out.DisableMirrorLights()
			st.MirrorOn = false
		}
		st.WasDoorClosed = true
		return st
	}

	// Door open. The welcome ramp runs first, then the lights follow the
	// reading light in the same iteration.
	if st.WasDoorClosed && !st.MirrorOn {
		st.WasDoorClosed = false
		st.Terminator = false
		st.TimerEnabled = false
		if !c.DarkOnly || IsDark(in.Analog) {
			c.out.BrightMirrorLights(c.timing.RampStep)
			c.out.EnableMirrorLights()
			st.MirrorOn = true
		}
	}

	if st.ReadingLight(in.ReadingLight) {
		if !st.EdgeOn {
			c.out.EnableEdgeLights()
			st.EdgeOn = true
		}
		if !st.MirrorOn {
			c.out.BrightMirrorLights(c.timing.RampStep)
			c.out.EnableMirrorLights()
			st.MirrorOn = true
		}
	} else {
		if st.EdgeOn {
			c.out.DisableEdgeLights()
			st.EdgeOn = false
		}
		if st.MirrorOn {
			c.out.DimMirrorLights(c.timing.RampStep)
			c.out.DisableMirrorLights()
			st.MirrorOn = false
		}
	}
	return st
}
