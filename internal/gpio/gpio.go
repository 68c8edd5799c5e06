// Package gpio provides digital input and output lines with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementations allow testing without hardware.
package gpio

// Levels is one read of every digital input, in logical form.
type Levels struct {
	DoorClosed   bool
	Ignition     bool
	ReadingLight bool
	InteriorA    bool
	InteriorB    bool
	ExteriorA    bool
	ExteriorB    bool
}

// Inputs reads the digital input lines.
type Inputs interface {
	// Read returns the logical level of every input.
	// Active-level inversion is already applied.
	Read() (Levels, error)

	// Close releases GPIO resources.
	Close() error
}

// Output names a digital output line.
type Output string

const (
	OutputRGB Output = "rgb"
	OutputRed Output = "red"
)

// Outputs drives the digital output lines.
type Outputs interface {
	// Set drives the line to its logical on or off level.
	Set(line Output, on bool) error

	// Close releases GPIO resources.
	Close() error
}

// Line is a single pin offset with its active level.
type Line struct {
	Offset    int
	ActiveLow bool
}

// Pins maps every signal to a line on one chip.
type Pins struct {
	Chip         string
	DoorClosed   Line
	Ignition     Line
	ReadingLight Line
	InteriorA    Line
	InteriorB    Line
	ExteriorA    Line
	ExteriorB    Line
	RGB          Line
	Red          Line
}

// DefaultPins returns the harness wiring (BCM numbering).
// Door reed reads high when closed, ignition pulls low when on,
// the reading light feed is high when lit. Mode switches read high when asserted.
func DefaultPins() Pins {
	return Pins{
		Chip:         "gpiochip0",
		DoorClosed:   Line{Offset: 17},
		Ignition:     Line{Offset: 27, ActiveLow: true},
		ReadingLight: Line{Offset: 22},
		InteriorA:    Line{Offset: 5},
		InteriorB:    Line{Offset: 6},
		ExteriorA:    Line{Offset: 13},
		ExteriorB:    Line{Offset: 19},
		RGB:          Line{Offset: 23},
		Red:          Line{Offset: 24},
	}
}
