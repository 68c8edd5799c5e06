// Package pwm drives 8-bit PWM outputs with inverted sense.
// A duty of 0 is full on and 255 is off.
package pwm

import "time"

// DefaultPeriod gives roughly 976 Hz.
const DefaultPeriod = 1024 * time.Microsecond

// Off is the duty value that turns the output fully off.
const Off uint8 = 255

// Channel is one PWM output.
type Channel interface {
	// Set writes the 8-bit duty register.
	Set(duty uint8) error

	// Duty returns the last duty written.
	Duty() uint8

	// Close turns the output off and releases it.
	Close() error
}

// OnTime returns the high time for duty within period.
func OnTime(period time.Duration, duty uint8) time.Duration {
	return period * time.Duration(Off-duty) / time.Duration(Off)
}
