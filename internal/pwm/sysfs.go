package pwm

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// exportTimeout bounds the wait for udev to create the channel directory
// after export.
var exportTimeout = time.Second

const exportPoll = 10 * time.Millisecond

// writeFile stores v in a sysfs attribute.
var writeFile = writeValue

// SysfsChannel drives a PWM output through /sys/class/pwm.
type SysfsChannel struct {
	dir    string
	period time.Duration
	duty   uint8
}

// NewSysfsChannel exports channel n of chip under root (usually /sys/class/pwm),
// starts off, sets the period and enables the output. The duty cycle is
// zeroed first because the kernel rejects a period shorter than the
// current duty cycle.
func NewSysfsChannel(root string, chip, n int, period time.Duration) (*SysfsChannel, error) {
	chipDir := filepath.Join(root, fmt.Sprintf("pwmchip%d", chip))
	dir := filepath.Join(chipDir, fmt.Sprintf("pwm%d", n))

	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		if err := writeFile(filepath.Join(chipDir, "export"), strconv.Itoa(n)); err != nil {
			return nil, fmt.Errorf("export pwm%d: %w", n, err)
		}
		if err := waitForDir(dir, exportTimeout); err != nil {
			return nil, fmt.Errorf("export pwm%d: %w", n, err)
		}
	}

	c := &SysfsChannel{dir: dir, period: period, duty: Off}
	if err := c.write("duty_cycle", 0); err != nil {
		return nil, err
	}
	if err := c.write("period", period.Nanoseconds()); err != nil {
		return nil, err
	}
	if err := c.write("enable", 1); err != nil {
		return nil, err
	}
	return c, nil
}

// Set writes the duty as on-time in nanoseconds.
func (c *SysfsChannel) Set(duty uint8) error {
	if err := c.write("duty_cycle", OnTime(c.period, duty).Nanoseconds()); err != nil {
		return err
	}
	c.duty = duty
	return nil
}

// Duty returns the last duty written.
func (c *SysfsChannel) Duty() uint8 {
	return c.duty
}

// Close turns the output off and disables it.
func (c *SysfsChannel) Close() error {
	var errs []error
	if err := c.Set(Off); err != nil {
		errs = append(errs, err)
	}
	if err := c.write("enable", 0); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *SysfsChannel) write(attr string, v int64) error {
	if err := writeFile(filepath.Join(c.dir, attr), strconv.FormatInt(v, 10)); err != nil {
		return fmt.Errorf("write %s: %w", attr, err)
	}
	return nil
}

// waitForDir polls until dir exists or timeout elapses.
func waitForDir(dir string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		_, err := os.Stat(dir)
		if err == nil {
			return nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%s did not appear within %v", dir, timeout)
		}
		time.Sleep(exportPoll)
	}
}

func writeValue(path, v string) error {
	return os.WriteFile(path, []byte(v), 0o644)
}
