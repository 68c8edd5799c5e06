package adc

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOversampleMean(t *testing.T) {
	f := NewFakeConverter(map[Channel]int{
		PhotoLeft: 100, PhotoRight: 200, SensLeft: 400, SensRight: 800, DimmerTime: 1023,
	})

	a, err := Oversample(f, Samples)
	require.NoError(t, err)
	assert.Equal(t, 100, a.PhotoLeft)
	assert.Equal(t, 200, a.PhotoRight)
	assert.Equal(t, 400, a.SensLeft)
	assert.Equal(t, 800, a.SensRight)
	assert.Equal(t, 1023, a.DimmerTime)
	assert.Len(t, f.Calls, Samples*len(Channels))
}

func TestOversampleInterleaved(t *testing.T) {
	f := NewFakeConverter(nil)

	_, err := Oversample(f, 2)
	require.NoError(t, err)
	want := append(append([]Channel{}, Channels...), Channels...)
	assert.Equal(t, want, f.Calls)
}

func TestOversampleTruncates(t *testing.T) {
	f := NewFakeConverter(nil)
	f.Script[PhotoLeft] = []int{1, 2, 2}

	a, err := Oversample(f, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, a.PhotoLeft, "5/3 truncates to 1")
}

func TestOversampleError(t *testing.T) {
	f := NewFakeConverter(nil)
	f.Err = errors.New("adc busy")

	_, err := Oversample(f, Samples)
	assert.ErrorContains(t, err, "photo-left")
}

func TestScale(t *testing.T) {
	assert.Equal(t, 1023, Scale(4095, 12))
	assert.Equal(t, 511, Scale(2047, 12))
	assert.Equal(t, 1020, Scale(255, 8))
	assert.Equal(t, 700, Scale(700, 10))
	assert.Equal(t, 1023, Scale(5000, 10))
	assert.Equal(t, 0, Scale(-4, 10))
}

func TestIIOConverterReadsSysfs(t *testing.T) {
	root := t.TempDir()
	dev := filepath.Join(root, "iio:device0")
	require.NoError(t, os.MkdirAll(dev, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dev, "in_voltage3_raw"), []byte("4095\n"), 0o644))

	c := NewIIOConverter("iio:device0", 12)
	c.Root = root

	v, err := c.Convert(SensRight)
	require.NoError(t, err)
	assert.Equal(t, 1023, v)

	_, err = c.Convert(PhotoLeft)
	assert.Error(t, err, "missing channel file")
}

func TestIIOConverterBadValue(t *testing.T) {
	root := t.TempDir()
	dev := filepath.Join(root, "adc")
	require.NoError(t, os.MkdirAll(dev, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dev, "in_voltage0_raw"), []byte("n/a"), 0o644))

	c := &IIOConverter{Root: root, Device: "adc", Bits: 10}
	_, err := c.Convert(PhotoLeft)
	assert.ErrorContains(t, err, "parsing")
}
