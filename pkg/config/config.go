// Package config loads the nucleus's static sizing and timing
// parameters from a TOML file (spec §3 invariant 6: every nucleus
// pool is statically sized, so these values are fixed at boot, not
// renegotiated at runtime).
package config

import (
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/dohoanggiahuy317/go-pandos/pkg/kernel"
)

// File is the on-disk shape of a nucleus boot configuration. Durations
// are given in milliseconds, since TOML has no native duration type.
type File struct {
	MaxProc             int    `toml:"max_proc"`
	MaxSemDescriptors   int    `toml:"max_sem_descriptors"`
	TimeSliceMillis     int    `toml:"time_slice_ms"`
	ClockIntervalMillis int    `toml:"clock_interval_ms"`
	NumDeviceLines      int    `toml:"num_device_lines"`
	NumDevicesPerLine   int    `toml:"num_devices_per_line"`
	BootEntryPC         uint32 `toml:"boot_entry_pc"`
	BootStackTop        uint32 `toml:"boot_stack_top"`
}

// Default mirrors kernel.DefaultConfig in TOML-file form, for writing
// out a starter boot.toml.
func Default() File {
	d := kernel.DefaultConfig()
	return File{
		MaxProc:             d.MaxProc,
		MaxSemDescriptors:   d.MaxSemDescriptors,
		TimeSliceMillis:     int(d.TimeSlice / time.Millisecond),
		ClockIntervalMillis: int(d.ClockInterval / time.Millisecond),
		NumDeviceLines:      d.NumDeviceLines,
		NumDevicesPerLine:   d.NumDevicesPerLine,
		BootEntryPC:         0,
		BootStackTop:        0,
	}
}

// Load parses a TOML boot configuration from path.
func Load(path string) (File, error) {
	var f File
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return File{}, errors.Wrapf(err, "config: loading %s", path)
	}
	return f, nil
}

// Kernel converts a loaded File into a kernel.Config.
func (f File) Kernel() kernel.Config {
	return kernel.Config{
		MaxProc:           f.MaxProc,
		MaxSemDescriptors: f.MaxSemDescriptors,
		TimeSlice:         time.Duration(f.TimeSliceMillis) * time.Millisecond,
		ClockInterval:     time.Duration(f.ClockIntervalMillis) * time.Millisecond,
		NumDeviceLines:    f.NumDeviceLines,
		NumDevicesPerLine: f.NumDevicesPerLine,
	}
}
