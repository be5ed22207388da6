package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "boot.toml")
	body := `
max_proc = 20
max_sem_descriptors = 22
time_slice_ms = 5
clock_interval_ms = 100
num_device_lines = 5
num_devices_per_line = 8
boot_entry_pc = 4096
boot_stack_top = 1048576
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f.MaxProc != 20 || f.MaxSemDescriptors != 22 {
		t.Fatalf("File = %+v, want MaxProc=20 MaxSemDescriptors=22", f)
	}

	cfg := f.Kernel()
	if cfg.TimeSlice.Milliseconds() != 5 || cfg.ClockInterval.Milliseconds() != 100 {
		t.Fatalf("Kernel() = %+v, want 5ms/100ms", cfg)
	}
}

func TestDefaultMatchesKernelDefaults(t *testing.T) {
	f := Default()
	if f.MaxProc != 20 || f.NumDeviceLines != 5 || f.NumDevicesPerLine != 8 {
		t.Fatalf("Default() = %+v, want the spec's stated defaults", f)
	}
}
