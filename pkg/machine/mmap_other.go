//go:build !linux

package machine

import "github.com/pkg/errors"

// newMappedBiosPage is unavailable outside Linux: it always returns an
// error, so New fails when Config.MapBiosPage is set there. Without
// MapBiosPage the BIOS data page is a plain in-process arch.State on
// every platform.
func newMappedBiosPage() (mappedRegion, error) {
	return nil, errors.New("machine: mmap-backed BIOS data page requires linux")
}
