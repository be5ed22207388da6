//go:build linux

package machine

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// mmapRegion is a real memory-mapped page backing a simulated
// firmware structure; its only user is the BIOS data page
// (newMappedBiosPage). The device-register bank stays a plain Go
// slice. Nothing reads or writes it outside of Bytes().
type mmapRegion struct {
	data []byte
}

// newMmapRegion maps n bytes (rounded up to a page) as an anonymous,
// process-private region.
func newMmapRegion(n int) (*mmapRegion, error) {
	size := pageAlign(n)
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, errors.Wrap(err, "machine: mmap firmware region")
	}
	return &mmapRegion{data: data}, nil
}

// Bytes returns the mapped region.
func (r *mmapRegion) Bytes() []byte { return r.data }

// Close unmaps the region.
func (r *mmapRegion) Close() error {
	if r.data == nil {
		return nil
	}
	err := unix.Munmap(r.data)
	r.data = nil
	return err
}

// newMappedBiosPage backs the machine's BIOS data page with a real
// mmap'd page. A saved arch.State is small; one page is always enough
// and matches the firmware's fixed-address, page-granular layout.
func newMappedBiosPage() (mappedRegion, error) {
	return newMmapRegion(unix.Getpagesize())
}
