// Package machine simulates the firmware collaborator the nucleus
// consumes but does not own: the BIOS data page, the pass-up vector,
// the memory-mapped device-register bank, the TOD clock, and the
// local/interval timers (spec §6 "Firmware contract"). Real µMPS3
// firmware and the boot test payload are out of scope (spec §1); this
// package stands in for them so the nucleus can be driven and tested
// without a real simulator attached.
package machine

import (
	"bytes"
	"encoding/binary"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/dohoanggiahuy317/go-pandos/pkg/arch"
)

// mappedRegion is a raw byte-addressable backing store, satisfied by
// a real mmap on Linux (mmap_linux.go) and unavailable elsewhere
// (mmap_other.go).
type mappedRegion interface {
	Bytes() []byte
	Close() error
}

// Clock abstracts the TOD source so tests can inject a deterministic
// clock instead of the wall clock.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// ContextDescriptor is a firmware-defined handler entry: a stack
// pointer, status word, and program counter a trap jumps to. The pass
// up vector and sup_exceptContext slots are both made of these (spec
// §6, §4.7).
type ContextDescriptor struct {
	Stack  uint32
	Status uint32
	PC     uint32
}

// PassUpIndex selects one of the two pass-up-vector handler slots.
type PassUpIndex int

const (
	// PassUpTLB is the TLB-refill handler slot.
	PassUpTLB PassUpIndex = iota
	// PassUpGeneral is the general-exception handler slot.
	PassUpGeneral
)

// Machine is the simulated firmware. It owns the BIOS data page, the
// pass-up vector, the device-register bank, and the timers. All of
// its state is protected by a single mutex: like the nucleus itself,
// only one logical actor drives a Machine at a time, but the live CLI
// driver (cmd/nucleus) touches it from a timer goroutine and the main
// dispatch loop concurrently, so the lock is real, not decorative.
type Machine struct {
	mu sync.Mutex

	clock Clock

	biosData arch.State
	biosPage mappedRegion // non-nil iff MapBiosPage was requested and is supported
	passUp   [2]ContextDescriptor

	halted     bool
	panicked   bool
	panicMsg   string

	lock *flock.Flock

	devices
	timers
}

// Config controls how a Machine is constructed.
type Config struct {
	// Clock supplies TOD snapshots; defaults to the wall clock.
	Clock Clock

	// LockPath, if non-empty, is advisory-locked for the Machine's
	// lifetime: the nucleus is a single-owner singleton (design note
	// §9), and this extends that invariant across OS processes, not
	// just goroutines, so two boots against the same backing state
	// can't run concurrently.
	LockPath string

	// NumDeviceLines and NumDevicesPerLine size the device-register
	// bank (spec default: lines 3..7, 8 devices each).
	NumDeviceLines    int
	NumDevicesPerLine int

	// MapBiosPage backs the BIOS data page with a real mmap'd page
	// instead of a plain Go value. Linux only; New returns an error
	// if requested on another platform.
	MapBiosPage bool
}

// New constructs a Machine. If cfg.LockPath is set and already locked
// by another process, New returns an error rather than blocking.
func New(cfg Config) (*Machine, error) {
	if cfg.NumDeviceLines <= 0 {
		cfg.NumDeviceLines = 5
	}
	if cfg.NumDevicesPerLine <= 0 {
		cfg.NumDevicesPerLine = 8
	}
	clock := cfg.Clock
	if clock == nil {
		clock = realClock{}
	}

	m := &Machine{clock: clock}
	m.devices.init(cfg.NumDeviceLines, cfg.NumDevicesPerLine)
	m.timers.init()

	if cfg.LockPath != "" {
		lock := flock.New(cfg.LockPath)
		ok, err := lock.TryLock()
		if err != nil {
			return nil, errors.Wrap(err, "machine: acquiring boot lock")
		}
		if !ok {
			return nil, errors.Errorf("machine: %s is already locked by another nucleus instance", cfg.LockPath)
		}
		m.lock = lock
	}

	if cfg.MapBiosPage {
		region, err := newMappedBiosPage()
		if err != nil {
			m.Close()
			return nil, err
		}
		m.biosPage = region
	}
	return m, nil
}

// Close releases the boot lock and unmaps the BIOS data page, if
// either was taken.
func (m *Machine) Close() error {
	var err error
	if m.biosPage != nil {
		err = m.biosPage.Close()
	}
	if m.lock != nil {
		if lerr := m.lock.Unlock(); err == nil {
			err = lerr
		}
	}
	return err
}

// Now returns a TOD snapshot.
func (m *Machine) Now() time.Time {
	return m.clock.Now()
}

// SaveTrap copies s into the BIOS data page, as firmware does on
// every trap before invoking the nucleus's exception entry point.
func (m *Machine) SaveTrap(s arch.State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.biosData = s
	if m.biosPage != nil {
		var buf bytes.Buffer
		// A State is all fixed-width numeric fields, so binary
		// encoding needs no reflection-unfriendly pointer chasing.
		if err := binary.Write(&buf, binary.LittleEndian, &s); err == nil {
			copy(m.biosPage.Bytes(), buf.Bytes())
		}
	}
}

// SavedState returns a copy of the BIOS data page.
func (m *Machine) SavedState() arch.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.biosPage != nil {
		var s arch.State
		r := bytes.NewReader(m.biosPage.Bytes())
		if err := binary.Read(r, binary.LittleEndian, &s); err == nil {
			return s
		}
	}
	return m.biosData
}

// SetPassUpVector writes one slot of the pass-up vector. Nothing in
// the nucleus, Boot included, calls it; a slot holds whatever its
// caller last wrote, or the zero ContextDescriptor.
func (m *Machine) SetPassUpVector(idx PassUpIndex, ctx ContextDescriptor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passUp[idx] = ctx
}

// PassUpVector reads one slot of the pass-up vector.
func (m *Machine) PassUpVector(idx PassUpIndex) ContextDescriptor {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.passUp[idx]
}

// Halt performs an orderly halt: no more processes exist to run.
func (m *Machine) Halt() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.halted = true
}

// Halted reports whether Halt has been called.
func (m *Machine) Halted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.halted
}

// Panic performs the machine's fatal-error stop: distinct from Halt,
// this signals that the system could not continue (deadlock, or a
// corrupted invariant caught during testing) rather than running out
// of work in an orderly way (spec §7).
func (m *Machine) Panic(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panicked = true
	m.panicMsg = msg
}

// Panicked reports whether Panic has been called, and the message
// passed to it.
func (m *Machine) Panicked() (bool, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.panicked, m.panicMsg
}

// pageAlign rounds n up to the host page size; used by newMmapRegion
// when the BIOS data page is backed by a real mmap'd region.
func pageAlign(n int) int {
	pageSize := unix.Getpagesize()
	if n%pageSize == 0 {
		return n
	}
	return (n/pageSize + 1) * pageSize
}
