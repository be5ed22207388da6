// Package kernel wires the PCB pool, the Active Semaphore List, and
// the simulated machine into the nucleus proper: the scheduler, the
// exception dispatcher, pass-up-or-die, and per-process CPU-time
// accounting (spec §4.3, §4.4, §4.7, §9). It is the direct analogue
// of the teacher's pkg/sentry/kernel package: one struct (Nucleus,
// there Kernel) that every trap handler receives a pointer to.
package kernel

import (
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/dohoanggiahuy317/go-pandos/pkg/arch"
	"github.com/dohoanggiahuy317/go-pandos/pkg/asl"
	"github.com/dohoanggiahuy317/go-pandos/pkg/machine"
	"github.com/dohoanggiahuy317/go-pandos/pkg/pcb"
)

// Config sizes the nucleus's static pools and timing constants (spec
// §3 invariant 6). The zero value is not valid; use DefaultConfig or
// load one via pkg/config.
type Config struct {
	MaxProc           int           // PCB pool size, default 20
	MaxSemDescriptors int           // ASL descriptor pool size, default 22
	TimeSlice         time.Duration // local-timer slice, default 5ms
	ClockInterval     time.Duration // pseudo-clock interval, default 100ms
	NumDeviceLines    int           // default 5 (lines 3..7)
	NumDevicesPerLine int           // default 8
}

// DefaultConfig returns the spec's stated defaults.
func DefaultConfig() Config {
	return Config{
		MaxProc:           20,
		MaxSemDescriptors: 22,
		TimeSlice:         5 * time.Millisecond,
		ClockInterval:     100 * time.Millisecond,
		NumDeviceLines:    5,
		NumDevicesPerLine: 8,
	}
}

// Nucleus is the single-owner singleton holding all nucleus state:
// the PCB pool, the ASL, the ready queue, the current-process slot,
// the device/pseudo-clock semaphore table, and the two process-wide
// counters the scheduler and termination path maintain (spec §3
// invariants 4 and 5).
type Nucleus struct {
	mu sync.Mutex

	cfg     Config
	log     *logrus.Logger
	machine *machine.Machine

	pool *pcb.Pool
	asl  *asl.List

	ready   pcb.Queue
	current *pcb.PCB

	processCount     int
	softBlockedCount int

	startTOD time.Time

	deviceSems  []int32 // flat table, see devsem.go for indexing
	pseudoClock int32

	syscallTable map[uint32]SyscallFunc
	lastSupport  *pcb.Support
}

// New constructs a Nucleus. Sub-initializer failures (pool, ASL,
// machine) are aggregated with go-multierror rather than failing
// fast, so a caller sees every misconfiguration in one report instead
// of fixing them one at a time.
func New(cfg Config, m *machine.Machine, log *logrus.Logger) (*Nucleus, error) {
	var errs *multierror.Error
	if cfg.MaxProc <= 0 {
		errs = multierror.Append(errs, errors.New("kernel: MaxProc must be positive"))
	}
	if cfg.MaxSemDescriptors <= 0 {
		errs = multierror.Append(errs, errors.New("kernel: MaxSemDescriptors must be positive"))
	}
	if cfg.TimeSlice <= 0 {
		errs = multierror.Append(errs, errors.New("kernel: TimeSlice must be positive"))
	}
	if cfg.ClockInterval <= 0 {
		errs = multierror.Append(errs, errors.New("kernel: ClockInterval must be positive"))
	}
	if m == nil {
		errs = multierror.Append(errs, errors.New("kernel: machine must not be nil"))
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	n := &Nucleus{
		cfg:        cfg,
		log:        log,
		machine:    m,
		pool:       pcb.NewPool(cfg.MaxProc),
		asl:        asl.New(cfg.MaxSemDescriptors),
		deviceSems: make([]int32, (cfg.NumDeviceLines+1)*cfg.NumDevicesPerLine),
	}
	return n, nil
}

// ProcessCount returns the number of PCBs currently outside the free
// pool (spec §3 invariant 4).
func (n *Nucleus) ProcessCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.processCount
}

// SoftBlockedCount returns the number of PCBs blocked on a device or
// the pseudo-clock semaphore (spec §3 invariant 5).
func (n *Nucleus) SoftBlockedCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.softBlockedCount
}

// Machine returns the nucleus's simulated firmware collaborator.
func (n *Nucleus) Machine() *machine.Machine { return n.machine }

// Log returns the nucleus's logger.
func (n *Nucleus) Log() *logrus.Logger { return n.log }

// Boot creates the single initial process (spec §6 "Process-initial
// state") and puts it on the ready queue. It must be called exactly
// once, before the scheduler runs.
func (n *Nucleus) Boot(entryPC uint32, stackTop uint32, support *pcb.Support) (*pcb.PCB, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	p, err := n.pool.Alloc()
	if err != nil {
		return nil, errors.Wrap(err, "kernel: Boot")
	}
	p.State.PC = entryPC
	p.State.GPR[arch.RegSP] = stackTop
	p.State.GPR[arch.RegRA] = entryPC
	p.State.Status = arch.StatusIEc | arch.StatusTE | arch.StatusIntMaskOn
	p.Support = support

	n.ready.Insert(p)
	n.processCount++
	n.log.WithField("pid", p.ID()).Info("nucleus: boot process created")
	return p, nil
}
