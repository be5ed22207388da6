package kernel

import (
	"github.com/dohoanggiahuy317/go-pandos/pkg/arch"
	"github.com/dohoanggiahuy317/go-pandos/pkg/pcb"
)

// Outcome is the tagged "what to do next" a syscall handler returns in
// place of ever suspending itself (design note "Coroutine-like
// syscalls"): every handler runs to completion and tells the
// dispatcher whether to resume the caller or invoke the scheduler.
type Outcome int

const (
	// OutcomeResume means the handler left a process ready to resume
	// immediately: dispatch.go charges CPU time and resumes it.
	OutcomeResume Outcome = iota
	// OutcomeSchedule means the handler already cleared the
	// current-process slot (it blocked or terminated the caller);
	// dispatch.go invokes the scheduler.
	OutcomeSchedule
)

// SyscallArgs carries one trap's syscall arguments, supplied by
// HandleTrap's caller alongside the trap. Num, Line, Device, and
// WaitForRead are the plain values that correspond to a0..a3; the
// handlers read Line, Device, and WaitForRead from this struct, not
// from the saved a1..a3, and the dispatcher takes the syscall number
// from the saved a0, not from Num. SemAddr, InitState, and Support carry arguments
// that are semantically pointers (a semaphore's address, a new
// process's initial state and support structure): this
// implementation does not simulate a guest address space (the spec
// scopes the support layer's memory management out entirely), so
// there is no MMU to translate a 32-bit register value through, and
// these are instead passed as the genuine Go values the issuing code
// (the boot payload, a test, or the support layer) already holds.
type SyscallArgs struct {
	Num         uint32
	Line        uint32
	Device      uint32
	WaitForRead bool

	SemAddr   *int32
	InitState *arch.State
	Support   *pcb.Support
}

// SyscallFunc is the shape every SYS1..SYS8 handler implements. It
// operates on n.Current() directly, mutating its State in place; the
// return value tells HandleTrap what to do once the handler returns.
type SyscallFunc func(n *Nucleus, args SyscallArgs) Outcome

// SetSyscallTable installs the syscall-number-to-handler table. It
// must be called once, before the first trap, typically by
// pkg/syscalls' RegisterAll. Mirrors the teacher's pattern of a
// kernel package that owns the table's shape while a sibling package
// populates its contents, so kernel never imports the package that
// implements the numbered services.
func (n *Nucleus) SetSyscallTable(table map[uint32]SyscallFunc) {
	n.syscallTable = table
}
