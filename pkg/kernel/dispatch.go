package kernel

import (
	"github.com/dohoanggiahuy317/go-pandos/pkg/arch"
	"github.com/dohoanggiahuy317/go-pandos/pkg/machine"
)

// HandleTrap is the nucleus's single exception entry point (spec
// §4.4), invoked by the driver after firmware has saved the trapped
// state into the BIOS data page. args supplies the pointer-bearing
// syscall arguments this trap can't carry in a 32-bit register (see
// SyscallArgs); pass the zero value for any non-syscall trap.
//
// HandleTrap owns the nucleus's single critical section: everything
// it calls, directly or through the syscall table, runs with n.mu
// held and assumes no other trap is concurrently in flight. This
// matches the scheduling model (spec §5): the nucleus itself never
// suspends while handling a trap.
func (n *Nucleus) HandleTrap(args SyscallArgs) *SchedulerResult {
	n.mu.Lock()
	defer n.mu.Unlock()

	saved := n.machine.SavedState()
	if n.current != nil {
		n.current.State = saved
	}
	n.chargeCurrent()

	code := saved.ExceptionCode()
	var outcome Outcome
	switch {
	case code == arch.ExcInterrupt:
		outcome = n.handleInterrupt(saved)
	case code >= arch.ExcTLBMod && code <= arch.ExcTLBStore:
		outcome = n.PassUpOrDie(machine.PassUpTLB)
	case code == arch.ExcSyscall:
		outcome = n.handleSyscall(saved, args)
	default:
		outcome = n.PassUpOrDie(machine.PassUpGeneral)
	}

	switch outcome {
	case OutcomeResume:
		n.ChargeAndResume(n.current)
		return &SchedulerResult{Action: ActionRun, Current: n.current}
	default: // OutcomeSchedule
		return n.scheduleLocked()
	}
}

// handleSyscall implements spec §4.5's preconditions and routes to
// the registered handler for the syscall number in a0.
func (n *Nucleus) handleSyscall(saved arch.State, args SyscallArgs) Outcome {
	if n.current == nil {
		n.machine.Panic("nucleus: syscall trap with no current process")
		return OutcomeSchedule
	}

	if saved.UserMode() {
		// The SYSCALL instruction is privileged: user-mode invocation
		// must appear to the support layer exactly as if the
		// hardware had raised Reserved Instruction (spec §9 Open
		// Questions, resolved in favor of explicit RI semantics
		// rather than a direct program-trap shortcut).
		n.current.State.SetExceptionCode(arch.ExcReserved)
		return n.PassUpOrDie(machine.PassUpGeneral)
	}

	n.current.State.AdvancePC()

	num := saved.A0()
	fn, ok := n.syscallTable[num]
	if !ok {
		return n.PassUpOrDie(machine.PassUpGeneral)
	}
	return fn(n, args)
}
