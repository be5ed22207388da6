// Package syscalls implements the nucleus's eight numbered services
// (spec §4.5). Each handler has the shape kernel.SyscallFunc and is
// registered into a *kernel.Nucleus by RegisterAll; the kernel package
// itself never imports this one, mirroring the teacher's split
// between the kernel package that owns a Task/Nucleus and the sibling
// package of syscall implementations the boot loader wires in.
package syscalls

import (
	"github.com/dohoanggiahuy317/go-pandos/pkg/arch"
	"github.com/dohoanggiahuy317/go-pandos/pkg/kernel"
)

// Syscall numbers (spec §4.5 table).
const (
	CreateProcess   uint32 = 1
	TerminateProcess uint32 = 2
	P               uint32 = 3
	V               uint32 = 4
	WaitForIO       uint32 = 5
	GetCPUTime      uint32 = 6
	WaitForClock    uint32 = 7
	GetSupportData  uint32 = 8
)

// negOne is v0's encoding of the signed value -1 (spec §4.5 SYS1:
// "-1 if pool exhausted"), since the register file is unsigned.
const negOne uint32 = ^uint32(0)

// RegisterAll builds the SYS1..SYS8 table and installs it on n. Call
// once at boot, before the first trap.
func RegisterAll(n *kernel.Nucleus) {
	n.SetSyscallTable(map[uint32]kernel.SyscallFunc{
		CreateProcess:    sysCreateProcess,
		TerminateProcess: sysTerminateProcess,
		P:                sysP,
		V:                sysV,
		WaitForIO:        sysWaitForIO,
		GetCPUTime:       sysGetCPUTime,
		WaitForClock:     sysWaitForClock,
		GetSupportData:   sysGetSupportData,
	})
}

// sysCreateProcess is SYS1: allocPcb, initialize from args, attach as
// a child of the caller, push to ready, processCount++.
func sysCreateProcess(n *kernel.Nucleus, args kernel.SyscallArgs) kernel.Outcome {
	caller := n.Current()
	var initial arch.State
	if args.InitState != nil {
		initial = *args.InitState
	}

	if _, err := n.CreateProcess(caller, initial, args.Support); err != nil {
		caller.State.SetV0(negOne)
	} else {
		caller.State.SetV0(0)
	}
	return kernel.OutcomeResume
}

// sysTerminateProcess is SYS2: recursively terminate the caller's
// subtree, then the caller itself; never returns to the caller.
func sysTerminateProcess(n *kernel.Nucleus, _ kernel.SyscallArgs) kernel.Outcome {
	n.TerminateSubtree(n.Current())
	return kernel.OutcomeSchedule
}

// sysP is SYS3 (passeren): decrement the semaphore; block if it went
// negative.
func sysP(n *kernel.Nucleus, args kernel.SyscallArgs) kernel.Outcome {
	if n.DecrementSem(args.SemAddr) {
		n.BlockCurrent(args.SemAddr)
		return kernel.OutcomeSchedule
	}
	return kernel.OutcomeResume
}

// sysV is SYS4 (verhogen): increment the semaphore; release one
// waiter in FIFO order if the result is non-positive.
func sysV(n *kernel.Nucleus, args kernel.SyscallArgs) kernel.Outcome {
	if released := n.IncrementSem(args.SemAddr); released != nil {
		n.ReadyInsert(released)
	}
	return kernel.OutcomeResume
}

// sysWaitForIO is SYS5: block the caller on the device (or terminal
// transmit) semaphore named by line/device/waitForRead. softBlockedCount
// is incremented before the decrement; the spec treats the two orders
// as equivalent since both run before blocking and both undo at
// release (spec §9 Open Questions).
func sysWaitForIO(n *kernel.Nucleus, args kernel.SyscallArgs) kernel.Outcome {
	semAddr := n.DeviceSemAddr(int(args.Line), int(args.Device), args.WaitForRead)
	n.IncSoftBlocked()
	n.DecrementSem(semAddr)
	n.BlockCurrent(semAddr)
	return kernel.OutcomeSchedule
}

// sysGetCPUTime is SYS6: charge CPU time up to and including this
// call, then return the running total.
func sysGetCPUTime(n *kernel.Nucleus, _ kernel.SyscallArgs) kernel.Outcome {
	caller := n.Current()
	n.ChargeAndResume(caller)
	caller.State.SetV0(uint32(caller.CPUTime.Nanoseconds()))
	return kernel.OutcomeResume
}

// sysWaitForClock is SYS7: block the caller on the pseudo-clock
// semaphore; released in a batch by the next interval-timer interrupt.
func sysWaitForClock(n *kernel.Nucleus, _ kernel.SyscallArgs) kernel.Outcome {
	semAddr := n.PseudoClockSemAddr()
	n.IncSoftBlocked()
	n.DecrementSem(semAddr)
	n.BlockCurrent(semAddr)
	return kernel.OutcomeSchedule
}

// sysGetSupportData is SYS8: hand back the caller's support-structure
// pointer (possibly nil) without blocking.
func sysGetSupportData(n *kernel.Nucleus, _ kernel.SyscallArgs) kernel.Outcome {
	n.SetLastSupport(n.Current().Support)
	return kernel.OutcomeResume
}
