package kernel

import "github.com/dohoanggiahuy317/go-pandos/pkg/pcb"

// chargeCurrent adds the elapsed time since startTOD to the current
// process's CPU-time accumulator (spec §3 "Lifecycle", §4.5
// "Accounting") and moves startTOD up to now, so a later charge in the
// same trap does not count the same interval again. It is a no-op if
// no process is current. Must only be called from inside HandleTrap's
// critical section.
func (n *Nucleus) chargeCurrent() {
	if n.current == nil {
		return
	}
	now := n.machine.Now()
	n.current.CPUTime += now.Sub(n.startTOD)
	n.startTOD = now
}

// resumeCurrent marks p as the current process and snapshots a fresh
// startTOD, so the next chargeCurrent call measures exactly the time
// spent running p since this resume (spec §4.5: CPU time charged
// again just before resume, to include time spent inside the trap).
func (n *Nucleus) resumeCurrent(p *pcb.PCB) {
	n.current = p
	n.startTOD = n.machine.Now()
}

// Current returns the process currently occupying the current-process
// slot, or nil. Exported for pkg/syscalls' handlers.
func (n *Nucleus) Current() *pcb.PCB { return n.current }

// ChargeAndResume is the "resume current process" exit path every
// syscall and interrupt handler that does not block or hand off to
// the scheduler must take: charge elapsed CPU time, then reset
// startTOD for the next measurement window. p is normally n.Current();
// passing it explicitly lets a handler resume a process other than
// the one it started as current (not currently exercised, but mirrors
// the spec's "resume" language which is about state, not identity).
func (n *Nucleus) ChargeAndResume(p *pcb.PCB) {
	n.chargeCurrent()
	n.resumeCurrent(p)
}
