package kernel

import "github.com/dohoanggiahuy317/go-pandos/pkg/pcb"

// TerminateSubtree recursively terminates every descendant of p, then
// p itself (spec §4.5 "Termination detail"). It is the implementation
// behind SYS2 and the "die" half of pass-up-or-die; both call it on
// the current process once CPU time has already been charged.
func (n *Nucleus) TerminateSubtree(p *pcb.PCB) {
	for c := p.FirstChild(); c != nil; {
		next := c.NextSibling()
		n.terminateRecursive(c)
		c = next
	}
	n.detachAndFree(p)
}

func (n *Nucleus) terminateRecursive(p *pcb.PCB) {
	for c := p.FirstChild(); c != nil; {
		next := c.NextSibling()
		n.terminateRecursive(c)
		c = next
	}
	n.detachAndFree(p)
}

// detachAndFree removes p from whichever of the five locations in
// invariant 1 (spec §3) currently holds it, undoes the accounting
// that location implied, and returns p to the free pool.
func (n *Nucleus) detachAndFree(p *pcb.PCB) {
	if p.Parent() != nil {
		pcb.RemoveChild(p)
	}

	switch {
	case n.current == p:
		n.current = nil
	case p.SemAdd != nil:
		semAdd := p.SemAdd
		n.asl.OutBlocked(p)
		if n.IsSoftBlocking(semAdd) {
			n.softBlockedCount--
		} else {
			// Restore the counting semantics the dying process's P
			// had imposed; no further waiter is released by this.
			*semAdd++
		}
	default:
		n.ready.Remove(p)
	}

	n.pool.Free(p)
	n.processCount--
}
