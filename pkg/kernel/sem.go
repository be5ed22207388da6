package kernel

import "github.com/dohoanggiahuy317/go-pandos/pkg/pcb"

// DecrementSem performs the P primitive's arithmetic: decrement
// *semAdd and report whether the caller must now block (spec §4.5
// SYS3, §8 algebraic law). It does not touch any queue; callers
// combine this with BlockCurrent when it returns true.
func (n *Nucleus) DecrementSem(semAdd *int32) bool {
	*semAdd--
	return *semAdd < 0
}

// IncrementSem performs the V primitive's arithmetic and, if a waiter
// is now owed a release, dequeues and returns it (spec §4.5 SYS4).
// The returned PCB's semAdd has already been cleared by the ASL; the
// caller is responsible for pushing it onto the ready queue.
func (n *Nucleus) IncrementSem(semAdd *int32) *pcb.PCB {
	*semAdd++
	if *semAdd <= 0 {
		return n.asl.RemoveBlocked(semAdd)
	}
	return nil
}

// BlockCurrent detaches the current process from the current-process
// slot and enqueues it as a waiter on semAdd. Exhausting the
// descriptor free list here would mean more PCBs are simultaneously
// blocked on distinct addresses than the pool's MAXPROC bound allows,
// which cannot happen without a nucleus bug (spec §7 category 3:
// fatal), so that case machine-panics rather than returning an error.
func (n *Nucleus) BlockCurrent(semAdd *int32) {
	p := n.current
	n.current = nil
	if err := n.asl.InsertBlocked(semAdd, p); err != nil {
		n.machine.Panic("nucleus: " + err.Error())
	}
}

// ReadyInsert pushes p onto the tail of the ready queue (spec §4.1,
// strict FIFO).
func (n *Nucleus) ReadyInsert(p *pcb.PCB) {
	n.ready.Insert(p)
}

// IncSoftBlocked and DecSoftBlocked maintain invariant 5 (spec §3):
// softBlockedCount equals the number of PCBs blocked on a device or
// the pseudo-clock.
func (n *Nucleus) IncSoftBlocked() { n.softBlockedCount++ }
func (n *Nucleus) DecSoftBlocked() { n.softBlockedCount-- }
